// Package render runs the full pipeline from a user's note and staged files
// to a finished HTML document. The web API, the Telegram bot, and the demo
// loader all submit through it.
package render

import (
	"context"
	"encoding/base64"
	"io"
	"log/slog"

	"chrono-canvas-ai/internal/compose"
	"chrono-canvas-ai/internal/gemini"
	"chrono-canvas-ai/internal/intake"
)

// Generator produces an HTML document from a prompt and attachments.
type Generator interface {
	Generate(ctx context.Context, prompt string, attachments []gemini.Attachment) (string, error)
}

type Service struct {
	generator Generator
	logger    *slog.Logger
}

func New(generator Generator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		generator: generator,
		logger:    logger,
	}
}

// Render composes the prompt, encodes the files, and asks the model for a
// document. It enforces the submit gate: an empty note with no files returns
// intake.ErrNothingToSubmit.
func (s *Service) Render(ctx context.Context, note string, files []intake.File) (string, error) {
	if err := intake.CheckSubmit(note, len(files)); err != nil {
		return "", err
	}

	prompt := compose.Compose(note, len(files))

	attachments := make([]gemini.Attachment, 0, len(files))
	for _, f := range files {
		attachments = append(attachments, gemini.Attachment{
			DataBase64: base64.StdEncoding.EncodeToString(f.Data),
			MimeType:   f.MIMEType,
		})
	}

	s.logger.Info("rendering document",
		"files", len(files),
		"trigger", compose.Detect(note).String(),
		"prompt_len", len(prompt),
	)

	return s.generator.Generate(ctx, prompt, attachments)
}
