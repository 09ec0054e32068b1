// Package handlers routes Telegram updates: files are staged per chat, a
// note or caption submits them, and commands manage the staged set.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"chrono-canvas-ai/internal/demo"
	"chrono-canvas-ai/internal/intake"
	"chrono-canvas-ai/internal/mediagroup"
)

// Messenger is the slice of the Telegram client the handler needs.
type Messenger interface {
	SendText(chatID int64, text string) error
	SendTyping(chatID int64)
	SendHTMLDocument(chatID int64, html string, caption string) error
	DownloadFile(ctx context.Context, fileID string) ([]byte, string, error)
}

// Renderer is the submission path shared with the web API and the demo.
type Renderer interface {
	Render(ctx context.Context, note string, files []intake.File) (string, error)
}

// DemoRunner runs the canned demo end to end.
type DemoRunner interface {
	Run(ctx context.Context) (string, error)
}

type Options struct {
	Telegram Messenger
	Renderer Renderer
	Demo     DemoRunner
	Staged   *intake.Store
	Logger   *slog.Logger
}

type Handler struct {
	tg         Messenger
	renderer   Renderer
	demo       DemoRunner
	staged     *intake.Store
	logger     *slog.Logger
	aggregator *mediagroup.Aggregator
}

func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		tg:       opts.Telegram,
		renderer: opts.Renderer,
		demo:     opts.Demo,
		staged:   opts.Staged,
		logger:   logger,
	}
}

func (h *Handler) SetMediaGroupAggregator(ag *mediagroup.Aggregator) {
	h.aggregator = ag
}

func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	if update.Message == nil {
		return nil
	}

	msg := update.Message
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		return h.handleCommand(ctx, chatID, msg)
	}

	if ref, ok := fileRefFromMessage(msg); ok {
		if msg.MediaGroupID != "" && h.aggregator != nil {
			h.aggregator.Add(mediagroup.Item{
				ChatID:       chatID,
				MediaGroupID: msg.MediaGroupID,
				Caption:      msg.Caption,
				File:         ref,
			})
			return nil
		}
		return h.ingest(ctx, chatID, strings.TrimSpace(msg.Caption), []mediagroup.FileRef{ref})
	}

	if strings.TrimSpace(msg.Text) != "" {
		return h.submit(ctx, chatID, strings.TrimSpace(msg.Text))
	}

	return nil
}

// HandleMediaGroup receives a flushed album and runs it through the same
// staging path as single files.
func (h *Handler) HandleMediaGroup(ctx context.Context, group mediagroup.Group) {
	if err := h.ingest(ctx, group.ChatID, strings.TrimSpace(group.Caption), group.Files); err != nil {
		h.logger.Error("media group processing failed", "err", err)
	}
}

func (h *Handler) handleCommand(ctx context.Context, chatID int64, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return h.tg.SendText(chatID,
			"🖼️ Chrono Canvas AI\n\n"+
				"Send me photos or PDF files plus a note, and I turn them into a single web page.\n\n"+
				"Commands:\n"+
				"/render [note] - Build the page from staged files\n"+
				"/remove <n> - Remove a staged file\n"+
				"/clear - Drop all staged files\n"+
				"/demo - Build a demo page from stock photos\n"+
				"/help - How it works",
		)
	case "help":
		return h.tg.SendText(chatID,
			"🖼️ How it works\n\n"+
				"1. Send photos or PDF files. I stage them in the order they arrive.\n"+
				"2. Send a note (or a caption on the files) and I build the page.\n"+
				"3. Mention \"through the ages\" or \"heritage story\" in the note for the full four-chapter treatment.\n\n"+
				"/render builds from staged files alone, /remove <n> drops one file, /clear drops all, /demo shows a canned example.",
		)
	case "clear":
		h.staged.Clear(chatID)
		return h.tg.SendText(chatID, "✅ Staged files cleared.")
	case "remove":
		arg := strings.TrimSpace(msg.CommandArguments())
		n := 0
		if _, err := fmt.Sscanf(arg, "%d", &n); err != nil || n < 1 {
			return h.tg.SendText(chatID, "❌ Tell me which file to remove, e.g. /remove 1")
		}
		if err := h.staged.Remove(chatID, n-1); err != nil {
			return h.tg.SendText(chatID, fmt.Sprintf("❌ %s", err))
		}
		return h.tg.SendText(chatID, fmt.Sprintf("✅ Removed. %d file(s) staged.", h.staged.Count(chatID)))
	case "render":
		return h.submit(ctx, chatID, strings.TrimSpace(msg.CommandArguments()))
	case "demo":
		return h.runDemo(ctx, chatID)
	default:
		return h.tg.SendText(chatID, "❌ Unknown command. Use /help.")
	}
}

func (h *Handler) runDemo(ctx context.Context, chatID int64) error {
	h.tg.SendTyping(chatID)
	_ = h.tg.SendText(chatID, "⏳ Building the demo page, this can take a minute...")

	html, err := h.demo.Run(ctx)
	if err != nil {
		if errors.Is(err, demo.ErrBusy) {
			return h.tg.SendText(chatID, "⏳ The demo is already running, give it a moment.")
		}
		h.logger.Error("demo failed", "err", err)
		return h.tg.SendText(chatID, "❌ The demo failed. Please try again.")
	}

	return h.tg.SendHTMLDocument(chatID, html, "✅ Demo page. Open it in a browser.")
}

// submit drains the chat's staged files and renders. On a generation failure
// the files go back on stage so the user can retry without re-uploading.
func (h *Handler) submit(ctx context.Context, chatID int64, note string) error {
	files := h.staged.Take(chatID)
	h.tg.SendTyping(chatID)

	html, err := h.renderer.Render(ctx, note, files)
	if err != nil {
		if errors.Is(err, intake.ErrNothingToSubmit) {
			return h.tg.SendText(chatID, "❌ Nothing to build yet. Send a note or stage at least one photo or PDF.")
		}

		for _, f := range files {
			_, _ = h.staged.Add(chatID, f)
		}
		h.logger.Error("render failed", "err", err)
		return h.tg.SendText(chatID, "❌ Generation failed. Your staged files are kept, try again.")
	}

	return h.tg.SendHTMLDocument(chatID, html, "✅ Your page is ready. Open it in a browser.")
}

// ingest downloads the referenced files, stages what the gate admits, and
// submits right away when a caption came along. Files with a disallowed
// declared type are skipped before any download happens.
func (h *Handler) ingest(ctx context.Context, chatID int64, caption string, refs []mediagroup.FileRef) error {
	var skipped []string
	admitted := make([]mediagroup.FileRef, 0, len(refs))
	for _, ref := range refs {
		if ref.MIMEType != "" && !intake.Allowed(ref.MIMEType) {
			skipped = append(skipped, ref.FileName)
			continue
		}
		admitted = append(admitted, ref)
	}

	files, err := h.downloadFiles(ctx, admitted)
	if err != nil {
		h.logger.Error("file download failed", "err", err)
		return h.tg.SendText(chatID, "❌ Failed to download the file(s). Please send them again.")
	}

	count := h.staged.Count(chatID)
	limitHit := false
	for _, f := range files {
		n, err := h.staged.Add(chatID, f)
		count = n
		switch {
		case errors.Is(err, intake.ErrUnsupportedType):
			skipped = append(skipped, f.Name)
		case errors.Is(err, intake.ErrTooManyFiles):
			limitHit = true
		case err != nil:
			return err
		}
	}

	if len(skipped) > 0 {
		_ = h.tg.SendText(chatID, "❌ Skipped, only images and PDFs are supported: "+strings.Join(skipped, ", "))
	}
	if limitHit {
		_ = h.tg.SendText(chatID, fmt.Sprintf("❌ File limit reached, %d staged. Use /render or /clear first.", count))
	}

	if caption != "" {
		return h.submit(ctx, chatID, caption)
	}

	if count > 0 {
		return h.tg.SendText(chatID, fmt.Sprintf("📎 %d file(s) staged. Send more, reply with a note, or use /render.", count))
	}
	return nil
}

func (h *Handler) downloadFiles(ctx context.Context, refs []mediagroup.FileRef) ([]intake.File, error) {
	files := make([]intake.File, len(refs))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		i := i
		ref := ref
		eg.Go(func() error {
			data, resolved, err := h.tg.DownloadFile(egCtx, ref.FileID)
			if err != nil {
				return err
			}

			mimeType := ref.MIMEType
			if mimeType == "" || mimeType == "application/octet-stream" {
				mimeType = resolved
			}

			name := ref.FileName
			if name == "" {
				name = fmt.Sprintf("photo-%d.jpg", i+1)
			}

			files[i] = intake.File{Name: name, MIMEType: mimeType, Data: data}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return files, nil
}

func fileRefFromMessage(msg *tgbotapi.Message) (mediagroup.FileRef, bool) {
	if len(msg.Photo) > 0 {
		photo := msg.Photo[len(msg.Photo)-1]
		name := "photo.jpg"
		if photo.FileUniqueID != "" {
			name = fmt.Sprintf("photo-%s.jpg", photo.FileUniqueID)
		}
		return mediagroup.FileRef{FileID: photo.FileID, FileName: name}, true
	}

	if msg.Document != nil {
		return mediagroup.FileRef{
			FileID:   msg.Document.FileID,
			FileName: msg.Document.FileName,
			MIMEType: msg.Document.MimeType,
		}, true
	}

	return mediagroup.FileRef{}, false
}
