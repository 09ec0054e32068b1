// Package web serves the upload UI's JSON API: document generation from a
// note and files, the canned demo, and a health probe.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"chrono-canvas-ai/internal/demo"
	"chrono-canvas-ai/internal/intake"
)

// Renderer is the submission path shared with the bot and the demo.
type Renderer interface {
	Render(ctx context.Context, note string, files []intake.File) (string, error)
}

// DemoRunner runs the canned demo end to end.
type DemoRunner interface {
	Run(ctx context.Context) (string, error)
}

type Options struct {
	Renderer       Renderer
	Demo           DemoRunner
	Logger         *slog.Logger
	RequestTimeout time.Duration
	MaxUploadBytes int64
	MaxFiles       int
}

type Server struct {
	renderer       Renderer
	demo           DemoRunner
	logger         *slog.Logger
	requestTimeout time.Duration
	maxUploadBytes int64
	maxFiles       int
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	requestTimeout := opts.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 240 * time.Second
	}

	maxUploadBytes := opts.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = 25 << 20
	}

	maxFiles := opts.MaxFiles
	if maxFiles <= 0 {
		maxFiles = 8
	}

	return &Server{
		renderer:       opts.Renderer,
		demo:           opts.Demo,
		logger:         logger,
		requestTimeout: requestTimeout,
		maxUploadBytes: maxUploadBytes,
		maxFiles:       maxFiles,
	}
}

// Register mounts the API routes on the mux. Static assets stay with the
// caller.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/generate", s.handleGenerate)
	mux.HandleFunc("/api/demo", s.handleDemo)
	mux.HandleFunc("/health", s.handleHealth)
}

type apiError struct {
	Error string `json:"error"`
}

type documentResponse struct {
	HTML    string `json:"html"`
	Warning string `json:"warning,omitempty"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "method not allowed"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid multipart form"})
		return
	}

	note := r.FormValue("note")

	var headers []*multipart.FileHeader
	if r.MultipartForm != nil {
		headers = r.MultipartForm.File["files"]
	}
	if len(headers) > s.maxFiles {
		writeJSON(w, http.StatusBadRequest, apiError{Error: fmt.Sprintf("too many files (max %d)", s.maxFiles)})
		return
	}

	var coll intake.Collection
	var skipped []string
	for _, header := range headers {
		data, err := readPart(header)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, apiError{Error: fmt.Sprintf("failed to read %q", header.Filename)})
			return
		}

		f := intake.File{
			Name:     header.Filename,
			MIMEType: resolveMIME(header.Header.Get("Content-Type"), data),
			Data:     data,
		}
		if err := coll.Add(f); err != nil {
			if errors.Is(err, intake.ErrUnsupportedType) {
				skipped = append(skipped, header.Filename)
				continue
			}
			writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	html, err := s.renderer.Render(ctx, note, coll.Files())
	if err != nil {
		if errors.Is(err, intake.ErrNothingToSubmit) {
			writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusBadGateway, apiError{Error: err.Error()})
		return
	}

	resp := documentResponse{HTML: html}
	if len(skipped) > 0 {
		resp.Warning = "skipped unsupported files: " + strings.Join(skipped, ", ")
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDemo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "method not allowed"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	html, err := s.demo.Run(ctx)
	if err != nil {
		if errors.Is(err, demo.ErrBusy) {
			writeJSON(w, http.StatusConflict, apiError{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusBadGateway, apiError{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, documentResponse{HTML: html})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func readPart(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

// resolveMIME trusts the declared type first and falls back to content
// sniffing. Unknown binaries stay application/octet-stream so the intake
// gate rejects them.
func resolveMIME(declared string, data []byte) string {
	mimeType := normalizeMIME(declared)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = normalizeMIME(http.DetectContentType(data))
	}
	return mimeType
}

func normalizeMIME(value string) string {
	value = strings.TrimSpace(value)
	if i := strings.IndexByte(value, ';'); i >= 0 {
		value = strings.TrimSpace(value[:i])
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
