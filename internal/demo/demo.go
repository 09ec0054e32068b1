// Package demo fetches a fixed set of stock photos and submits them through
// the normal rendering path to produce a showcase page.
package demo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"chrono-canvas-ai/internal/intake"
)

// ErrBusy rejects a demo run while another one is still in flight.
var ErrBusy = errors.New("demo already running")

var demoPhotoURLs = []string{
	"https://picsum.photos/seed/millfront/1200/800",
	"https://picsum.photos/seed/millwheel/1200/800",
	"https://picsum.photos/seed/millriver/1200/800",
}

const demoNarrative = `These are three views of the old Harwick grain mill by the river: the front facade, the water wheel, and the riverbank approach. Take visitors through the ages of this mill, from its first stones to the present day.`

// Used when the stock photos cannot be fetched; the page is built from words
// alone.
const fallbackNarrative = `No photos are available, so work from this description: the old Harwick grain mill by the river, its water wheel long stilled, its brick walls patched across two centuries. Tell its heritage story as a single page.`

const maxPhotoBytes = 10 << 20

// Renderer is the submission path the demo shares with regular requests.
type Renderer interface {
	Render(ctx context.Context, note string, files []intake.File) (string, error)
}

type Options struct {
	HTTPClient *http.Client
	Renderer   Renderer
	Logger     *slog.Logger

	// PhotoURLs overrides the stock photo set.
	PhotoURLs []string
}

type Loader struct {
	httpClient *http.Client
	renderer   Renderer
	logger     *slog.Logger
	photoURLs  []string
	busy       atomic.Bool
}

func New(opts Options) *Loader {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	photoURLs := opts.PhotoURLs
	if len(photoURLs) == 0 {
		photoURLs = demoPhotoURLs
	}

	return &Loader{
		httpClient: opts.HTTPClient,
		renderer:   opts.Renderer,
		logger:     logger,
		photoURLs:  photoURLs,
	}
}

// Run fetches the stock photos and renders the showcase page. Only one run
// may be in flight at a time; concurrent calls get ErrBusy. When any photo
// fetch fails the page is rendered from the text-only fallback instead.
func (l *Loader) Run(ctx context.Context) (string, error) {
	if !l.busy.CompareAndSwap(false, true) {
		return "", ErrBusy
	}
	defer l.busy.Store(false)

	files, err := l.fetchPhotos(ctx)
	if err != nil {
		l.logger.Warn("demo photos unavailable, falling back to text only", "error", err)
		return l.renderer.Render(ctx, fallbackNarrative, nil)
	}

	l.logger.Info("demo photos fetched", "count", len(files))
	return l.renderer.Render(ctx, demoNarrative, files)
}

func (l *Loader) fetchPhotos(ctx context.Context) ([]intake.File, error) {
	files := make([]intake.File, len(l.photoURLs))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, url := range l.photoURLs {
		i := i
		url := url
		eg.Go(func() error {
			data, err := l.fetchOne(egCtx, url)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", url, err)
			}
			files[i] = intake.File{
				Name:     fmt.Sprintf("demo-mill-%d.jpg", i+1),
				MIMEType: "image/jpeg",
				Data:     data,
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return files, nil
}

func (l *Loader) fetchOne(ctx context.Context, url string) ([]byte, error) {
	if l.httpClient == nil {
		return nil, errors.New("http client is nil")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("empty photo body")
	}
	if len(data) > maxPhotoBytes {
		return nil, errors.New("photo too large")
	}

	return data, nil
}
