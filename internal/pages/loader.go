package pages

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/scribe/internal/backend"
)

// Fetcher is the subset of the job engine contract used for review pages.
type Fetcher interface {
	Page(ctx context.Context, jobID string, page int) (*backend.PageContent, error)
	Image(ctx context.Context, jobID string, page int) (string, error)
	SavePage(ctx context.Context, jobID string, page int, text string) error
}

// Loader performs the network side of page loads and saves.
type Loader struct {
	fetcher Fetcher
	logger  *slog.Logger
}

// NewLoader creates a Loader over the given fetcher.
func NewLoader(fetcher Fetcher, logger *slog.Logger) *Loader {
	return &Loader{
		fetcher: fetcher,
		logger:  logger.With("system", "pages"),
	}
}

// Fetch retrieves page text and page image concurrently and assembles a
// Record. Either failure fails the whole fetch.
func (l *Loader) Fetch(ctx context.Context, jobID string, page int) (*Record, error) {
	var (
		content *backend.PageContent
		img     Image
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		c, err := l.fetcher.Page(gctx, jobID, page)
		if err != nil {
			return fmt.Errorf("page %d text: %w", page, err)
		}
		content = c
		return nil
	})

	g.Go(func() error {
		encoded, err := l.fetcher.Image(gctx, jobID, page)
		if err != nil {
			return fmt.Errorf("page %d image: %w", page, err)
		}
		decoded, err := decodeImage(encoded)
		if err != nil {
			return fmt.Errorf("page %d image: %w", page, err)
		}
		img = decoded
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	l.logger.DebugContext(
		ctx, "page fetched",
		"job_id", jobID,
		"page", page,
		"image_type", img.ContentType,
		"width", img.Width,
		"height", img.Height,
	)

	return &Record{
		JobID:          jobID,
		PageNumber:     page,
		RawText:        content.RawText,
		TranslatedText: content.TranslatedText,
		FormData:       NormalizeForm(content.FormData),
		Image:          img,
	}, nil
}

// Save pushes text for a page. Local state is not refreshed from the engine.
func (l *Loader) Save(ctx context.Context, jobID string, page int, text string) error {
	if err := l.fetcher.SavePage(ctx, jobID, page, text); err != nil {
		return fmt.Errorf("save page %d: %w", page, err)
	}
	l.logger.InfoContext(ctx, "page saved", "job_id", jobID, "page", page, "length", len(text))
	return nil
}

// decodeImage accepts raw base64 or a data URI. Unknown bitmap formats keep
// their bytes with zero dimensions.
func decodeImage(encoded string) (Image, error) {
	payload := strings.TrimSpace(encoded)
	if payload == "" {
		return Image{}, nil
	}
	if strings.HasPrefix(payload, "data:") {
		if i := strings.Index(payload, ","); i >= 0 {
			payload = payload[i+1:]
		}
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %w", ErrImageDecode, err)
	}

	img := Image{
		Encoded:     encoded,
		Data:        data,
		ContentType: mimetype.Detect(data).String(),
	}

	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		img.Width = cfg.Width
		img.Height = cfg.Height
	}

	return img, nil
}
