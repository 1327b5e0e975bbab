//go:build ocr

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// tesseractEngine runs Tesseract through its C API. A gosseract client is
// not safe for concurrent use, so calls are serialized.
type tesseractEngine struct {
	mu     sync.Mutex
	client *gosseract.Client
}

func newTesseract(cfg Config) (Engine, error) {
	c := gosseract.NewClient()
	if err := c.SetLanguage(cfg.Languages...); err != nil {
		c.Close()
		return nil, fmt.Errorf("tesseract languages %v: %w", cfg.Languages, err)
	}
	// tesseract initializes lazily; a blank probe forces init errors here
	var probe bytes.Buffer
	if err := png.Encode(&probe, image.NewGray(image.Rect(0, 0, 8, 8))); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.SetImageFromBytes(probe.Bytes()); err != nil {
		c.Close()
		return nil, fmt.Errorf("tesseract probe: %w", err)
	}
	if _, err := c.Text(); err != nil {
		c.Close()
		return nil, fmt.Errorf("tesseract is not usable: %w", err)
	}
	return &tesseractEngine{client: c}, nil
}

func (e *tesseractEngine) Name() string {
	return "tesseract " + e.client.Version()
}

// Recognize returns one span per word with Tesseract's 0-100 confidence scaled to [0,1]
func (e *tesseractEngine) Recognize(ctx context.Context, img image.Image) ([]Span, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image for tesseract: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}
	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("tesseract recognition failed: %w", err)
	}

	spans := make([]Span, 0, len(boxes))
	for _, b := range boxes {
		spans = append(spans, Span{
			Text:       b.Word,
			Confidence: b.Confidence / 100,
			Rect:       b.Box,
		})
	}
	return spans, nil
}

func (e *tesseractEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.client.Close()
}
