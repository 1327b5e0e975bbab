package ocr

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/menta2k/ux-analyzer/pkg/client"
	"github.com/menta2k/ux-analyzer/pkg/detection"
	"github.com/menta2k/ux-analyzer/pkg/llamacpp"
	"github.com/menta2k/ux-analyzer/pkg/ollama"
)

// visionEngine reads text through a multimodal chat model
type visionEngine struct {
	name     string
	detector *detection.Detector
}

func newVisionEngine(cfg Config) (Engine, error) {
	vc, err := NewVisionClient(cfg)
	if err != nil {
		return nil, err
	}
	return NewVisionEngine(cfg.Backend, vc, cfg.Model, cfg.MaxSide), nil
}

// NewVisionClient builds the chat client for an ollama or llamacpp backend
func NewVisionClient(cfg Config) (client.VisionClient, error) {
	timeout := time.Duration(cfg.Timeout) * time.Second

	switch cfg.Backend {
	case BackendOllama:
		c, err := ollama.NewClient(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
		return c.WithTimeout(timeout), nil
	case BackendLlamaCpp:
		c, err := llamacpp.NewClient(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to create llamacpp client: %w", err)
		}
		return c.WithTimeout(timeout), nil
	default:
		return nil, fmt.Errorf("backend %q is not a vision model backend", cfg.Backend)
	}
}

// NewVisionEngine wraps any VisionClient as an Engine
func NewVisionEngine(name string, vc client.VisionClient, model string, maxSide int) Engine {
	return &visionEngine{
		name:     name,
		detector: detection.NewDetector(vc, model, detection.WithMaxSide(maxSide)),
	}
}

func (e *visionEngine) Name() string {
	return e.name + ":" + e.detector.Model()
}

// Recognize converts the model's normalized boxes to pixels of img
func (e *visionEngine) Recognize(ctx context.Context, img image.Image) ([]Span, error) {
	textSpans, err := e.detector.DetectText(ctx, img)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	spans := make([]Span, 0, len(textSpans))
	for _, s := range textSpans {
		px := s.Box.ToBounds(b.Dx(), b.Dy())
		spans = append(spans, Span{
			Text:       s.Text,
			Confidence: s.Confidence,
			Rect:       image.Rect(px.X, px.Y, px.Right(), px.Bottom()),
		})
	}
	return spans, nil
}

func (e *visionEngine) Close() error {
	return nil
}
