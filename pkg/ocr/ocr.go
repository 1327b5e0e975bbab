// Package ocr turns recognized text spans into TextElements. Recognition is
// delegated to an Engine; whether one could be built is decided once, when
// the Extractor is constructed.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sort"
	"strings"

	"github.com/menta2k/ux-analyzer/pkg/types"
)

// Backend names
const (
	BackendTesseract = "tesseract"
	BackendOllama    = "ollama"
	BackendLlamaCpp  = "llamacpp"
	BackendNone      = "none"
)

// Capability is the name used in CapabilityError values from this package
const Capability = "ocr"

// ErrDisabled is the reason reported when OCR is switched off in configuration
var ErrDisabled = errors.New("disabled by configuration")

// Config selects and tunes the OCR backend
type Config struct {
	Enabled       bool     `json:"enabled" yaml:"enabled"`
	Backend       string   `json:"backend" yaml:"backend"`
	MinConfidence float64  `json:"min_confidence" yaml:"min_confidence"`
	Languages     []string `json:"languages" yaml:"languages"`
	Model         string   `json:"model" yaml:"model"`
	URL           string   `json:"url" yaml:"url"`
	MaxSide       int      `json:"max_side" yaml:"max_side"`
	Timeout       int      `json:"timeout" yaml:"timeout"` // seconds
}

// DefaultConfig returns the OCR defaults
func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		Backend:       BackendTesseract,
		MinConfidence: 0.5,
		Languages:     []string{"eng"},
		Model:         "minicpm-v",
		URL:           "http://localhost:11434",
		MaxSide:       1536,
		Timeout:       300,
	}
}

// Validate checks the OCR configuration
func (c Config) Validate() error {
	switch c.Backend {
	case BackendTesseract, BackendOllama, BackendLlamaCpp, BackendNone:
	default:
		return types.NewConfigError("ocr.backend", "must be one of tesseract, ollama, llamacpp, none; got %q", c.Backend)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return types.NewConfigError("ocr.min_confidence", "must be in [0,1], got %g", c.MinConfidence)
	}
	if c.Backend == BackendTesseract && len(c.Languages) == 0 {
		return types.NewConfigError("ocr.languages", "cannot be empty for the tesseract backend")
	}
	if c.Backend == BackendOllama && strings.TrimSpace(c.Model) == "" {
		return types.NewConfigError("ocr.model", "is required for the ollama backend")
	}
	if c.MaxSide < 0 {
		return types.NewConfigError("ocr.max_side", "must not be negative, got %d", c.MaxSide)
	}
	if c.Timeout < 0 {
		return types.NewConfigError("ocr.timeout", "must not be negative, got %d", c.Timeout)
	}
	return nil
}

// Span is one recognized piece of text in pixel coordinates of the image
// passed to Recognize. Confidence is in [0,1].
type Span struct {
	Text       string
	Confidence float64
	Rect       image.Rectangle
}

// Engine performs the actual recognition
type Engine interface {
	Name() string
	Recognize(ctx context.Context, img image.Image) ([]Span, error)
	Close() error
}

// NewEngine builds the engine named by cfg.Backend. A disabled or
// unbuildable backend yields a *types.CapabilityError.
func NewEngine(cfg Config) (Engine, error) {
	if !cfg.Enabled || cfg.Backend == BackendNone {
		return nil, &types.CapabilityError{Capability: Capability, Err: ErrDisabled}
	}

	var (
		engine Engine
		err    error
	)
	switch cfg.Backend {
	case BackendTesseract:
		engine, err = newTesseract(cfg)
	case BackendOllama, BackendLlamaCpp:
		engine, err = newVisionEngine(cfg)
	default:
		err = fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	if err != nil {
		var capErr *types.CapabilityError
		if errors.As(err, &capErr) {
			return nil, err
		}
		return nil, &types.CapabilityError{Capability: Capability, Err: err}
	}
	return engine, nil
}

// Extractor filters and normalizes engine output
type Extractor struct {
	engine        Engine
	reason        error
	minConfidence float64
}

// New creates an Extractor for cfg. When no engine can be built the
// Extractor is still usable: Available reports false and Extract returns
// an empty list together with the reason.
func New(cfg Config) *Extractor {
	engine, err := NewEngine(cfg)
	return &Extractor{engine: engine, reason: err, minConfidence: cfg.MinConfidence}
}

// NewWithEngine wraps an existing engine. A nil engine is unavailable.
func NewWithEngine(engine Engine, minConfidence float64) *Extractor {
	x := &Extractor{engine: engine, minConfidence: minConfidence}
	if engine == nil {
		x.reason = &types.CapabilityError{Capability: Capability, Err: errors.New("no engine configured")}
	}
	return x
}

// Available reports whether an engine was built
func (x *Extractor) Available() bool {
	return x.engine != nil
}

// EngineName returns the engine name, or "" when unavailable
func (x *Extractor) EngineName() string {
	if x.engine == nil {
		return ""
	}
	return x.engine.Name()
}

// Reason returns why the Extractor is unavailable, or nil
func (x *Extractor) Reason() error {
	return x.reason
}

// Extract recognizes text in img. Spans below the minimum confidence, with
// blank text, or lying outside the image are omitted. The result is ordered
// top to bottom, then left to right, and is never nil. Every error is a
// *types.CapabilityError so callers can keep the rest of the analysis.
func (x *Extractor) Extract(ctx context.Context, img image.Image) ([]types.TextElement, error) {
	texts := make([]types.TextElement, 0)
	if x.engine == nil {
		return texts, x.reason
	}

	spans, err := x.engine.Recognize(ctx, img)
	if err != nil {
		return texts, &types.CapabilityError{Capability: Capability, Err: fmt.Errorf("%s: %w", x.engine.Name(), err)}
	}

	b := img.Bounds()
	frame := image.Rect(0, 0, b.Dx(), b.Dy())
	for _, s := range spans {
		text := strings.TrimSpace(s.Text)
		if text == "" || s.Confidence < x.minConfidence {
			continue
		}
		r := s.Rect.Canon().Intersect(frame)
		if r.Empty() {
			continue
		}
		texts = append(texts, types.TextElement{
			Text:       text,
			Confidence: min(s.Confidence, 1),
			Bounds:     types.Bounds{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()},
		})
	}

	sort.SliceStable(texts, func(i, j int) bool {
		a, b := texts[i].Bounds, texts[j].Bounds
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	return texts, nil
}

// Close releases the engine
func (x *Extractor) Close() error {
	if x.engine == nil {
		return nil
	}
	return x.engine.Close()
}
