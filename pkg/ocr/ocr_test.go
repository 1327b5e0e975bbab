package ocr

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/ux-analyzer/pkg/types"
)

type fakeEngine struct {
	spans  []Span
	err    error
	closed bool
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Recognize(context.Context, image.Image) ([]Span, error) {
	return f.spans, f.err
}

func (f *fakeEngine) Close() error {
	f.closed = true
	return nil
}

type stubVision struct {
	readout *types.TextReadout
}

func (s *stubVision) SimpleQuery(context.Context, string, string, string) (string, error) {
	return "", nil
}

func (s *stubVision) ReadText(context.Context, string, string, string) (*types.TextReadout, error) {
	return s.readout, nil
}

func TestExtractFiltersAndNormalizes(t *testing.T) {
	engine := &fakeEngine{spans: []Span{
		{Text: "Status: ready", Confidence: 0.9, Rect: image.Rect(10, 90, 80, 98)},
		{Text: "File", Confidence: 0.95, Rect: image.Rect(5, 2, 25, 12)},
		{Text: "blurry", Confidence: 0.2, Rect: image.Rect(30, 40, 60, 50)},
		{Text: "  ", Confidence: 0.99, Rect: image.Rect(30, 40, 60, 50)},
		{Text: "offscreen", Confidence: 0.99, Rect: image.Rect(500, 500, 520, 510)},
		{Text: "Edge", Confidence: 0.8, Rect: image.Rect(190, 50, 230, 60)},
		{Text: "Flipped", Confidence: 0.7, Rect: image.Rect(60, 30, 40, 20)},
	}}

	x := NewWithEngine(engine, 0.5)
	require.True(t, x.Available())
	assert.Equal(t, "fake", x.EngineName())

	texts, err := x.Extract(context.Background(), image.NewNRGBA(image.Rect(0, 0, 200, 100)))
	require.NoError(t, err)

	require.Len(t, texts, 4)
	assert.Equal(t, "File", texts[0].Text)
	assert.Equal(t, types.Bounds{X: 5, Y: 2, Width: 20, Height: 10}, texts[0].Bounds)
	assert.Equal(t, "Flipped", texts[1].Text)
	assert.Equal(t, types.Bounds{X: 40, Y: 20, Width: 20, Height: 10}, texts[1].Bounds)
	assert.Equal(t, "Edge", texts[2].Text)
	assert.Equal(t, types.Bounds{X: 190, Y: 50, Width: 10, Height: 10}, texts[2].Bounds)
	assert.Equal(t, "Status: ready", texts[3].Text)

	for _, txt := range texts {
		assert.GreaterOrEqual(t, txt.Confidence, 0.5)
		assert.True(t, txt.Bounds.Within(200, 100))
	}
}

func TestExtractEngineFailureIsCapabilityError(t *testing.T) {
	x := NewWithEngine(&fakeEngine{err: errors.New("engine crashed")}, 0.5)

	texts, err := x.Extract(context.Background(), image.NewNRGBA(image.Rect(0, 0, 10, 10)))
	require.Error(t, err)
	assert.NotNil(t, texts)
	assert.Empty(t, texts)
	assert.True(t, errors.Is(err, types.ErrCapabilityUnavailable))
	assert.Contains(t, err.Error(), "engine crashed")
}

func TestDisabledExtractor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false

	x := New(cfg)
	assert.False(t, x.Available())
	assert.Equal(t, "", x.EngineName())
	assert.True(t, errors.Is(x.Reason(), ErrDisabled))

	texts, err := x.Extract(context.Background(), image.NewNRGBA(image.Rect(0, 0, 10, 10)))
	assert.Empty(t, texts)
	assert.True(t, errors.Is(err, types.ErrCapabilityUnavailable))
	assert.NoError(t, x.Close())
}

func TestBackendNoneIsUnavailable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = BackendNone

	engine, err := NewEngine(cfg)
	assert.Nil(t, engine)

	var capErr *types.CapabilityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, Capability, capErr.Capability)
}

func TestNilEngine(t *testing.T) {
	x := NewWithEngine(nil, 0.5)
	assert.False(t, x.Available())
	assert.Error(t, x.Reason())
}

func TestVisionEngine(t *testing.T) {
	stub := &stubVision{readout: &types.TextReadout{Spans: []types.TextSpan{
		{Text: "Save", Confidence: 0.9, Box: types.Box{X: 0.5, Y: 0.5, W: 0.25, H: 0.1}},
	}}}

	engine := NewVisionEngine(BackendOllama, stub, "minicpm-v", 0)
	assert.Equal(t, "ollama:minicpm-v", engine.Name())

	x := NewWithEngine(engine, 0.5)
	texts, err := x.Extract(context.Background(), image.NewNRGBA(image.Rect(0, 0, 200, 100)))
	require.NoError(t, err)
	require.Len(t, texts, 1)
	assert.Equal(t, types.Bounds{X: 100, Y: 50, Width: 50, Height: 10}, texts[0].Bounds)
}

func TestNewEngineVisionBackends(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = BackendLlamaCpp
	cfg.URL = "http://127.0.0.1:8080"

	engine, err := NewEngine(cfg)
	require.NoError(t, err)
	assert.Equal(t, "llamacpp:minicpm-v", engine.Name())

	cfg.Backend = BackendOllama
	cfg.URL = "::bad"
	_, err = NewEngine(cfg)
	assert.True(t, errors.Is(err, types.ErrCapabilityUnavailable))
}

func TestNewVisionClient(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = BackendOllama

	vc, err := NewVisionClient(cfg)
	require.NoError(t, err)
	assert.NotNil(t, vc)

	cfg.Backend = BackendTesseract
	_, err = NewVisionClient(cfg)
	assert.Error(t, err)
}

func TestClose(t *testing.T) {
	engine := &fakeEngine{}
	require.NoError(t, NewWithEngine(engine, 0).Close())
	assert.True(t, engine.closed)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{name: "backend", mutate: func(c *Config) { c.Backend = "paddle" }, field: "ocr.backend"},
		{name: "confidence", mutate: func(c *Config) { c.MinConfidence = 1.5 }, field: "ocr.min_confidence"},
		{name: "languages", mutate: func(c *Config) { c.Languages = nil }, field: "ocr.languages"},
		{name: "model", mutate: func(c *Config) { c.Backend = BackendOllama; c.Model = "" }, field: "ocr.model"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			var cfgErr *types.ConfigurationError
			require.True(t, errors.As(cfg.Validate(), &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}
