package detection

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/ux-analyzer/pkg/types"
)

type stubClient struct {
	readout *types.TextReadout
	err     error
	answer  string

	gotModel  string
	gotPrompt string
	gotImage  string
}

func (s *stubClient) SimpleQuery(_ context.Context, model, prompt, imgB64 string) (string, error) {
	s.gotModel, s.gotPrompt, s.gotImage = model, prompt, imgB64
	return s.answer, s.err
}

func (s *stubClient) ReadText(_ context.Context, model, prompt, imgB64 string) (*types.TextReadout, error) {
	s.gotModel, s.gotPrompt, s.gotImage = model, prompt, imgB64
	return s.readout, s.err
}

func TestDetectText(t *testing.T) {
	stub := &stubClient{readout: &types.TextReadout{Spans: []types.TextSpan{
		{Text: "  Cancel ", Confidence: 0.8, Box: types.Box{X: 0.6, Y: 0.9, W: 0.1, H: 0.05}},
		{Text: "File", Confidence: 1.4, Box: types.Box{X: 0.01, Y: 0.01, W: 0.05, H: 0.03}},
		{Text: "   ", Confidence: 0.9, Box: types.Box{X: 0.2, Y: 0.2, W: 0.1, H: 0.1}},
		{Text: "ghost", Confidence: 0.9, Box: types.Box{X: 0.5, Y: 0.5, W: 0, H: 0.1}},
	}}}

	d := NewDetector(stub, "minicpm-v")
	spans, err := d.DetectText(context.Background(), image.NewNRGBA(image.Rect(0, 0, 200, 100)))
	require.NoError(t, err)

	require.Len(t, spans, 2)
	assert.Equal(t, "File", spans[0].Text)
	assert.Equal(t, 1.0, spans[0].Confidence)
	assert.Equal(t, "Cancel", spans[1].Text)
	assert.Equal(t, "minicpm-v", stub.gotModel)
	assert.Equal(t, DefaultPrompt, stub.gotPrompt)
	assert.NotEmpty(t, stub.gotImage)
}

func TestDetectTextPixelBoxesOnDownscaledImage(t *testing.T) {
	// the model sees a 400x200 copy and answers in that frame
	stub := &stubClient{readout: &types.TextReadout{Spans: []types.TextSpan{
		{Text: "Center", Confidence: 0.9, Box: types.Box{X: 200, Y: 100, W: 40, H: 20}},
	}}}

	d := NewDetector(stub, "m", WithMaxSide(400))
	spans, err := d.DetectText(context.Background(), image.NewNRGBA(image.Rect(0, 0, 800, 400)))
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(stub.gotImage)
	require.NoError(t, err)
	sent, err := jpeg.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 400, 200), sent.Bounds())

	require.Len(t, spans, 1)
	box := spans[0].Box
	assert.InDelta(t, 0.5, box.X, 1e-9)
	assert.InDelta(t, 0.5, box.Y, 1e-9)
	assert.InDelta(t, 0.1, box.W, 1e-9)
	assert.InDelta(t, 0.1, box.H, 1e-9)
}

func TestDetectTextError(t *testing.T) {
	stub := &stubClient{err: errors.New("connection refused")}

	_, err := NewDetector(stub, "m").DetectText(context.Background(), image.NewNRGBA(image.Rect(0, 0, 10, 10)))
	assert.ErrorContains(t, err, "connection refused")
}

func TestWithPrompt(t *testing.T) {
	stub := &stubClient{readout: &types.TextReadout{}}
	d := NewDetector(stub, "m", WithPrompt("read everything"), WithMaxSide(64))

	_, err := d.DetectText(context.Background(), image.NewNRGBA(image.Rect(0, 0, 10, 10)))
	require.NoError(t, err)
	assert.Equal(t, "read everything", stub.gotPrompt)
	assert.Equal(t, 64, d.maxSide)

	assert.Equal(t, DefaultPrompt, NewDetector(stub, "m", WithPrompt("  ")).prompt)
}

func TestTestVision(t *testing.T) {
	stub := &stubClient{answer: "a dialog"}
	answer, err := NewDetector(stub, "m").TestVision(context.Background(), image.NewNRGBA(image.Rect(0, 0, 8, 8)))
	require.NoError(t, err)
	assert.Equal(t, "a dialog", answer)
	assert.Equal(t, SimpleTestPrompt, stub.gotPrompt)
}

func TestNormalizeBox(t *testing.T) {
	// sizes are those of the image sent to the model
	tests := []struct {
		name string
		in   types.Box
		w, h int
		want types.Box
	}{
		{name: "already normalized", in: types.Box{X: 0.1, Y: 0.2, W: 0.3, H: 0.4}, w: 200, h: 100, want: types.Box{X: 0.1, Y: 0.2, W: 0.3, H: 0.4}},
		{name: "pixels", in: types.Box{X: 50, Y: 25, W: 100, H: 50}, w: 200, h: 100, want: types.Box{X: 0.25, Y: 0.25, W: 0.5, H: 0.5}},
		{name: "pixels in downscaled frame", in: types.Box{X: 768, Y: 432, W: 100, H: 40}, w: 1536, h: 864, want: types.Box{X: 0.5, Y: 0.5, W: 100.0 / 1536, H: 40.0 / 864}},
		{name: "overflow clipped", in: types.Box{X: 0.9, Y: 0.9, W: 0.5, H: 0.5}, w: 200, h: 100, want: types.Box{X: 0.9, Y: 0.9, W: 0.1, H: 0.1}},
		{name: "negative origin", in: types.Box{X: -0.1, Y: 0, W: 0.3, H: 0.1}, w: 200, h: 100, want: types.Box{X: 0, Y: 0, W: 0.2, H: 0.1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeBox(tt.in, tt.w, tt.h)
			assert.InDelta(t, tt.want.X, got.X, 1e-9)
			assert.InDelta(t, tt.want.Y, got.Y, 1e-9)
			assert.InDelta(t, tt.want.W, got.W, 1e-9)
			assert.InDelta(t, tt.want.H, got.H, 1e-9)
		})
	}
}

func TestPrepareImageForModel(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 400, 200))

	encoded, err := PrepareImageForModel(img, "jpeg", 100, 80)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	decoded, err := jpeg.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 100, decoded.Bounds().Dx())
	assert.Equal(t, 50, decoded.Bounds().Dy())

	_, err = PrepareImageForModel(img, "png", 0, 0)
	assert.NoError(t, err)
}

func TestFitForModel(t *testing.T) {
	small := image.NewNRGBA(image.Rect(0, 0, 300, 200))
	assert.Same(t, small, fitForModel(small, 400))
	assert.Same(t, small, fitForModel(small, 0))

	assert.Equal(t, image.Rect(0, 0, 1536, 864), fitForModel(image.NewNRGBA(image.Rect(0, 0, 3072, 1728)), 1536).Bounds())
	assert.Equal(t, image.Rect(0, 0, 100, 200), fitForModel(image.NewNRGBA(image.Rect(0, 0, 300, 600)), 200).Bounds())
}
