package overlay

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/ux-analyzer/pkg/analyzer"
	"github.com/menta2k/ux-analyzer/pkg/types"
)

func createTestImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	return img
}

func sampleResult() *types.AnalysisResult {
	return &types.AnalysisResult{
		Regions: []types.Region{
			{Type: types.RegionToolbar, Bounds: types.Bounds{Width: 200, Height: 30}},
			{
				Type:   types.RegionContent,
				Bounds: types.Bounds{Y: 30, Width: 200, Height: 140},
				Elements: []types.Element{
					{Kind: types.ElementButton, Bounds: types.Bounds{X: 50, Y: 60, Width: 40, Height: 20}},
				},
			},
			{Type: types.RegionStatusBar, Bounds: types.Bounds{Y: 170, Width: 200, Height: 30}},
		},
		TextElements: []types.TextElement{
			{Text: "Save changes to the document now", Confidence: 0.9, Bounds: types.Bounds{X: 100, Y: 120, Width: 60, Height: 14}},
		},
	}
}

func TestRenderDoesNotMutateSource(t *testing.T) {
	src := createTestImage(200, 200)
	before := append([]uint8(nil), src.Pix...)

	out := New().Render(src, sampleResult())

	assert.Equal(t, before, src.Pix)
	assert.Equal(t, src.Bounds(), out.Bounds())
	assert.NotEqual(t, src.Pix, out.Pix)
}

func TestRenderStrokesAndColors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Labels = false
	out := NewWithConfig(cfg).Render(createTestImage(200, 200), sampleResult())

	assert.Equal(t, regionColors[types.RegionToolbar], out.NRGBAAt(100, 0))
	assert.Equal(t, regionColors[types.RegionToolbar], out.NRGBAAt(100, 1))
	assert.Equal(t, elementColors[types.ElementButton], out.NRGBAAt(50, 70))
	assert.Equal(t, textColor, out.NRGBAAt(100, 127))
}

func TestRenderKeepsInteriorWithoutLabels(t *testing.T) {
	src := createTestImage(200, 200)
	result := sampleResult()
	result.Regions[1].Elements = nil
	result.TextElements = nil

	cfg := DefaultConfig()
	cfg.Labels = false
	out := NewWithConfig(cfg).Render(src, result)

	for _, r := range result.Regions {
		s := cfg.RegionStroke
		for y := r.Bounds.Y + s; y < r.Bounds.Bottom()-s; y++ {
			for x := r.Bounds.X + s; x < r.Bounds.Right()-s; x++ {
				require.Equal(t, src.NRGBAAt(x, y), out.NRGBAAt(x, y), "pixel (%d,%d) inside %s changed", x, y, r.Type)
			}
		}
	}
}

func TestRenderDrawOrder(t *testing.T) {
	// an element sharing its top edge with the content region must stay visible
	result := sampleResult()
	result.Regions[1].Elements[0].Bounds = types.Bounds{X: 50, Y: 30, Width: 40, Height: 20}

	cfg := DefaultConfig()
	cfg.Labels = false
	out := NewWithConfig(cfg).Render(createTestImage(200, 200), result)

	assert.Equal(t, elementColors[types.ElementButton], out.NRGBAAt(60, 30))
}

func TestRenderLabels(t *testing.T) {
	result := sampleResult()

	withLabels := New().Render(createTestImage(200, 200), result)
	cfg := DefaultConfig()
	cfg.Labels = false
	without := NewWithConfig(cfg).Render(createTestImage(200, 200), result)

	assert.NotEqual(t, withLabels.Pix, without.Pix)
}

func TestRenderClipsOutOfBounds(t *testing.T) {
	result := &types.AnalysisResult{
		TextElements: []types.TextElement{{Text: "edge", Bounds: types.Bounds{X: 190, Y: -5, Width: 40, Height: 20}}},
	}

	assert.NotPanics(t, func() {
		New().Render(createTestImage(200, 200), result)
	})
	assert.NotPanics(t, func() {
		New().Render(createTestImage(10, 10), nil)
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 20))
	assert.Equal(t, "Save changes to the ", truncate("Save changes to the document now", 20))
	assert.Equal(t, "héllo", truncate("héllo wörld", 5))
}

func TestSave(t *testing.T) {
	v := New()
	out := v.Render(createTestImage(64, 64), sampleResult())

	path := filepath.Join(t.TempDir(), "overlay.png")
	require.NoError(t, v.Save(out, path))

	img, err := analyzer.New().LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Width())
	assert.Equal(t, "png", v.Format())
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Format = "gif"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.ElementStroke = 0
	assert.Error(t, cfg.Validate())
}
