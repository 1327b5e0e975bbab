package detection

import (
	"context"
	"image"
	"sort"
	"strings"

	"github.com/menta2k/ux-analyzer/pkg/client"
	"github.com/menta2k/ux-analyzer/pkg/types"
)

// SimpleTestPrompt for testing if the model can see images
const SimpleTestPrompt = `What do you see in this image? Describe it briefly.`

// DefaultPrompt asks a vision model to act as an OCR engine
const DefaultPrompt = `You are an OCR engine for user interface screenshots.

Return JSON only:
{
  "spans": [
    {"text": "string", "confidence": 0.0, "box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0}}
  ]
}

HARD RULES
- One span per word or short label exactly as rendered; keep original case.
- All coordinates are normalized to [0,1] (NOT pixels), origin top-left.
- The box must tightly enclose the glyphs of the span.
- confidence is your certainty in [0,1] that the text is transcribed correctly.
- Do not invent text that is not visible. If there is no text, return {"spans": []}.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// Detector reads text from screenshots through a vision model
type Detector struct {
	client  client.VisionClient
	model   string
	prompt  string
	maxSide int
	quality int
}

// Option tunes a Detector
type Option func(*Detector)

// WithPrompt replaces the transcription prompt
func WithPrompt(prompt string) Option {
	return func(d *Detector) {
		if strings.TrimSpace(prompt) != "" {
			d.prompt = prompt
		}
	}
}

// WithMaxSide limits the longest side of the image sent to the model
func WithMaxSide(maxSide int) Option {
	return func(d *Detector) { d.maxSide = maxSide }
}

// NewDetector creates a new detector with a vision client
func NewDetector(client client.VisionClient, model string, opts ...Option) *Detector {
	d := &Detector{
		client:  client,
		model:   model,
		prompt:  DefaultPrompt,
		maxSide: 1536,
		quality: 90,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Model returns the model name used for transcription
func (d *Detector) Model() string {
	return d.model
}

// DetectText transcribes img and returns spans with boxes clamped to [0,1].
// Pixel boxes are read in the frame of the downscaled image the model saw.
// Spans with blank text or a degenerate box are dropped.
func (d *Detector) DetectText(ctx context.Context, img image.Image) ([]types.TextSpan, error) {
	sent := fitForModel(img, d.maxSide)
	imgB64, err := encodeForModel(sent, "jpeg", d.quality)
	if err != nil {
		return nil, err
	}

	readout, err := d.client.ReadText(ctx, d.model, d.prompt, imgB64)
	if err != nil {
		return nil, err
	}

	b := sent.Bounds()
	spans := make([]types.TextSpan, 0, len(readout.Spans))
	for _, s := range readout.Spans {
		s.Text = strings.TrimSpace(s.Text)
		if s.Text == "" {
			continue
		}
		s.Box = normalizeBox(s.Box, b.Dx(), b.Dy())
		if s.Box.W <= 0 || s.Box.H <= 0 {
			continue
		}
		s.Confidence = clamp(s.Confidence, 0, 1)
		spans = append(spans, s)
	}

	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].Box.Y != spans[j].Box.Y {
			return spans[i].Box.Y < spans[j].Box.Y
		}
		return spans[i].Box.X < spans[j].Box.X
	})
	return spans, nil
}

// TestVision tests if the model can actually see the image with a simple prompt
func (d *Detector) TestVision(ctx context.Context, img image.Image) (string, error) {
	imgB64, err := PrepareImageForModel(img, "jpeg", d.maxSide, d.quality)
	if err != nil {
		return "", err
	}
	return d.client.SimpleQuery(ctx, d.model, SimpleTestPrompt, imgB64)
}

// clamp ensures a value is within the given bounds
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// normalizeBox converts pixel boxes to normalized form when any coordinate
// exceeds 1 and clips the result to the unit square
func normalizeBox(b types.Box, imgW, imgH int) types.Box {
	if imgW > 0 && imgH > 0 && (b.X > 1 || b.Y > 1 || b.W > 1 || b.H > 1) {
		b = types.Box{
			X: b.X / float64(imgW),
			Y: b.Y / float64(imgH),
			W: b.W / float64(imgW),
			H: b.H / float64(imgH),
		}
	}

	x0, y0 := clamp(b.X, 0, 1), clamp(b.Y, 0, 1)
	x1, y1 := clamp(b.X+b.W, 0, 1), clamp(b.Y+b.H, 0, 1)
	return types.Box{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}
