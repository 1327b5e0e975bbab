package types

import "fmt"

// RegionType identifies the structural band a Region represents
type RegionType string

const (
	RegionToolbar   RegionType = "toolbar"
	RegionContent   RegionType = "content"
	RegionStatusBar RegionType = "status_bar"
	RegionUnknown   RegionType = "unknown"
)

// ElementKind is the coarse shape classification of a detected element
type ElementKind string

const (
	ElementButton  ElementKind = "button"
	ElementControl ElementKind = "control"
	ElementUnknown ElementKind = "unknown"
)

// Bounds is an axis-aligned rectangle in pixel coordinates, origin top-left
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Center returns the center point of the bounds
func (b Bounds) Center() (int, int) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Area returns width*height
func (b Bounds) Area() int {
	return b.Width * b.Height
}

// Bottom returns the exclusive lower y edge
func (b Bounds) Bottom() int {
	return b.Y + b.Height
}

// Right returns the exclusive right x edge
func (b Bounds) Right() int {
	return b.X + b.Width
}

// Empty reports whether the bounds have no area
func (b Bounds) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// ContainsY reports whether y falls inside the half-open vertical range [Y, Y+Height)
func (b Bounds) ContainsY(y int) bool {
	return y >= b.Y && y < b.Bottom()
}

// Within reports whether b lies entirely inside a width x height image
func (b Bounds) Within(width, height int) bool {
	return !b.Empty() && b.X >= 0 && b.Y >= 0 && b.Right() <= width && b.Bottom() <= height
}

func (b Bounds) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", b.X, b.Y, b.Width, b.Height)
}

// Box represents a normalized bounding box with coordinates in [0,1] range
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// ToBounds converts a normalized box to pixel bounds for a width x height image
func (b Box) ToBounds(width, height int) Bounds {
	x0 := int(b.X*float64(width) + 0.5)
	y0 := int(b.Y*float64(height) + 0.5)
	x1 := int((b.X+b.W)*float64(width) + 0.5)
	y1 := int((b.Y+b.H)*float64(height) + 0.5)
	return Bounds{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// ColorSwatch is one dominant color and the fraction of sampled pixels it covers.
// RGB holds red, green, blue in that order.
type ColorSwatch struct {
	Hex       string  `json:"hex"`
	RGB       [3]int  `json:"rgb"`
	Frequency float64 `json:"frequency"`
}

// Element is a rectangular interactive-looking artifact found inside a region
type Element struct {
	Kind            ElementKind `json:"kind"`
	Bounds          Bounds      `json:"bounds"`
	AspectRatio     float64     `json:"aspect_ratio"`
	Area            int         `json:"area"`
	BackgroundColor string      `json:"background_color,omitempty"`
}

// Region is a horizontal structural band of the screenshot
type Region struct {
	Type            RegionType `json:"type"`
	Bounds          Bounds     `json:"bounds"`
	BackgroundColor string     `json:"background_color"`
	AverageColor    string     `json:"average_color,omitempty"`
	Elements        []Element  `json:"elements"`
}

// TextElement is one recognized text span
type TextElement struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Bounds     Bounds  `json:"bounds"`
}

// Dimensions holds the pixel size of the analyzed image
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Metadata describes the analyzed source
type Metadata struct {
	Source       string     `json:"source"`
	Format       string     `json:"format,omitempty"`
	Dimensions   Dimensions `json:"dimensions"`
	OCRAvailable bool       `json:"ocr_available"`
	OCREngine    string     `json:"ocr_engine,omitempty"`
	OCRError     string     `json:"ocr_error,omitempty"`
}

// AnalysisResult is the structured description of one screenshot
type AnalysisResult struct {
	Metadata     Metadata      `json:"metadata"`
	Colors       []ColorSwatch `json:"colors"`
	Regions      []Region      `json:"regions"`
	TextElements []TextElement `json:"text_elements"`
}
