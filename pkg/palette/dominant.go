package palette

import (
	"image"

	"github.com/disintegration/imaging"
)

// ModeColor returns the most frequent color of img after resampling it to at
// most size x size pixels. On ties the color that reached the count first wins.
func ModeColor(img image.Image, size int) string {
	b := img.Bounds()
	if b.Empty() {
		return ""
	}
	w, h := b.Dx(), b.Dy()
	if w > size {
		w = size
	}
	if h > size {
		h = size
	}
	small := imaging.Resize(img, w, h, imaging.NearestNeighbor)

	counts := make(map[[3]uint8]int)
	var best [3]uint8
	bestCount := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := small.NRGBAAt(x, y)
			key := [3]uint8{c.R, c.G, c.B}
			counts[key]++
			if counts[key] > bestCount {
				best, bestCount = key, counts[key]
			}
		}
	}
	return Hex(best[0], best[1], best[2])
}

// AverageColor returns the mean color of img as #rrggbb
func AverageColor(img image.Image) string {
	if img.Bounds().Empty() {
		return ""
	}
	px := imaging.Resize(img, 1, 1, imaging.Box).NRGBAAt(0, 0)
	return Hex(px.R, px.G, px.B)
}
