//go:build !gocv

package vision

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// findRects returns the bounding rectangles of connected edge components
func findRects(img *image.NRGBA, cfg DetectionConfig) []image.Rectangle {
	gray := imaging.Grayscale(img)
	edges := sobelEdges(gray, cfg.EdgeThreshold)
	for i := 0; i < cfg.DilateIterations; i++ {
		edges = dilate(edges)
	}
	return components(edges)
}

// edgeMap is a binary mask in row-major order
type edgeMap struct {
	width, height int
	on            []bool
}

func (m *edgeMap) at(x, y int) bool {
	return m.on[y*m.width+x]
}

// sobelEdges thresholds the Sobel gradient magnitude of a grayscale image.
// Pixels outside the image replicate the nearest border pixel.
func sobelEdges(gray *image.NRGBA, threshold float64) *edgeMap {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	m := &edgeMap{width: w, height: h, on: make([]bool, w*h)}

	lum := func(x, y int) float64 {
		x = clamp(x, 0, w-1)
		y = clamp(y, 0, h-1)
		return float64(gray.Pix[y*gray.Stride+x*4])
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := -lum(x-1, y-1) + lum(x+1, y-1) -
				2*lum(x-1, y) + 2*lum(x+1, y) -
				lum(x-1, y+1) + lum(x+1, y+1)
			gy := -lum(x-1, y-1) - 2*lum(x, y-1) - lum(x+1, y-1) +
				lum(x-1, y+1) + 2*lum(x, y+1) + lum(x+1, y+1)
			if math.Sqrt(gx*gx+gy*gy) > threshold {
				m.on[y*w+x] = true
			}
		}
	}
	return m
}

// dilate grows the mask by one pixel with a 3x3 kernel
func dilate(m *edgeMap) *edgeMap {
	out := &edgeMap{width: m.width, height: m.height, on: make([]bool, len(m.on))}
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			if !m.at(x, y) {
				continue
			}
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx >= 0 && nx < m.width && ny >= 0 && ny < m.height {
						out.on[ny*m.width+nx] = true
					}
				}
			}
		}
	}
	return out
}

// components flood fills 8-connected edge pixels and returns each
// component's bounding rectangle in scan order
func components(m *edgeMap) []image.Rectangle {
	visited := make([]bool, len(m.on))
	var rects []image.Rectangle
	var stack []image.Point

	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			if !m.at(x, y) || visited[y*m.width+x] {
				continue
			}

			minX, minY, maxX, maxY := x, y, x, y
			visited[y*m.width+x] = true
			stack = append(stack[:0], image.Point{X: x, Y: y})
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]

				minX, maxX = min(minX, p.X), max(maxX, p.X)
				minY, maxY = min(minY, p.Y), max(maxY, p.Y)

				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						nx, ny := p.X+dx, p.Y+dy
						if nx < 0 || nx >= m.width || ny < 0 || ny >= m.height {
							continue
						}
						idx := ny*m.width + nx
						if m.on[idx] && !visited[idx] {
							visited[idx] = true
							stack = append(stack, image.Point{X: nx, Y: ny})
						}
					}
				}
			}
			rects = append(rects, image.Rect(minX, minY, maxX+1, maxY+1))
		}
	}
	return rects
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
