// Package palette extracts the dominant colors of an image with a seeded
// k-means clustering over RGB samples.
package palette

import (
	"image"
	"math"
	"math/rand"
	"sort"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/menta2k/ux-analyzer/pkg/types"
)

// Config controls the clustering
type Config struct {
	K             int     `json:"k" yaml:"k"`
	SampleSize    int     `json:"sample_size" yaml:"sample_size"`
	MaxIterations int     `json:"max_iterations" yaml:"max_iterations"`
	Epsilon       float64 `json:"epsilon" yaml:"epsilon"`
	Attempts      int     `json:"attempts" yaml:"attempts"`
	Seed          int64   `json:"seed" yaml:"seed"`
}

// DefaultConfig returns the palette defaults
func DefaultConfig() Config {
	return Config{
		K:             5,
		SampleSize:    200,
		MaxIterations: 100,
		Epsilon:       0.2,
		Attempts:      3,
		Seed:          42,
	}
}

// Validate checks the palette configuration
func (c Config) Validate() error {
	if c.K < 1 {
		return types.NewConfigError("palette.k", "must be at least 1, got %d", c.K)
	}
	if c.SampleSize < 1 {
		return types.NewConfigError("palette.sample_size", "must be positive, got %d", c.SampleSize)
	}
	if c.MaxIterations < 1 {
		return types.NewConfigError("palette.max_iterations", "must be positive, got %d", c.MaxIterations)
	}
	if c.Epsilon < 0 {
		return types.NewConfigError("palette.epsilon", "must not be negative, got %g", c.Epsilon)
	}
	if c.Attempts < 1 {
		return types.NewConfigError("palette.attempts", "must be positive, got %d", c.Attempts)
	}
	return nil
}

// Extractor computes color palettes
type Extractor struct {
	config Config
}

// New creates an Extractor with default configuration
func New() *Extractor {
	return &Extractor{config: DefaultConfig()}
}

// NewWithConfig creates an Extractor with custom configuration
func NewWithConfig(config Config) *Extractor {
	return &Extractor{config: config}
}

type rgb [3]float64

// Extract returns exactly K swatches sorted by descending frequency. Images
// with fewer distinct colors than K yield duplicate centroids.
func (e *Extractor) Extract(img image.Image) []types.ColorSwatch {
	samples := e.sample(img)
	if len(samples) == 0 {
		return make([]types.ColorSwatch, 0)
	}

	var (
		best        []rgb
		bestCounts  []int
		bestInertia = math.Inf(1)
	)
	for attempt := 0; attempt < e.config.Attempts; attempt++ {
		rng := rand.New(rand.NewSource(e.config.Seed + int64(attempt)))
		centers, counts, inertia := kmeans(samples, e.config.K, e.config.MaxIterations, e.config.Epsilon, rng)
		if inertia < bestInertia {
			best, bestCounts, bestInertia = centers, counts, inertia
		}
	}

	swatches := make([]types.ColorSwatch, len(best))
	for i, c := range best {
		r, g, b := clampByte(c[0]), clampByte(c[1]), clampByte(c[2])
		swatches[i] = types.ColorSwatch{
			Hex:       Hex(r, g, b),
			RGB:       [3]int{int(r), int(g), int(b)},
			Frequency: float64(bestCounts[i]) / float64(len(samples)),
		}
	}

	sort.SliceStable(swatches, func(i, j int) bool {
		if swatches[i].Frequency != swatches[j].Frequency {
			return swatches[i].Frequency > swatches[j].Frequency
		}
		return swatches[i].Hex < swatches[j].Hex
	})
	return swatches
}

// sample downsamples with nearest-neighbour so no blended colors are introduced
func (e *Extractor) sample(img image.Image) []rgb {
	small := imaging.Fit(img, e.config.SampleSize, e.config.SampleSize, imaging.NearestNeighbor)
	bounds := small.Bounds()

	samples := make([]rgb, 0, bounds.Dx()*bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := small.NRGBAAt(x, y)
			samples = append(samples, rgb{float64(c.R), float64(c.G), float64(c.B)})
		}
	}
	return samples
}

// kmeans runs Lloyd iterations from a k-means++ seeding. It returns the
// centroids, the number of samples assigned to each and the final inertia.
func kmeans(samples []rgb, k, maxIter int, eps float64, rng *rand.Rand) ([]rgb, []int, float64) {
	centers := seedPlusPlus(samples, k, rng)
	labels := make([]int, len(samples))
	counts := make([]int, k)

	for iter := 0; iter < maxIter; iter++ {
		for i, s := range samples {
			labels[i], _ = nearest(centers, s)
		}

		sums := make([]rgb, k)
		for i := range counts {
			counts[i] = 0
		}
		for i, s := range samples {
			l := labels[i]
			counts[l]++
			sums[l][0] += s[0]
			sums[l][1] += s[1]
			sums[l][2] += s[2]
		}

		shift := 0.0
		for c := range centers {
			// empty clusters keep their previous centroid
			if counts[c] == 0 {
				continue
			}
			n := float64(counts[c])
			next := rgb{sums[c][0] / n, sums[c][1] / n, sums[c][2] / n}
			shift = math.Max(shift, math.Sqrt(dist2(next, centers[c])))
			centers[c] = next
		}
		if shift <= eps {
			break
		}
	}

	inertia := 0.0
	for i := range counts {
		counts[i] = 0
	}
	for i, s := range samples {
		l, d := nearest(centers, s)
		labels[i] = l
		counts[l]++
		inertia += d
	}
	return centers, counts, inertia
}

func seedPlusPlus(samples []rgb, k int, rng *rand.Rand) []rgb {
	centers := make([]rgb, 0, k)
	centers = append(centers, samples[rng.Intn(len(samples))])

	weights := make([]float64, len(samples))
	for len(centers) < k {
		total := 0.0
		for i, s := range samples {
			_, d := nearest(centers, s)
			weights[i] = d
			total += d
		}
		if total == 0 {
			// every sample already coincides with a centroid
			centers = append(centers, samples[rng.Intn(len(samples))])
			continue
		}
		target := rng.Float64() * total
		idx := len(samples) - 1
		for i, w := range weights {
			target -= w
			if target <= 0 {
				idx = i
				break
			}
		}
		centers = append(centers, samples[idx])
	}
	return centers
}

func nearest(centers []rgb, s rgb) (int, float64) {
	best, bestDist := 0, math.Inf(1)
	for i, c := range centers {
		if d := dist2(c, s); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}

func dist2(a, b rgb) float64 {
	dr, dg, db := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return dr*dr + dg*dg + db*db
}

func clampByte(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// Hex formats an RGB triple as #rrggbb
func Hex(r, g, b uint8) string {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}.Hex()
}
