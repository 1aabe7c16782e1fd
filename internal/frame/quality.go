// Package frame inspects a captured frame for conditions that make product
// identification unreliable. Its findings are advisory and never block analysis.
package frame

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// Thresholds controls when a metric raises a quality flag.
type Thresholds struct {
	BlurVariance     float64 // Laplacian variance at or below which the frame is blurry
	DarkLuminance    float64 // average luminance below which the frame is too dark
	BrightLuminance  float64 // average luminance above which the frame is overexposed
	WhiteBalanceSkew float64 // largest channel mean difference tolerated
	MaxSampleSide    int     // frames are subsampled to at most this many pixels per side
	MaxPixels        int64   // encoded frames declaring more pixels are not decoded; 0 disables
}

// ErrFrameTooLarge is returned by InspectBytes for frames over Thresholds.MaxPixels.
var ErrFrameTooLarge = errors.New("frame dimensions exceed inspection limit")

// DefaultThresholds are tuned for phone camera frames.
func DefaultThresholds() Thresholds {
	return Thresholds{
		BlurVariance:     100.0,
		DarkLuminance:    0.15,
		BrightLuminance:  0.95,
		WhiteBalanceSkew: 0.1,
		MaxSampleSide:    640,
		MaxPixels:        40_000_000,
	}
}

// Quality is attached to the analysis response as "frameQuality".
type Quality struct {
	Width          int        `json:"width"`
	Height         int        `json:"height"`
	LaplacianVar   float64    `json:"laplacianVariance"`
	AvgLuminance   float64    `json:"averageLuminance"`
	AvgSaturation  float64    `json:"averageSaturation"`
	ChannelBalance [3]float64 `json:"channelBalance"`

	Blurry      bool     `json:"blurry"`
	TooDark     bool     `json:"tooDark"`
	Overexposed bool     `json:"overexposed"`
	IncorrectWB bool     `json:"incorrectWhiteBalance"`
	Issues      []string `json:"issues,omitempty"`
}

// Inspector computes frame quality.
type Inspector struct {
	thresholds Thresholds
}

func NewInspector(thresholds Thresholds) *Inspector {
	return &Inspector{thresholds: thresholds}
}

// InspectBytes decodes an encoded frame (JPEG, PNG or GIF) and inspects it. The
// header is checked first so oversized frames are never allocated.
func (in *Inspector) InspectBytes(data []byte) (Quality, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Quality{}, fmt.Errorf("failed to decode frame header: %w", err)
	}
	if limit := in.thresholds.MaxPixels; limit > 0 && int64(cfg.Width)*int64(cfg.Height) > limit {
		return Quality{}, fmt.Errorf("%w: %dx%d", ErrFrameTooLarge, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Quality{}, fmt.Errorf("failed to decode frame: %w", err)
	}
	return in.Inspect(img), nil
}

// Inspect computes metrics on a (possibly subsampled) grayscale and color view.
func (in *Inspector) Inspect(img image.Image) Quality {
	bounds := img.Bounds()
	q := Quality{Width: bounds.Dx(), Height: bounds.Dy()}
	if q.Width == 0 || q.Height == 0 {
		return q
	}

	sampled := subsample(img, in.thresholds.MaxSampleSide)
	m := channelMetrics(sampled)
	gray := image.NewGray(sampled.Bounds())
	draw.Draw(gray, gray.Bounds(), sampled, sampled.Bounds().Min, draw.Src)

	q.LaplacianVar = laplacianVariance(gray)
	q.AvgLuminance = m.avgLuminance
	q.AvgSaturation = m.avgSaturation
	q.ChannelBalance = [3]float64{m.avgR, m.avgG, m.avgB}

	q.Blurry = q.LaplacianVar <= in.thresholds.BlurVariance
	q.TooDark = q.AvgLuminance < in.thresholds.DarkLuminance
	q.Overexposed = q.AvgLuminance > in.thresholds.BrightLuminance
	q.IncorrectWB = channelSkew(m.avgR, m.avgG, m.avgB) > in.thresholds.WhiteBalanceSkew

	if q.Blurry {
		q.Issues = append(q.Issues, "frame looks blurry; hold the camera steady")
	}
	if q.TooDark {
		q.Issues = append(q.Issues, "frame is too dark")
	}
	if q.Overexposed {
		q.Issues = append(q.Issues, "frame is overexposed")
	}
	return q
}

type metrics struct {
	avgLuminance, avgSaturation float64
	avgR, avgG, avgB            float64
}

// channelMetrics averages normalized RGB, HSV value and saturation, processing
// horizontal strips in parallel.
func channelMetrics(img image.Image) metrics {
	bounds := img.Bounds()
	height := bounds.Dy()

	numWorkers := min(runtime.NumCPU(), height)
	rowsPerWorker := (height + numWorkers - 1) / numWorkers

	type stripResult struct {
		lum, sat, r, g, b float64
		pixels            int
	}
	results := make([]stripResult, numWorkers)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		startY := bounds.Min.Y + i*rowsPerWorker
		endY := min(startY+rowsPerWorker, bounds.Max.Y)
		wg.Add(1)
		go func(i, startY, endY int) {
			defer wg.Done()
			var res stripResult
			for y := startY; y < endY; y++ {
				for x := bounds.Min.X; x < bounds.Max.X; x++ {
					rv, gv, bv, _ := img.At(x, y).RGBA()
					rf, gf, bf := float64(rv)/65535.0, float64(gv)/65535.0, float64(bv)/65535.0
					s, v := saturationValue(rf, gf, bf)
					res.sat += s
					res.lum += v
					res.r += rf
					res.g += gf
					res.b += bf
					res.pixels++
				}
			}
			results[i] = res
		}(i, startY, endY)
	}
	wg.Wait()

	var total stripResult
	for _, res := range results {
		total.lum += res.lum
		total.sat += res.sat
		total.r += res.r
		total.g += res.g
		total.b += res.b
		total.pixels += res.pixels
	}
	if total.pixels == 0 {
		return metrics{}
	}
	n := float64(total.pixels)
	return metrics{
		avgLuminance:  total.lum / n,
		avgSaturation: total.sat / n,
		avgR:          total.r / n,
		avgG:          total.g / n,
		avgB:          total.b / n,
	}
}

func saturationValue(r, g, b float64) (s, v float64) {
	hi := math.Max(math.Max(r, g), b)
	lo := math.Min(math.Min(r, g), b)
	if hi == 0 {
		return 0, 0
	}
	return (hi - lo) / hi, hi
}

// laplacianVariance uses the kernel [0 1 0; 1 -4 1; 0 1 0] on 0-255 intensities.
func laplacianVariance(gray *image.Gray) float64 {
	b := gray.Bounds()
	if b.Dx() < 3 || b.Dy() < 3 {
		return 0
	}
	data := make([]float64, 0, (b.Dx()-2)*(b.Dy()-2))
	for y := b.Min.Y + 1; y < b.Max.Y-1; y++ {
		for x := b.Min.X + 1; x < b.Max.X-1; x++ {
			center := float64(gray.GrayAt(x, y).Y)
			top := float64(gray.GrayAt(x, y-1).Y)
			bottom := float64(gray.GrayAt(x, y+1).Y)
			left := float64(gray.GrayAt(x-1, y).Y)
			right := float64(gray.GrayAt(x+1, y).Y)
			data = append(data, -4*center+top+bottom+left+right)
		}
	}
	return stat.Variance(data, nil)
}

func channelSkew(r, g, b float64) float64 {
	return math.Max(math.Abs(r-g), math.Max(math.Abs(r-b), math.Abs(g-b)))
}

// subsample returns img, or a nearest-neighbour copy whose longest side is maxSide.
func subsample(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	longest := max(b.Dx(), b.Dy())
	if maxSide <= 0 || longest <= maxSide {
		return img
	}
	scale := float64(longest) / float64(maxSide)
	w := max(1, int(float64(b.Dx())/scale))
	h := max(1, int(float64(b.Dy())/scale))

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		sy := b.Min.Y + int(float64(y)*scale)
		for x := 0; x < w; x++ {
			sx := b.Min.X + int(float64(x)*scale)
			out.Set(x, y, img.At(sx, sy))
		}
	}
	return out
}
