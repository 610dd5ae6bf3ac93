// Package sharpness scores how much local intensity variation a frame region has.
//
// The score is the sum over every pixel of |max(neighbour gray) - gray|, using the
// 3x3 window around the pixel minus the pixel itself, clipped to the region. A flat
// region scores 0; a region full of hard edges scores high, which makes the sum a
// cheap focus measure for a detected object.
package sharpness

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

const bytesPerPixel = 4

// neighbors is the 3x3 window without its center
var neighbors = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// Estimator computes focus scores for rectangular frame regions
type Estimator struct{}

// New creates a new Estimator
func New() *Estimator {
	return &Estimator{}
}

// Estimate returns the sharpness score of region r of frame.
// r must already be clipped to the frame; an empty rectangle scores 0.
func (e *Estimator) Estimate(frame image.Image, r image.Rectangle) float64 {
	if frame == nil || r.Empty() {
		return 0
	}
	region := imaging.Crop(frame, r)
	b := region.Bounds()
	return EstimatePixels(region.Pix, b.Dx(), b.Dy())
}

// EstimatePixels scores a tightly packed RGBA buffer of width x height pixels.
//
// A channel byte whose index falls outside pix reads as 0 rather than failing.
// This only matters for truncated buffers but changes edge-pixel totals, so it is kept.
func EstimatePixels(pix []uint8, width, height int) float64 {
	if width <= 0 || height <= 0 {
		return 0
	}

	var total float64
	count := width * height
	for idx := 0; idx < count; idx++ {
		x, y := idx%width, idx/width
		g := gray(pix, idx*bytesPerPixel)

		best := 0.0
		found := false
		for _, off := range neighbors {
			nx, ny := x+off[0], y+off[1]
			if nx < 0 || nx >= width || ny < 0 || ny >= height {
				continue
			}
			ng := gray(pix, (ny*width+nx)*bytesPerPixel)
			if !found || ng > best {
				best = ng
				found = true
			}
		}
		if !found {
			continue
		}
		total += math.Abs(best - g)
	}
	return total
}

func gray(pix []uint8, i int) float64 {
	return (channel(pix, i) + channel(pix, i+1) + channel(pix, i+2)) / 3
}

func channel(pix []uint8, i int) float64 {
	if i < 0 || i >= len(pix) {
		return 0
	}
	return float64(pix[i])
}
