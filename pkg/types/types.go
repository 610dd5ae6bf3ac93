package types

import (
	"image"
	"math"
)

// Box represents a normalized bounding box with coordinates in [0,1] range
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// ToPixels converts the normalized box to frame pixel coordinates
func (b Box) ToPixels(width, height int) (x, y, w, h float64) {
	fw, fh := float64(width), float64(height)
	return b.X * fw, b.Y * fh, b.W * fw, b.H * fh
}

// BoundingBox is a single detection in frame pixel coordinates
type BoundingBox struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Rect returns the box as an integer rectangle. Negative sizes give an empty rectangle.
func (b BoundingBox) Rect() image.Rectangle {
	x0 := int(math.Round(b.X))
	y0 := int(math.Round(b.Y))
	x1 := int(math.Round(b.X + b.Width))
	y1 := int(math.Round(b.Y + b.Height))
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}
	return image.Rect(x0, y0, x1, y1)
}

// Clamp returns the box rectangle clipped to bounds
func (b BoundingBox) Clamp(bounds image.Rectangle) image.Rectangle {
	return b.Rect().Intersect(bounds)
}

// DetectedObject is one object reported by a vision model
type DetectedObject struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// DetectionResult contains the complete detection reply from the vision model
type DetectionResult struct {
	Objects []DetectedObject `json:"objects"`
}

// OutputOptions controls how annotated frames are written
type OutputOptions struct {
	Dir      string
	Format   string
	Quality  int
	Lossless bool
}
