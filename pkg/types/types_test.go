package types

import (
	"image"
	"testing"
)

func TestBoxToPixels(t *testing.T) {
	b := Box{X: 0.25, Y: 0.5, W: 0.5, H: 0.25}
	x, y, w, h := b.ToPixels(640, 480)
	if x != 160 || y != 240 || w != 320 || h != 120 {
		t.Errorf("Expected 160,240 320x120, got %v,%v %vx%v", x, y, w, h)
	}
}

func TestBoundingBoxRect(t *testing.T) {
	b := BoundingBox{X: 10.4, Y: 20.6, Width: 30, Height: 40}
	want := image.Rect(10, 21, 40, 61)
	if got := b.Rect(); got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}

	neg := BoundingBox{X: 10, Y: 10, Width: -5, Height: -5}
	if !neg.Rect().Empty() {
		t.Errorf("Expected empty rectangle for negative size, got %v", neg.Rect())
	}
}

func TestBoundingBoxClamp(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 80)
	b := BoundingBox{X: -10, Y: 60, Width: 50, Height: 50}
	want := image.Rect(0, 60, 40, 80)
	if got := b.Clamp(bounds); got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}

	outside := BoundingBox{X: 200, Y: 200, Width: 10, Height: 10}
	if !outside.Clamp(bounds).Empty() {
		t.Error("Expected empty rectangle for box outside the frame")
	}
}
