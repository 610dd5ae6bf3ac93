package focus

import (
	"image/color"
	"testing"
)

func TestClassifyStep(t *testing.T) {
	c := New()

	tests := []struct {
		score float64
		want  State
	}{
		{0, Blurred},
		{7499.99, Blurred},
		{7500, Blurred},
		{7500.01, Sharp},
		{1e9, Sharp},
	}

	for _, tt := range tests {
		if got := c.Classify(tt.score); got != tt.want {
			t.Errorf("Classify(%v): expected %v, got %v", tt.score, tt.want, got)
		}
	}
}

func TestNewWithThreshold(t *testing.T) {
	c := NewWithThreshold(100)
	if c.Classify(100) != Blurred || c.Classify(101) != Sharp {
		t.Error("Expected custom threshold to be applied")
	}
}

func TestStateString(t *testing.T) {
	if Sharp.String() != "sharp" {
		t.Errorf("Expected sharp, got %s", Sharp.String())
	}
	if Blurred.String() != "blurred" {
		t.Errorf("Expected blurred, got %s", Blurred.String())
	}
}

func TestPaletteColor(t *testing.T) {
	p := DefaultPalette()
	if p.Color(Sharp) != p.Focused {
		t.Error("Expected sharp to map to the focused color")
	}
	if p.Color(Blurred) != p.Neutral {
		t.Error("Expected blurred to map to the neutral color")
	}
	if (Palette{}).Color(Sharp) != color.White {
		t.Error("Expected empty palette to fall back to white")
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
	}{
		{"green", color.RGBA{0, 128, 0, 255}},
		{"#ffffff", color.RGBA{255, 255, 255, 255}},
		{"00ff00", color.RGBA{0, 255, 0, 255}},
		{"#f00", color.RGBA{255, 0, 0, 255}},
	}

	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if err != nil {
			t.Fatalf("ParseColor(%q) failed: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseColor(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}

	if _, err := ParseColor("not-a-color"); err == nil {
		t.Error("Expected error for invalid color")
	}
}

func TestParsePalette(t *testing.T) {
	p, err := ParsePalette("lime", "white")
	if err != nil {
		t.Fatalf("ParsePalette failed: %v", err)
	}
	if p.Focused != (color.RGBA{0, 255, 0, 255}) {
		t.Errorf("Unexpected focused color %v", p.Focused)
	}

	if _, err := ParsePalette("white", "#xyz"); err == nil {
		t.Error("Expected error for invalid neutral color")
	}
}
