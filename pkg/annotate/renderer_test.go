package annotate

import (
	"fmt"
	"image/color"
	"strings"
	"testing"

	"github.com/menta2k/focus-overlay/pkg/focus"
	"github.com/menta2k/focus-overlay/pkg/types"
)

// recorder is a Surface that logs every call
type recorder struct {
	ops    []string
	colors []color.Color
}

func (r *recorder) Resize(w, h int) { r.ops = append(r.ops, fmt.Sprintf("resize %d %d", w, h)) }
func (r *recorder) Clear() { r.ops = append(r.ops, "clear") }
func (r *recorder) SetLineWidth(w float64) { r.ops = append(r.ops, fmt.Sprintf("width %g", w)) }
func (r *recorder) MoveTo(x, y float64) { r.ops = append(r.ops, fmt.Sprintf("move %g %g", x, y)) }
func (r *recorder) LineTo(x, y float64) { r.ops = append(r.ops, fmt.Sprintf("line %g %g", x, y)) }
func (r *recorder) Stroke() { r.ops = append(r.ops, "stroke") }
func (r *recorder) StrokeRect(x, y, w, h float64) {
	r.ops = append(r.ops, fmt.Sprintf("rect %g %g %g %g", x, y, w, h))
}
func (r *recorder) SetStrokeColor(c color.Color) {
	r.colors = append(r.colors, c)
	r.ops = append(r.ops, "color")
}

func (r *recorder) count(prefix string) int {
	n := 0
	for _, op := range r.ops {
		if strings.HasPrefix(op, prefix) {
			n++
		}
	}
	return n
}

func annotation(label string, x, y, w, h float64, state focus.State) Annotation {
	return Annotation{
		Box:   types.BoundingBox{X: x, Y: y, Width: w, Height: h, Label: label},
		State: state,
	}
}

func TestRenderClearsFirst(t *testing.T) {
	rec := &recorder{}
	New().Render(rec, nil)

	if len(rec.ops) == 0 || rec.ops[0] != "clear" {
		t.Errorf("Expected render to start with clear, got %v", rec.ops)
	}
	if rec.count("rect") != 0 {
		t.Error("Expected no rectangles for empty input")
	}
}

func TestRenderSkipsPerson(t *testing.T) {
	rec := &recorder{}
	drawn := New().Render(rec, []Annotation{
		annotation("person", 0, 0, 50, 50, focus.Sharp),
		annotation("cup", 10, 10, 20, 20, focus.Blurred),
		annotation("person", 5, 5, 5, 5, focus.Blurred),
	})

	if drawn != 1 {
		t.Errorf("Expected 1 annotation drawn, got %d", drawn)
	}
	if rec.count("rect") != 1 {
		t.Errorf("Expected 1 rectangle, got %d", rec.count("rect"))
	}
	for _, op := range rec.ops {
		if op == "rect 0 0 50 50" || op == "rect 5 5 5 5" {
			t.Errorf("Person box was drawn: %s", op)
		}
	}
}

func TestRenderGeometry(t *testing.T) {
	rec := &recorder{}
	New().Render(rec, []Annotation{annotation("cup", 100, 50, 40, 30, focus.Sharp)})

	want := []string{
		"clear",
		"width 2",
		"color",
		"rect 100 50 40 30",
		// top-left
		"move 90 60", "line 90 40", "line 110 40", "stroke",
		// top-right
		"move 150 60", "line 150 40", "line 130 40", "stroke",
		// bottom-right
		"move 150 70", "line 150 90", "line 130 90", "stroke",
		// bottom-left
		"move 90 70", "line 90 90", "line 110 90", "stroke",
	}

	if len(rec.ops) != len(want) {
		t.Fatalf("Expected %d ops, got %d: %v", len(want), len(rec.ops), rec.ops)
	}
	for i := range want {
		if rec.ops[i] != want[i] {
			t.Errorf("op %d: expected %q, got %q", i, want[i], rec.ops[i])
		}
	}
}

func TestRenderColorsByState(t *testing.T) {
	rec := &recorder{}
	palette := focus.DefaultPalette()
	NewWithConfig(DefaultConfig(), palette).Render(rec, []Annotation{
		annotation("cup", 0, 0, 10, 10, focus.Sharp),
		annotation("book", 20, 20, 10, 10, focus.Blurred),
	})

	if len(rec.colors) != 2 {
		t.Fatalf("Expected 2 color changes, got %d", len(rec.colors))
	}
	if rec.colors[0] != palette.Focused {
		t.Errorf("Expected focused color for sharp box, got %v", rec.colors[0])
	}
	if rec.colors[1] != palette.Neutral {
		t.Errorf("Expected neutral color for blurred box, got %v", rec.colors[1])
	}
}

func TestRenderCustomExclusions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Excluded = LabelFilter{"person", "dog"}
	rec := &recorder{}
	drawn := NewWithConfig(cfg, focus.DefaultPalette()).Render(rec, []Annotation{
		annotation("dog", 0, 0, 10, 10, focus.Sharp),
		annotation("cat", 0, 0, 10, 10, focus.Sharp),
	})
	if drawn != 1 {
		t.Errorf("Expected only the cat to be drawn, got %d", drawn)
	}
}

func TestLabelFilterIsExact(t *testing.T) {
	f := LabelFilter(DefaultExcludedLabels)
	if !f.Excluded("person") {
		t.Error("Expected person to be excluded")
	}
	if f.Excluded("persona") || f.Excluded("Person") {
		t.Error("Expected only exact label matches to be excluded")
	}
}

func TestCanvasDrawsPixels(t *testing.T) {
	canvas := NewCanvas(200, 200)
	New().Render(canvas, []Annotation{annotation("cup", 50, 50, 100, 100, focus.Sharp)})

	img := canvas.Image()

	// left edge of the rectangle, stroke covers x in [49, 51]
	_, g, _, a := img.At(49, 100).RGBA()
	if a>>8 != 255 || g>>8 < 100 {
		t.Errorf("Expected opaque green on the rectangle edge, got g=%d a=%d", g>>8, a>>8)
	}

	// inside the box stays transparent
	if _, _, _, a := img.At(100, 100).RGBA(); a != 0 {
		t.Errorf("Expected transparent interior, got alpha %d", a>>8)
	}

	// top-left bracket vertex at (40, 40)
	if _, _, _, a := img.At(40, 40).RGBA(); a == 0 {
		t.Error("Expected bracket stroke at the top-left corner")
	}
}

func TestCanvasClearAndResize(t *testing.T) {
	canvas := NewCanvas(50, 50)
	New().Render(canvas, []Annotation{annotation("cup", 10, 10, 30, 30, focus.Blurred)})
	canvas.Clear()

	img := canvas.Image()
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0 {
				t.Fatalf("Expected cleared canvas, pixel (%d,%d) has alpha %d", x, y, a>>8)
			}
		}
	}

	canvas.Resize(320, 240)
	if w, h := canvas.Size(); w != 320 || h != 240 {
		t.Errorf("Expected 320x240 after resize, got %dx%d", w, h)
	}
}
