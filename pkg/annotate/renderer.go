// Package annotate draws focus-coded detection overlays.
//
// Each annotation is drawn as a rectangle outline plus four L-shaped corner
// brackets placed just outside the rectangle corners. Sharp regions use the
// palette's focused color, everything else the neutral color. Labels listed in
// the renderer's exclusion filter ("person" by default) are never drawn.
package annotate

import (
	"github.com/menta2k/focus-overlay/pkg/focus"
	"github.com/menta2k/focus-overlay/pkg/types"
)

// DefaultExcludedLabels are detection classes that are never annotated
var DefaultExcludedLabels = []string{"person"}

// Annotation is a detection with its focus score and classification
type Annotation struct {
	Box   types.BoundingBox `json:"box"`
	Score float64           `json:"score"`
	State focus.State       `json:"state"`
}

// LabelFilter lists labels to skip
type LabelFilter []string

// Excluded reports whether label is filtered out
func (f LabelFilter) Excluded(label string) bool {
	for _, l := range f {
		if l == label {
			return true
		}
	}
	return false
}

// Config holds renderer geometry
type Config struct {
	LineWidth float64
	CornerGap float64
	CornerArm float64
	Excluded  LabelFilter
}

// DefaultConfig returns the standard overlay geometry
func DefaultConfig() Config {
	return Config{
		LineWidth: 2,
		CornerGap: 10,
		CornerArm: 20,
		Excluded:  LabelFilter(DefaultExcludedLabels),
	}
}

// Renderer paints annotations on a Surface
type Renderer struct {
	config  Config
	palette focus.Palette
}

// New creates a Renderer with default geometry and palette
func New() *Renderer {
	return &Renderer{config: DefaultConfig(), palette: focus.DefaultPalette()}
}

// NewWithConfig creates a Renderer with custom geometry and palette
func NewWithConfig(config Config, palette focus.Palette) *Renderer {
	return &Renderer{config: config, palette: palette}
}

// Excluded reports whether annotations with this label are skipped
func (r *Renderer) Excluded(label string) bool {
	return r.config.Excluded.Excluded(label)
}

// Render clears s and draws every non-excluded annotation. It returns the number drawn.
func (r *Renderer) Render(s Surface, anns []Annotation) int {
	s.Clear()
	s.SetLineWidth(r.config.LineWidth)

	drawn := 0
	for _, a := range anns {
		if r.Excluded(a.Box.Label) {
			continue
		}
		s.SetStrokeColor(r.palette.Color(a.State))
		s.StrokeRect(a.Box.X, a.Box.Y, a.Box.Width, a.Box.Height)
		r.drawBrackets(s, a.Box)
		drawn++
	}
	return drawn
}

// corner directions: top-left, top-right, bottom-right, bottom-left
var corners = [4][2]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

func (r *Renderer) drawBrackets(s Surface, b types.BoundingBox) {
	gap, arm := r.config.CornerGap, r.config.CornerArm
	for _, d := range corners {
		cx, cy := b.X, b.Y
		if d[0] > 0 {
			cx += b.Width
		}
		if d[1] > 0 {
			cy += b.Height
		}
		vx, vy := cx+d[0]*gap, cy+d[1]*gap

		s.MoveTo(vx, vy-d[1]*arm)
		s.LineTo(vx, vy)
		s.LineTo(vx-d[0]*arm, vy)
		s.Stroke()
	}
}
