package focus

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// DefaultThreshold is the score above which a region counts as in focus
const DefaultThreshold = 7500.0

// State is the binary focus classification of a region
type State int

const (
	Blurred State = iota
	Sharp
)

func (s State) String() string {
	switch s {
	case Sharp:
		return "sharp"
	default:
		return "blurred"
	}
}

// MarshalText encodes the state by name in JSON reports
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Classifier thresholds sharpness scores
type Classifier struct {
	Threshold float64
}

// New creates a Classifier with the default threshold
func New() *Classifier {
	return &Classifier{Threshold: DefaultThreshold}
}

// NewWithThreshold creates a Classifier with a custom threshold
func NewWithThreshold(threshold float64) *Classifier {
	return &Classifier{Threshold: threshold}
}

// Classify returns Sharp only for scores strictly above the threshold
func (c *Classifier) Classify(score float64) State {
	if score > c.Threshold {
		return Sharp
	}
	return Blurred
}

// Palette maps focus states to stroke colors
type Palette struct {
	Focused color.Color
	Neutral color.Color
}

// DefaultPalette draws sharp regions green and everything else white
func DefaultPalette() Palette {
	return Palette{
		Focused: color.RGBA{0, 128, 0, 255},
		Neutral: color.White,
	}
}

// Color returns the stroke color for a state
func (p Palette) Color(s State) color.Color {
	if s == Sharp && p.Focused != nil {
		return p.Focused
	}
	if p.Neutral == nil {
		return color.White
	}
	return p.Neutral
}

var namedColors = map[string]string{
	"green": "#008000",
	"white": "#ffffff",
	"red":   "#ff0000",
	"lime":  "#00ff00",
	"blue":  "#0000ff",
	"gold":  "#ffcc00",
	"black": "#000000",
}

// ParseColor accepts a hex string (#rgb or #rrggbb) or a basic color name
func ParseColor(s string) (color.Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if hex, ok := namedColors[s]; ok {
		s = hex
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", s, err)
	}
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{r, g, b, 255}, nil
}

// ParsePalette builds a Palette from two color strings
func ParsePalette(focused, neutral string) (Palette, error) {
	f, err := ParseColor(focused)
	if err != nil {
		return Palette{}, fmt.Errorf("focused color: %w", err)
	}
	n, err := ParseColor(neutral)
	if err != nil {
		return Palette{}, fmt.Errorf("neutral color: %w", err)
	}
	return Palette{Focused: f, Neutral: n}, nil
}
