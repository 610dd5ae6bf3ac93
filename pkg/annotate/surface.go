package annotate

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
)

// Surface is the drawing target the renderer paints annotations on
type Surface interface {
	Resize(width, height int)
	Clear()
	SetStrokeColor(c color.Color)
	SetLineWidth(w float64)
	StrokeRect(x, y, w, h float64)
	MoveTo(x, y float64)
	LineTo(x, y float64)
	Stroke()
}

// Canvas is a transparent raster Surface backed by a gg context
type Canvas struct {
	dc     *gg.Context
	stroke color.Color
	width  float64
}

// NewCanvas creates a transparent canvas of the given size
func NewCanvas(width, height int) *Canvas {
	c := &Canvas{stroke: color.White, width: 1}
	c.Resize(width, height)
	return c
}

// Resize replaces the backing image, which also clears it
func (c *Canvas) Resize(width, height int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	c.dc = gg.NewContext(width, height)
	c.dc.SetColor(c.stroke)
	c.dc.SetLineWidth(c.width)
}

// Clear erases the canvas back to fully transparent
func (c *Canvas) Clear() {
	c.dc.ClearPath()
	c.dc.SetColor(color.Transparent)
	c.dc.Clear()
	c.dc.SetColor(c.stroke)
}

func (c *Canvas) SetStrokeColor(col color.Color) {
	c.stroke = col
	c.dc.SetColor(col)
}

func (c *Canvas) SetLineWidth(w float64) {
	c.width = w
	c.dc.SetLineWidth(w)
}

func (c *Canvas) StrokeRect(x, y, w, h float64) {
	c.dc.NewSubPath()
	c.dc.DrawRectangle(x, y, w, h)
	c.dc.Stroke()
}

func (c *Canvas) MoveTo(x, y float64) {
	c.dc.MoveTo(x, y)
}

func (c *Canvas) LineTo(x, y float64) {
	c.dc.LineTo(x, y)
}

func (c *Canvas) Stroke() {
	c.dc.Stroke()
}

// Image returns the current overlay
func (c *Canvas) Image() image.Image {
	return c.dc.Image()
}

// Size returns the canvas dimensions
func (c *Canvas) Size() (int, int) {
	return c.dc.Width(), c.dc.Height()
}
