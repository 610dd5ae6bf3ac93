// Package focusoverlay annotates object detections on live video frames with a
// focus indicator.
//
// Every detection cycle runs the object detector on the current frame, scores
// the pixels inside each detected box for sharpness and draws a rectangle with
// four corner brackets around it: green when the region is in focus, white
// otherwise. People are never annotated.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		"github.com/menta2k/focus-overlay"
//		"github.com/menta2k/focus-overlay/pkg/annotate"
//		"github.com/menta2k/focus-overlay/pkg/detection"
//		"github.com/menta2k/focus-overlay/pkg/ollama"
//		"github.com/menta2k/focus-overlay/pkg/source"
//	)
//
//	func main() {
//		backend, err := ollama.NewClient("http://localhost:11434")
//		if err != nil {
//			log.Fatal(err)
//		}
//		detector := detection.NewDetector(backend, detection.DefaultConfig())
//
//		frames := source.NewBuffer()
//		canvas := annotate.NewCanvas(1, 1)
//
//		overlay := focusoverlay.New()
//		lc := overlay.NewLoop(frames, detector, canvas).Start(context.Background())
//		defer lc.Stop()
//
//		// feed frames with frames.Publish(img); canvas.Image() holds the overlay
//	}
//
// The package consists of these components:
//
// 1. Sharpness (pkg/sharpness): gradient-energy score of a frame region
// 2. Focus (pkg/focus): threshold classification and presentation colors
// 3. Annotate (pkg/annotate): rectangle and corner-bracket rendering on a Surface
// 4. Loop (pkg/loop): the serialized detect, annotate and render cycle
//
// Detection backends (pkg/ollama, pkg/llamacpp) and frame sources (pkg/source)
// plug into the loop through small interfaces.
package focusoverlay

import (
	"image"

	"github.com/menta2k/focus-overlay/pkg/annotate"
	"github.com/menta2k/focus-overlay/pkg/focus"
	"github.com/menta2k/focus-overlay/pkg/loop"
	"github.com/menta2k/focus-overlay/pkg/processing"
	"github.com/menta2k/focus-overlay/pkg/sharpness"
	"github.com/menta2k/focus-overlay/pkg/types"
)

// Version of the focus overlay library
const Version = "1.0.0"

// Annotator turns detections into focus annotations
type Annotator struct {
	estimator  *sharpness.Estimator
	classifier *focus.Classifier
	renderer   *annotate.Renderer
}

// New creates an Annotator with the default threshold, geometry and palette
func New() *Annotator {
	return &Annotator{
		estimator:  sharpness.New(),
		classifier: focus.New(),
		renderer:   annotate.New(),
	}
}

// NewWithConfig creates an Annotator with custom settings
func NewWithConfig(threshold float64, renderConfig annotate.Config, palette focus.Palette) *Annotator {
	return &Annotator{
		estimator:  sharpness.New(),
		classifier: focus.NewWithThreshold(threshold),
		renderer:   annotate.NewWithConfig(renderConfig, palette),
	}
}

// Annotate scores and classifies every box whose label is not excluded. Boxes
// are clipped to the frame before scoring, so boxes outside it score 0.
func (a *Annotator) Annotate(frame image.Image, boxes []types.BoundingBox) []annotate.Annotation {
	anns := make([]annotate.Annotation, 0, len(boxes))
	if frame == nil {
		return anns
	}
	bounds := frame.Bounds()
	for _, box := range boxes {
		if a.renderer.Excluded(box.Label) {
			continue
		}
		score := a.estimator.Estimate(frame, box.Clamp(bounds))
		anns = append(anns, annotate.Annotation{
			Box:   box,
			Score: score,
			State: a.classifier.Classify(score),
		})
	}
	return anns
}

// Score returns the sharpness of one box within frame
func (a *Annotator) Score(frame image.Image, box types.BoundingBox) float64 {
	if frame == nil {
		return 0
	}
	return a.estimator.Estimate(frame, box.Clamp(frame.Bounds()))
}

// Renderer returns the renderer used for drawing
func (a *Annotator) Renderer() *annotate.Renderer {
	return a.renderer
}

// AnnotateImage annotates a single frame and returns it with the overlay drawn on top
func (a *Annotator) AnnotateImage(frame image.Image, boxes []types.BoundingBox) (*image.NRGBA, []annotate.Annotation) {
	b := frame.Bounds()
	canvas := annotate.NewCanvas(b.Dx(), b.Dy())
	anns := a.Annotate(frame, boxes)
	a.renderer.Render(canvas, anns)
	return processing.NewProcessor().Composite(frame, canvas.Image()), anns
}

// NewLoop wires a detection loop that annotates with a and draws on surface
func (a *Annotator) NewLoop(src loop.Source, det loop.Detector, surface annotate.Surface, opts ...loop.Option) *loop.Loop {
	return loop.New(src, det, a, a.renderer, surface, opts...)
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
