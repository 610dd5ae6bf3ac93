package detection

import (
	"context"
	"fmt"
	"image"
	"strings"
	"sync/atomic"

	"github.com/menta2k/focus-overlay/pkg/client"
	"github.com/menta2k/focus-overlay/pkg/processing"
	"github.com/menta2k/focus-overlay/pkg/types"
)

// SimpleTestPrompt for testing if the model can see images
const SimpleTestPrompt = `What do you see in this image? Describe it briefly.`

// DefaultPrompt asks the model for every visible object
const DefaultPrompt = `You are an object detector.

Return JSON only:
{
  "objects": [
    {"label": "string", "confidence": 0.0, "box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0}}
  ]
}

HARD RULES
- List every clearly visible object, people included.
- Labels are short lowercase nouns in singular form (e.g. "cup", "person", "laptop").
- All coordinates are normalized to [0,1] (NOT pixels). x,y is the top-left corner.
- Boxes must tightly enclose the object.
- confidence is your certainty between 0 and 1.
- If nothing is visible, return {"objects": []}.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// Config controls how frames are sent to the model
type Config struct {
	Model         string
	Prompt        string
	MinConfidence float64
	SendSize      int
	SendQuality   int
	SendFormat    string
}

// DefaultConfig returns the detector defaults
func DefaultConfig() Config {
	return Config{
		Model:         "llava",
		Prompt:        DefaultPrompt,
		MinConfidence: 0.3,
		SendSize:      768,
		SendQuality:   85,
		SendFormat:    "jpg",
	}
}

// Detector finds objects in frames using a vision model
type Detector struct {
	client    client.VisionClient
	processor *processing.Processor
	config    Config
	loaded    atomic.Bool
}

// NewDetector creates a new detector with a vision client
func NewDetector(client client.VisionClient, config Config) *Detector {
	if config.Prompt == "" {
		config.Prompt = DefaultPrompt
	}
	if config.SendQuality <= 0 {
		config.SendQuality = 85
	}
	return &Detector{
		client:    client,
		processor: processing.NewProcessor(),
		config:    config,
	}
}

// Load checks the backend once before detection starts
func (d *Detector) Load(ctx context.Context) error {
	if d.loaded.Load() {
		return nil
	}
	if err := d.client.Ping(ctx); err != nil {
		return fmt.Errorf("detector backend unavailable: %w", err)
	}
	d.loaded.Store(true)
	return nil
}

// Loaded reports whether Load succeeded
func (d *Detector) Loaded() bool {
	return d.loaded.Load()
}

// Detect returns the objects found in frame as boxes in frame pixels
func (d *Detector) Detect(ctx context.Context, frame image.Image) ([]types.BoundingBox, error) {
	if frame == nil {
		return nil, fmt.Errorf("nil frame")
	}
	imgB64, err := d.processor.EncodeForModel(frame, d.config.SendFormat, d.config.SendSize, d.config.SendQuality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}

	result, err := d.client.DetectObjects(ctx, d.config.Model, d.config.Prompt, imgB64)
	if err != nil {
		return nil, err
	}

	b := frame.Bounds()
	return d.ToPixels(result, b.Dx(), b.Dy()), nil
}

// ToPixels converts normalized detections into frame-pixel boxes. Objects below
// MinConfidence or with an empty label or area are dropped.
func (d *Detector) ToPixels(result *types.DetectionResult, width, height int) []types.BoundingBox {
	if result == nil {
		return nil
	}
	boxes := make([]types.BoundingBox, 0, len(result.Objects))
	for _, obj := range result.Objects {
		label := normalizeLabel(obj.Label)
		if label == "" || obj.Confidence < d.config.MinConfidence {
			continue
		}
		box := normalizeBox(obj.Box)
		if box.W <= 0 || box.H <= 0 {
			continue
		}
		x, y, w, h := box.ToPixels(width, height)
		boxes = append(boxes, types.BoundingBox{
			X: x, Y: y, Width: w, Height: h,
			Label:      label,
			Confidence: obj.Confidence,
		})
	}
	return boxes
}

// TestVision tests if the model can actually see the image with a simple prompt
func (d *Detector) TestVision(ctx context.Context, frame image.Image) (string, error) {
	imgB64, err := d.processor.EncodeForModel(frame, d.config.SendFormat, d.config.SendSize, d.config.SendQuality)
	if err != nil {
		return "", fmt.Errorf("failed to encode frame: %w", err)
	}
	return d.client.SimpleQuery(ctx, d.config.Model, SimpleTestPrompt, imgB64)
}

// clamp ensures a value is within the given bounds
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// normalizeBox clips a normalized box to the unit square
func normalizeBox(b types.Box) types.Box {
	x0 := clamp(b.X, 0, 1)
	y0 := clamp(b.Y, 0, 1)
	x1 := clamp(b.X+b.W, 0, 1)
	y1 := clamp(b.Y+b.H, 0, 1)
	return types.Box{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

func normalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// Func adapts a plain function to the loop's detector contract
type Func func(ctx context.Context, frame image.Image) ([]types.BoundingBox, error)

func (f Func) Detect(ctx context.Context, frame image.Image) ([]types.BoundingBox, error) {
	return f(ctx, frame)
}
