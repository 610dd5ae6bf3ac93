package processing

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/focus-overlay/pkg/types"
)

const userAgent = "Focus-Overlay/1.0 (+https://github.com/menta2k/focus-overlay)"

// Processor loads frames, encodes them for vision models and writes annotated output
type Processor struct {
	httpClient *http.Client
}

// NewProcessor creates a processor with a 30s download timeout
func NewProcessor() *Processor {
	return NewProcessorWithClient(&http.Client{Timeout: 30 * time.Second})
}

// NewProcessorWithClient creates a processor that downloads frames with client
func NewProcessorWithClient(client *http.Client) *Processor {
	if client == nil {
		client = http.DefaultClient
	}
	return &Processor{httpClient: client}
}

// LoadFrame loads a frame from either a file path or an http(s) URL
func (p *Processor) LoadFrame(source string) (image.Image, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return p.LoadFrameFromURL(source)
	}
	return p.LoadFrameFromFile(source)
}

// LoadFrameFromURL downloads and decodes a frame
func (p *Processor) LoadFrameFromURL(frameURL string) (image.Image, error) {
	parsed, err := url.Parse(frameURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %s (only http and https are supported)", parsed.Scheme)
	}

	req, err := http.NewRequest(http.MethodGet, frameURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download frame: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download frame: HTTP %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("URL does not point to an image (Content-Type: %s)", ct)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame data: %w", err)
	}
	return DecodeFrame(data)
}

// LoadFrameFromFile decodes a frame from disk. WebP files that the registered
// decoders reject are retried with the libwebp decoder.
func (p *Processor) LoadFrameFromFile(path string) (image.Image, error) {
	if img, err := imaging.Open(path); err == nil {
		return img, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, err := DecodeFrame(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, path)
	}
	return img, nil
}

// DecodeFrame decodes encoded image bytes, falling back to libwebp
func DecodeFrame(data []byte) (image.Image, error) {
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	return nil, fmt.Errorf("image: unknown or unsupported format")
}

// EncodeForModel downsizes img so its longest side is at most maxDim and
// returns it base64 encoded as jpg or png
func (p *Processor) EncodeForModel(img image.Image, format string, maxDim int, quality int) (string, error) {
	if maxDim > 0 {
		b := img.Bounds()
		w, h := b.Dx(), b.Dy()
		if w > maxDim || h > maxDim {
			if w >= h {
				img = imaging.Resize(img, maxDim, 0, imaging.Lanczos)
			} else {
				img = imaging.Resize(img, 0, maxDim, imaging.Lanczos)
			}
		}
	}

	var buf bytes.Buffer
	switch strings.ToLower(format) {
	case "png":
		enc := png.Encoder{CompressionLevel: png.BestSpeed}
		if err := enc.Encode(&buf, img); err != nil {
			return "", err
		}
	default: // jpg
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return "", err
		}
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// SaveImage writes img as webp, png or jpg
func (p *Processor) SaveImage(img image.Image, path string, opts types.OutputOptions) error {
	switch strings.ToLower(opts.Format) {
	case "webp":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return webp.Encode(f, img, &webp.Options{Lossless: opts.Lossless, Quality: float32(opts.Quality)})
	case "png":
		return imaging.Save(img, path)
	default: // jpg/jpeg
		return imaging.Save(img, path, imaging.JPEGQuality(opts.Quality))
	}
}

// Composite draws overlay on top of frame and returns a new image.
// The result and the overlay are both anchored at the origin.
func (p *Processor) Composite(frame, overlay image.Image) *image.NRGBA {
	dst := imaging.Clone(frame)
	if overlay == nil {
		return dst
	}
	return imaging.Overlay(dst, overlay, image.Point{}, 1.0)
}

// SaveOverlay composites overlay onto frame and writes the result
func (p *Processor) SaveOverlay(frame, overlay image.Image, path string, opts types.OutputOptions) error {
	if err := p.SaveImage(p.Composite(frame, overlay), path, opts); err != nil {
		return fmt.Errorf("failed to save annotated frame %s: %w", path, err)
	}
	return nil
}
