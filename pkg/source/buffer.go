package source

import (
	"image"
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot carries the latest published frame and metadata
type Snapshot struct {
	Image      image.Image
	CapturedAt time.Time
	Sequence   uint64
}

// Buffer is a push-based video source. Producers call Publish with every new
// frame; the detection loop reads the latest one. Ready is closed on the first
// non-empty frame.
type Buffer struct {
	latest   atomic.Pointer[Snapshot]
	sequence atomic.Uint64
	ready    chan struct{}
	once     sync.Once
}

// NewBuffer creates an empty buffer
func NewBuffer() *Buffer {
	return &Buffer{ready: make(chan struct{})}
}

// Publish replaces the current frame. Nil or empty frames are ignored.
func (b *Buffer) Publish(img image.Image) {
	if img == nil || img.Bounds().Empty() {
		return
	}
	seq := b.sequence.Add(1)
	b.latest.Store(&Snapshot{Image: img, CapturedAt: time.Now(), Sequence: seq})
	b.once.Do(func() { close(b.ready) })
}

// Latest returns the current snapshot, zero if nothing was published
func (b *Buffer) Latest() Snapshot {
	snap := b.latest.Load()
	if snap == nil {
		return Snapshot{}
	}
	return *snap
}

// Frame returns the current frame or nil
func (b *Buffer) Frame() image.Image {
	return b.Latest().Image
}

// Dimensions returns the size of the current frame, 0, 0 before the first publish
func (b *Buffer) Dimensions() (int, int) {
	img := b.Frame()
	if img == nil {
		return 0, 0
	}
	r := img.Bounds()
	return r.Dx(), r.Dy()
}

// Ready is closed once the first frame is published
func (b *Buffer) Ready() <-chan struct{} {
	return b.ready
}
