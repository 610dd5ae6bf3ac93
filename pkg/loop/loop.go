// Package loop runs the continuous detect-annotate-render cycle over a video source.
//
// A Loop moves through three states. While WaitingForSource it polls the
// source's dimensions every PollInterval (and, when the source supports it,
// also waits on a one-shot readiness channel). Once dimensions are non-zero it
// is Running: every cycle takes the current frame, resizes the surface to it,
// invokes the detector exactly once, annotates and renders the result, then
// waits the pacing delay before the next cycle. A cycle without a frame waits
// at least PollInterval. Cycles are strictly serialized. Stopping the
// Lifecycle makes the loop decline to schedule further cycles; a detector call
// already in flight is allowed to finish and its result is still rendered.
package loop

import (
	"context"
	"errors"
	"image"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/menta2k/focus-overlay/pkg/annotate"
	"github.com/menta2k/focus-overlay/pkg/metrics"
	"github.com/menta2k/focus-overlay/pkg/types"
)

const (
	// DefaultPollInterval is how often an unready source is re-checked
	DefaultPollInterval = 100 * time.Millisecond
	// ThrottleDelay is added to the pacing delay in throttled mode
	ThrottleDelay = 150 * time.Millisecond
)

// ErrNoFrame is reported for a cycle where the ready source returned no frame
var ErrNoFrame = errors.New("source returned no frame")

// State of a loop
type State int32

const (
	WaitingForSource State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case WaitingForSource:
		return "waiting_for_source"
	case Running:
		return "running"
	default:
		return "stopped"
	}
}

// Source is the video collaborator. Dimensions returns 0, 0 until the source is ready.
type Source interface {
	Dimensions() (width, height int)
	Frame() image.Image
}

// ReadyNotifier is implemented by sources that can signal readiness once
type ReadyNotifier interface {
	Ready() <-chan struct{}
}

// Detector maps a frame to detected boxes in frame pixels
type Detector interface {
	Detect(ctx context.Context, frame image.Image) ([]types.BoundingBox, error)
}

// DetectorFunc adapts a function to Detector
type DetectorFunc func(ctx context.Context, frame image.Image) ([]types.BoundingBox, error)

func (f DetectorFunc) Detect(ctx context.Context, frame image.Image) ([]types.BoundingBox, error) {
	return f(ctx, frame)
}

// Annotator scores and classifies the boxes of one frame
type Annotator interface {
	Annotate(frame image.Image, boxes []types.BoundingBox) []annotate.Annotation
}

// Renderer draws annotations on a surface
type Renderer interface {
	Render(s annotate.Surface, anns []annotate.Annotation) int
}

// Cycle describes one completed iteration
type Cycle struct {
	Seq         uint64
	Frame       image.Image
	Annotations []annotate.Annotation
	Drawn       int
	Err         error
	Duration    time.Duration
}

// Option configures a Loop
type Option func(*Loop)

// WithClock replaces the wall clock, mainly for tests
func WithClock(c clock.Clock) Option {
	return func(l *Loop) { l.clock = c }
}

// WithLogger sets the logger
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(l *Loop) { l.logger = logger }
}

// WithMetrics sets the metrics sink
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Loop) { l.metrics = m }
}

// WithPollInterval sets the readiness poll interval
func WithPollInterval(d time.Duration) Option {
	return func(l *Loop) { l.poll = d }
}

// WithPacing sets the delay between cycles
func WithPacing(d time.Duration) Option {
	return func(l *Loop) { l.pacing = d }
}

// WithThrottle adds ThrottleDelay to the pacing delay
func WithThrottle() Option {
	return func(l *Loop) { l.throttle = true }
}

// WithCycleHandler registers a callback invoked on the loop goroutine after every cycle
func WithCycleHandler(fn func(Cycle)) Option {
	return func(l *Loop) { l.onCycle = fn }
}

// Loop drives the detection cycle. A Loop runs at most once at a time.
type Loop struct {
	src      Source
	det      Detector
	ann      Annotator
	rnd      Renderer
	surface  annotate.Surface
	clock    clock.Clock
	logger   *zap.SugaredLogger
	metrics  *metrics.Metrics
	poll     time.Duration
	pacing   time.Duration
	throttle bool
	onCycle  func(Cycle)

	state atomic.Int32
	seq   uint64
}

// New creates a Loop. Options default to a 100ms poll, no pacing, the wall clock and a no-op logger.
func New(src Source, det Detector, ann Annotator, rnd Renderer, surface annotate.Surface, opts ...Option) *Loop {
	l := &Loop{
		src:     src,
		det:     det,
		ann:     ann,
		rnd:     rnd,
		surface: surface,
		clock:   clock.New(),
		logger:  zap.NewNop().Sugar(),
		poll:    DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.poll <= 0 {
		l.poll = DefaultPollInterval
	}
	l.state.Store(int32(Stopped))
	return l
}

// State returns the current loop state
func (l *Loop) State() State {
	return State(l.state.Load())
}

// Pacing returns the effective delay between cycles
func (l *Loop) Pacing() time.Duration {
	d := l.pacing
	if l.throttle {
		d += ThrottleDelay
	}
	return d
}

// Start runs the loop on a new goroutine and returns its lifecycle
func (l *Loop) Start(ctx context.Context) *Lifecycle {
	lc := NewLifecycle()
	go func() {
		if err := l.Run(ctx, lc); err != nil {
			l.logger.Debugw("loop exited", "error", err)
		}
	}()
	return lc
}

// Run blocks until lc is stopped or ctx is done. It returns ctx.Err() on cancellation
// and nil after a lifecycle stop.
func (l *Loop) Run(ctx context.Context, lc *Lifecycle) error {
	defer lc.finish()
	defer l.state.Store(int32(Stopped))

	l.state.Store(int32(WaitingForSource))
	if !l.waitForSource(ctx, lc) {
		return ctx.Err()
	}

	l.state.Store(int32(Running))
	w, h := l.src.Dimensions()
	l.logger.Infow("source ready, detection loop running", "width", w, "height", h, "pacing", l.Pacing())

	for lc.Alive() {
		if err := ctx.Err(); err != nil {
			return err
		}
		served := l.cycle(ctx)
		if !lc.Alive() {
			break
		}
		if !l.pace(ctx, lc, served) {
			return ctx.Err()
		}
	}
	l.logger.Infow("detection loop stopped", "cycles", l.seq)
	return nil
}

func (l *Loop) waitForSource(ctx context.Context, lc *Lifecycle) bool {
	var ready <-chan struct{}
	if rn, ok := l.src.(ReadyNotifier); ok {
		ready = rn.Ready()
	}

	for {
		if !lc.Alive() {
			return false
		}
		if w, h := l.src.Dimensions(); w > 0 && h > 0 {
			return true
		}

		timer := l.clock.Timer(l.poll)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-lc.Stopping():
			timer.Stop()
			return false
		case <-ready:
			// closed channels stay readable; poll from here on
			ready = nil
		case <-timer.C:
		}
		timer.Stop()
	}
}

// pace waits before the next cycle. A cycle without a frame waits at least
// the poll interval.
func (l *Loop) pace(ctx context.Context, lc *Lifecycle, served bool) bool {
	d := l.Pacing()
	if !served && d < l.poll {
		d = l.poll
	}
	if d <= 0 {
		return true
	}
	timer := l.clock.Timer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-lc.Stopping():
		return true
	case <-timer.C:
		return true
	}
}

// cycle runs one iteration and reports whether the source served a frame
func (l *Loop) cycle(ctx context.Context) bool {
	start := l.clock.Now()
	l.seq++

	c := Cycle{Seq: l.seq, Frame: l.src.Frame()}
	if c.Frame == nil {
		c.Err = ErrNoFrame
		l.logger.Debugw("source has no frame yet", "cycle", c.Seq)
		l.finishCycle(c, start, false)
		return false
	}

	// size the surface from the served frame; sources may advance on Frame
	b := c.Frame.Bounds()
	l.surface.Resize(b.Dx(), b.Dy())

	boxes, err := l.det.Detect(ctx, c.Frame)
	if err != nil {
		c.Err = err
		l.logger.Warnw("detector failed", "cycle", c.Seq, "error", err)
	} else {
		c.Annotations = l.ann.Annotate(c.Frame, boxes)
		c.Drawn = l.rnd.Render(l.surface, c.Annotations)
		for _, a := range c.Annotations {
			l.metrics.ObserveAnnotation(a.State.String())
			l.logger.Debugw("annotation", "label", a.Box.Label, "sharpness", a.Score, "state", a.State)
		}
	}

	l.finishCycle(c, start, err != nil)
	return true
}

func (l *Loop) finishCycle(c Cycle, start time.Time, failed bool) {
	c.Duration = l.clock.Since(start)
	l.metrics.ObserveCycle(c.Duration, failed)
	if l.onCycle != nil {
		l.onCycle(c)
	}
}
