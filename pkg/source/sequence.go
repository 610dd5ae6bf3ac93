package source

import (
	"fmt"
	"image"
	"sync"

	"go.uber.org/zap"
)

// LoadFunc loads one frame from a path or URL
type LoadFunc func(path string) (image.Image, error)

// Sequence plays a list of image files as a video source. Each Frame call
// advances to the next file; with repeat the list wraps around.
type Sequence struct {
	paths  []string
	load   LoadFunc
	repeat bool
	logger *zap.SugaredLogger

	mu      sync.Mutex
	pos     int
	served  int
	current image.Image
	fresh   bool
	opened  bool
}

// NewSequence creates a sequence over paths. It is not ready until Open succeeds.
func NewSequence(paths []string, load LoadFunc, repeat bool, logger *zap.SugaredLogger) (*Sequence, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("frame sequence is empty")
	}
	if load == nil {
		return nil, fmt.Errorf("frame loader cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Sequence{paths: paths, load: load, repeat: repeat, logger: logger}, nil
}

// Open loads the first frame, making the source ready
func (s *Sequence) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	img, err := s.load(s.paths[0])
	if err != nil {
		return fmt.Errorf("failed to load first frame %s: %w", s.paths[0], err)
	}
	s.current = img
	s.pos = 1
	s.served = 0
	s.fresh = true
	s.opened = true
	return nil
}

// Dimensions returns the size of the current frame, 0, 0 before Open
func (s *Sequence) Dimensions() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return 0, 0
	}
	r := s.current.Bounds()
	return r.Dx(), r.Dy()
}

// Frame returns the next frame. Unloadable files are logged and skipped by
// returning the previous frame.
func (s *Sequence) Frame() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.opened {
		return nil
	}
	if s.fresh {
		s.fresh = false
		return s.current
	}
	if s.pos >= len(s.paths) {
		if !s.repeat {
			return s.current
		}
		s.pos = 0
	}

	path := s.paths[s.pos]
	s.pos++
	img, err := s.load(path)
	if err != nil {
		s.logger.Warnw("skipping unreadable frame", "path", path, "error", err)
		return s.current
	}
	s.current = img
	s.served = s.pos - 1
	return img
}

// Position returns the index of the file behind the frame last returned by
// Frame. Unreadable files are skipped, so it never points at one.
func (s *Sequence) Position() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.served
}

// Path returns the file behind the frame last returned by Frame
func (s *Sequence) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paths[s.served]
}

// Exhausted reports whether a non-repeating sequence has served its last file
func (s *Sequence) Exhausted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened && !s.repeat && !s.fresh && s.pos >= len(s.paths)
}

// Len returns the number of files in the sequence
func (s *Sequence) Len() int {
	return len(s.paths)
}
