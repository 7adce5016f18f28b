package timeutil

import "sync"

// FrameScheduler queues callbacks to run on a later frame. The editor
// pumps it once per frame; work queued during frame N runs at the
// start of frame N+1, never within the frame that queued it.
type FrameScheduler struct {
	mu      sync.Mutex
	pending []func()
	frames  uint64
}

// NewFrameScheduler returns an empty scheduler.
func NewFrameScheduler() *FrameScheduler {
	return &FrameScheduler{}
}

// Defer queues fn for the next Flush. A nil fn is ignored. Calling
// Defer from inside a callback running under Flush is safe; the new
// work lands on the following frame.
func (s *FrameScheduler) Defer(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.pending = append(s.pending, fn)
	s.mu.Unlock()
}

// Flush runs every callback queued before this call, in the order
// they were queued.
func (s *FrameScheduler) Flush() {
	s.mu.Lock()
	batch := s.pending
	s.pending = nil
	s.frames++
	s.mu.Unlock()

	for _, fn := range batch {
		fn()
	}
}

// Frames returns the number of completed flushes.
func (s *FrameScheduler) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Pending reports how many callbacks are waiting for the next flush.
func (s *FrameScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
