package client

import (
	"io"
	"time"
)

// stallReader fires onStall when no bytes arrive for the given window.
// Each successful read rearms the timer.
type stallReader struct {
	r      io.ReadCloser
	window time.Duration
	timer  *time.Timer
}

func newStallReader(r io.ReadCloser, window time.Duration, onStall func()) *stallReader {
	return &stallReader{
		r:      r,
		window: window,
		timer:  time.AfterFunc(window, onStall),
	}
}

func (s *stallReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if n > 0 {
		s.timer.Reset(s.window)
	}
	return n, err
}

func (s *stallReader) Close() error {
	s.stop()
	return s.r.Close()
}

func (s *stallReader) stop() {
	s.timer.Stop()
}
