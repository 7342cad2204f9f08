// Package sink provides output-sink implementations for the player.
package sink

import (
	"fmt"
	"io"
	"sync"
)

// Writer logs every key action to an io.Writer, one line per action.
// Useful for dry runs and as a stand-in where no key backend exists.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter creates a Writer sink.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Press logs a key press.
func (s *Writer) Press(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "press %s\n", key)
}

// Release logs a key release.
func (s *Writer) Release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "release %s\n", key)
}
