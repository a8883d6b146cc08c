package testutil

import (
	"bytes"
	"strings"
	"sync"
)

// SafeBuffer collects output written concurrently by handlers, the logger
// and the run summary.
type SafeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *SafeBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *SafeBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

// LinesWithPrefix returns the written lines that start with prefix, in
// write order.
func (s *SafeBuffer) LinesWithPrefix(prefix string) []string {
	var out []string
	for _, line := range strings.Split(s.String(), "\n") {
		if strings.HasPrefix(line, prefix) {
			out = append(out, line)
		}
	}
	return out
}
