package feed

import (
	"context"
	"strings"
	"time"
)

// MockSource replays fixture lines at a fixed cadence, looping forever.
// Used by -dev mode and tests; no simulator required.
type MockSource struct {
	*fanout
	lines    []string
	interval time.Duration
}

// NewMockSource creates a MockSource from newline-separated fixture data.
func NewMockSource(data []byte, interval time.Duration) *MockSource {
	var lines []string
	for _, l := range strings.Split(string(data), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	return &MockSource{
		fanout:   newFanout(),
		lines:    lines,
		interval: interval,
	}
}

// Monitor publishes the fixture lines in order, wrapping around, until the
// context is cancelled.
func (s *MockSource) Monitor(ctx context.Context) error {
	if len(s.lines) == 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	i := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.publish(s.lines[i%len(s.lines)])
			i++
		}
	}
}

// Close shuts the source down.
func (s *MockSource) Close() error {
	s.closeAll()
	return nil
}
