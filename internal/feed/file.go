package feed

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"time"
	"unicode/utf8"
)

// DefaultPollInterval matches the simulator's fastest observed write cadence.
const DefaultPollInterval = 50 * time.Millisecond

// FileSource watches the simulator's output file and publishes its first
// line whenever the modification time changes. The simulator truncates and
// rewrites the whole file per update, so a changed mtime with a complete
// first line is a fresh snapshot; anything else is a torn write and is
// dropped silently.
type FileSource struct {
	*fanout
	path     string
	interval time.Duration
	lg       *slog.Logger

	lastMTime time.Time
}

// NewFileSource creates a FileSource polling path at the given interval.
// A non-positive interval uses DefaultPollInterval.
func NewFileSource(path string, interval time.Duration, lg *slog.Logger) *FileSource {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if lg == nil {
		lg = slog.Default()
	}
	return &FileSource{
		fanout:   newFanout(),
		path:     path,
		interval: interval,
		lg:       lg,
	}
}

// Monitor polls the file until the context is cancelled.
func (s *FileSource) Monitor(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if line, ok := s.poll(); ok {
				s.publish(line)
			}
		}
	}
}

// poll reads the file's first line if its mtime changed since the last
// poll. Returns false when there is nothing new or nothing readable.
func (s *FileSource) poll() (string, bool) {
	info, err := os.Stat(s.path)
	if err != nil {
		// The file appears only once the simulator is running; absence is
		// routine, not an error.
		return "", false
	}
	if !info.ModTime().After(s.lastMTime) {
		return "", false
	}
	s.lastMTime = info.ModTime()

	data, err := os.ReadFile(s.path)
	if err != nil {
		s.lg.Warn("telemetry file unreadable", "path", s.path, "error", err)
		return "", false
	}

	line := firstLine(data)
	if line == "" {
		return "", false
	}
	return line, true
}

// Close shuts the source down.
func (s *FileSource) Close() error {
	s.closeAll()
	return nil
}

// firstLine extracts the first complete line of the file and decodes it.
// The plugin writes UTF-8 for most stock but Latin-1 for some European
// routes; invalid UTF-8 is therefore reinterpreted byte-for-byte as
// Latin-1 rather than discarded.
func firstLine(data []byte) string {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		data = data[:i]
	}
	data = bytes.TrimRight(data, "\r")
	if utf8.Valid(data) {
		return string(data)
	}
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes)
}
