// Package feed supplies the most recent raw telemetry line to any number of
// subscribers.
//
// The simulator's data plugin overwrites a flat file with one line per
// update; bridge hardware can expose the same stream over a serial port.
// Either way a Source watches the transport, drops anything that is not a
// complete line, and fans lines out to subscribed channels. Slow consumers
// are skipped, never waited on: a stale telemetry line is worthless.
package feed

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Source is a line supplier. Implementations guarantee they never deliver a
// partially written line; unreadable snapshots are dropped, not retried.
type Source interface {
	// Subscribe creates a channel receiving telemetry lines. The returned
	// id identifies the channel for Unsubscribe.
	Subscribe() (string, chan string)
	// Unsubscribe removes and closes a subscriber channel.
	Unsubscribe(id string)
	// Monitor watches the transport until the context is cancelled,
	// publishing each complete line to all subscribers.
	Monitor(ctx context.Context) error
	// Close closes all subscriber channels and releases the transport.
	Close() error
}

// fanout is the shared subscriber bookkeeping for all Source
// implementations.
type fanout struct {
	mu          sync.Mutex
	subscribers map[string]chan string
	closed      bool
}

func newFanout() *fanout {
	return &fanout{subscribers: make(map[string]chan string)}
}

func (f *fanout) Subscribe() (string, chan string) {
	id := uuid.NewString()
	ch := make(chan string, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		// The source is already shut down; hand back a closed channel so
		// the late subscriber observes that immediately instead of
		// blocking forever.
		close(ch)
		return id, ch
	}
	f.subscribers[id] = ch
	return id, ch
}

func (f *fanout) Unsubscribe(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch, ok := f.subscribers[id]; ok {
		close(ch)
		delete(f.subscribers, id)
	}
}

// publish delivers a line to every subscriber that can take it right now.
func (f *fanout) publish(line string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	for _, ch := range f.subscribers {
		select {
		case ch <- line:
		default:
			// Subscriber is behind; skip rather than block the feed.
		}
	}
}

func (f *fanout) closeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for id, ch := range f.subscribers {
		close(ch)
		delete(f.subscribers, id)
	}
}
