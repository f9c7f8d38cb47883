// Package events allows for the registering and receiving of prover events.
package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Set of event kinds sent while a block is being processed.
const (
	KindWitness   = "witness"
	KindHeader    = "header"
	KindSubmitted = "submitted"
	KindMined     = "mined"
	KindError     = "error"
)

// Event represents a single message about the progress of a block.
type Event struct {
	TraceID string    `json:"trace_id,omitempty"`
	Kind    string    `json:"kind"`
	Block   uint64    `json:"block"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// JSON returns the encoded event.
func (e Event) JSON() []byte {
	b, err := json.Marshal(e)
	if err != nil {
		return []byte(fmt.Sprintf(`{"kind":%q,"message":%q}`, KindError, err))
	}
	return b
}

// =============================================================================

// Events maintains a mapping of unique id and channels so goroutines
// can register and receive events.
type Events struct {
	m  map[string]chan Event
	mu sync.RWMutex
}

// New constructs an events for registering and receiving events.
func New() *Events {
	return &Events{
		m: make(map[string]chan Event),
	}
}

// Shutdown closes and removes all channels that were provided by
// the call to Acquire.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, ch := range evt.m {
		delete(evt.m, id)
		close(ch)
	}
}

// Acquire takes a unique id and returns a channel that can be used
// to receive events.
func (evt *Events) Acquire(id string) <-chan Event {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.m[id]
	if exists {
		return ch
	}

	// A message is dropped if the receiver is not ready, so the buffer
	// gives a slow websocket writer room to catch up.
	const messageBuffer = 100

	evt.m[id] = make(chan Event, messageBuffer)
	return evt.m[id]
}

// Release closes and removes the channel that was provided by
// the call to Acquire.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.m[id]
	if !exists {
		return fmt.Errorf("id %q does not exist", id)
	}

	delete(evt.m, id)
	close(ch)
	return nil
}

// Send signals an event to every registered channel. Send will not block
// waiting for a receiver on any given channel.
func (evt *Events) Send(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}

	evt.mu.RLock()
	defer evt.mu.RUnlock()

	for _, ch := range evt.m {
		select {
		case ch <- e:
		default:
		}
	}
}

// Sendf formats a message and sends it as an event of the specified kind.
func (evt *Events) Sendf(traceID string, kind string, block uint64, format string, args ...any) {
	evt.Send(Event{
		TraceID: traceID,
		Kind:    kind,
		Block:   block,
		Message: fmt.Sprintf(format, args...),
	})
}
