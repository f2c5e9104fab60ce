package compiler

import (
	"sync"

	"github.com/beliefgraph/core/event"
)

// eventRecorder mirrors every event published on a bus into an ordered
// slice, so Run can hand the exact mutation sequence it produced this round
// to the cache transaction without re-deriving it from a graph diff.
type eventRecorder struct {
	mu     sync.Mutex
	events []event.Event
}

// startRecording subscribes rec to bus and returns a stop function. stop
// unsubscribes and blocks until the drain goroutine has exited, so every
// event published before stop is called is guaranteed to be in rec.events
// once stop returns.
func startRecording(bus *event.Bus) (*eventRecorder, func()) {
	rec := &eventRecorder{}
	ch, unsubscribe := bus.Subscribe()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for evt := range ch {
			rec.mu.Lock()
			rec.events = append(rec.events, evt)
			rec.mu.Unlock()
		}
	}()

	stop := func() {
		unsubscribe()
		<-done
	}
	return rec, stop
}

func (r *eventRecorder) snapshot() []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]event.Event, len(r.events))
	copy(out, r.events)
	return out
}
