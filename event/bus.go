package event

import (
	"context"
	"sync"
	"sync/atomic"
)

// defaultBufferSize is the per-subscriber channel capacity used when
// [WithBufferSize] is not supplied.
const defaultBufferSize = 64

// Bus is a single-producer, multi-consumer event broadcaster. Every
// Publish call is fanned out to every current subscriber concurrently, so
// one slow subscriber backpressures the producer only on delivery to that
// subscriber — it does not delay delivery to the others — but Publish
// itself returns only once every subscriber has received the event or been
// dropped for disconnecting.
//
// Bus is safe for concurrent use: Subscribe/Unsubscribe may be called
// while Publish is in flight.
type Bus struct {
	bufferSize int
	seq        atomic.Uint64

	mu   sync.Mutex
	subs map[uint64]chan Event
	next uint64
}

// BusOption configures a Bus at construction.
type BusOption func(*Bus)

// WithBufferSize sets the per-subscriber channel capacity. The default is
// 64.
func WithBufferSize(n int) BusOption {
	return func(b *Bus) {
		if n > 0 {
			b.bufferSize = n
		}
	}
}

// NewBus constructs an empty Bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{bufferSize: defaultBufferSize, subs: make(map[uint64]chan Event)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a new subscriber and returns its event channel along
// with an unsubscribe function. The caller must keep draining the channel;
// an undrained, full channel backpressures every Publish call until either
// the subscriber catches up or Unsubscribe is called.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, b.bufferSize)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		if existing, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(existing)
		}
		b.mu.Unlock()
	}
	return ch, unsubscribe
}

// Publish assigns evt the next Lamport sequence number and broadcasts it
// to every current subscriber. It blocks until every subscriber's send
// completes or ctx is done; a subscriber whose send is still blocked when
// ctx is done is left as-is (its backlog is unaffected, only this
// Publish call stops waiting on it).
func (b *Bus) Publish(ctx context.Context, evt Event) {
	if b == nil {
		return
	}
	evt.Seq = b.seq.Add(1)

	b.mu.Lock()
	targets := make([]chan Event, 0, len(b.subs))
	for _, ch := range b.subs {
		targets = append(targets, ch)
	}
	b.mu.Unlock()

	if len(targets) == 0 {
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(targets))
	for _, ch := range targets {
		go func(ch chan Event) {
			defer wg.Done()
			select {
			case ch <- evt:
			case <-ctx.Done():
			}
		}(ch)
	}
	wg.Wait()
}

// Close unsubscribes and closes every current subscriber channel. Publish
// calls after Close are no-ops.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
}
