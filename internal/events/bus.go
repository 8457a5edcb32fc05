package events

import (
	"sync"
)

const defaultBufSize = 256

// Bus fans events out over buffered channels. Subscribers pick a
// single topic or everything; the TUI and the persistence recorder
// both consume the all-topics feed.
type Bus struct {
	mu      sync.RWMutex
	byTopic map[string][]chan Event
	all     []chan Event
	closed  bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{byTopic: make(map[string][]chan Event)}
}

// Subscribe returns a channel receiving events published to topic.
// bufSize <= 0 selects the default buffer.
func (b *Bus) Subscribe(topic string, bufSize int) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := b.newSub(bufSize)
	if !b.closed {
		b.byTopic[topic] = append(b.byTopic[topic], ch)
	}
	return ch
}

// SubscribeAll returns a channel receiving events from every topic.
// bufSize <= 0 selects the default buffer.
func (b *Bus) SubscribeAll(bufSize int) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := b.newSub(bufSize)
	if !b.closed {
		b.all = append(b.all, ch)
	}
	return ch
}

// newSub allocates a subscriber channel, closed immediately when the
// bus is already shut down. Caller holds b.mu.
func (b *Bus) newSub(bufSize int) chan Event {
	if bufSize <= 0 {
		bufSize = defaultBufSize
	}
	ch := make(chan Event, bufSize)
	if b.closed {
		close(ch)
	}
	return ch
}

// Publish delivers event to the topic's subscribers and to every
// all-topics subscriber. Delivery never blocks: a subscriber whose
// buffer is full misses the event.
func (b *Bus) Publish(topic string, event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	deliver(b.byTopic[topic], event)
	deliver(b.all, event)
}

func deliver(chans []chan Event, event Event) {
	for _, ch := range chans {
		select {
		case ch <- event:
		default:
			// subscriber buffer full, drop
		}
	}
}

// Close shuts the bus down and closes every subscriber channel.
// Idempotent.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for _, chans := range b.byTopic {
		for _, ch := range chans {
			close(ch)
		}
	}
	for _, ch := range b.all {
		close(ch)
	}
}
