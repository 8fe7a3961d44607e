package events

import (
	"sync"
	"time"
)

// Reason tells subscribers what changed on the board.
type Reason string

const (
	ReasonLoading    Reason = "loading"
	ReasonLoaded     Reason = "loaded"
	ReasonFailed     Reason = "failed"
	ReasonToggle     Reason = "toggle"
	ReasonFilter     Reason = "filter"
	ReasonComparison Reason = "comparison"
	ReasonSort       Reason = "sort"
)

// BoardUpdate announces a new board version. Subscribers fetch the snapshot themselves,
// so the event stays small and a dropped event only delays a refresh.
type BoardUpdate struct {
	Version uint64    `json:"version"`
	LoadID  string    `json:"load_id"`
	Reason  Reason    `json:"reason"`
	At      time.Time `json:"ts"`
}

// Broadcaster fans out board updates to all subscribers via buffered channels.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   map[chan BoardUpdate]struct{}
	buffer int
}

// NewBroadcaster creates a broadcaster with the given per-subscriber buffer.
func NewBroadcaster(buffer int) *Broadcaster {
	if buffer < 1 {
		buffer = 16
	}
	return &Broadcaster{
		subs:   make(map[chan BoardUpdate]struct{}),
		buffer: buffer,
	}
}

// Publish sends the update to all subscribers, dropping if a reader is slow.
func (b *Broadcaster) Publish(u BoardUpdate) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- u:
		default:
			// drop slow consumer
		}
	}
}

// Subscribe returns a channel that receives updates until Unsubscribe is called.
func (b *Broadcaster) Subscribe() chan BoardUpdate {
	ch := make(chan BoardUpdate, b.buffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the channel and closes it.
func (b *Broadcaster) Unsubscribe(ch chan BoardUpdate) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

// Subscribers returns the number of live subscriptions.
func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
