// Package events is a small in-process pub/sub bus for history events,
// feeding the WebSocket stream so editor UIs can refresh live.
package events

import (
	"sync"
	"time"
)

// Kind classifies a history event.
type Kind string

const (
	SnapshotCreated Kind = "snapshot_created"
	SnapshotDeleted Kind = "snapshot_deleted"
	BranchesMerged  Kind = "branches_merged"
)

// Event is one history change notification.
type Event struct {
	Kind       Kind      `json:"kind"`
	DocumentID string    `json:"document_id"`
	SnapshotID string    `json:"snapshot_id,omitempty"`
	BranchID   string    `json:"branch_id,omitempty"`
	Time       time.Time `json:"time"`
}

// subscriberBuffer bounds each subscription channel. Publish never blocks;
// events beyond the buffer are dropped for that subscriber.
const subscriberBuffer = 16

// Bus fans events out to per-document subscribers.
type Bus struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

// NewBus constructs an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[chan Event]struct{})}
}

// Subscribe returns a channel of events for documentID and a cancel func.
// Cancel must be called to release the subscription; it closes the channel.
func (b *Bus) Subscribe(documentID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	if b.subs[documentID] == nil {
		b.subs[documentID] = make(map[chan Event]struct{})
	}
	b.subs[documentID][ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if set, ok := b.subs[documentID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(b.subs, documentID)
			}
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// SubscriberCount reports how many subscriptions documentID currently has.
func (b *Bus) SubscriberCount(documentID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[documentID])
}

// Publish delivers ev to all subscribers of its document without blocking.
func (b *Bus) Publish(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[ev.DocumentID] {
		select {
		case ch <- ev:
		default:
			// Slow consumer; drop rather than stall the writer.
		}
	}
}
