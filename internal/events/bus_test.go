package events_test

import (
	"testing"

	"github.com/draftforge/draftvault/internal/events"
)

func TestPublishReachesDocumentSubscribersOnly(t *testing.T) {
	bus := events.NewBus()

	ch1, cancel1 := bus.Subscribe("doc-1")
	defer cancel1()
	ch2, cancel2 := bus.Subscribe("doc-2")
	defer cancel2()

	bus.Publish(events.Event{Kind: events.SnapshotCreated, DocumentID: "doc-1", SnapshotID: "v1"})

	ev := <-ch1
	if ev.SnapshotID != "v1" {
		t.Errorf("event: %+v", ev)
	}
	if ev.Time.IsZero() {
		t.Error("publish should stamp the event time")
	}

	select {
	case ev := <-ch2:
		t.Errorf("doc-2 subscriber received foreign event: %+v", ev)
	default:
	}
}

func TestCancelClosesChannel(t *testing.T) {
	bus := events.NewBus()
	ch, cancel := bus.Subscribe("doc-1")
	if got := bus.SubscriberCount("doc-1"); got != 1 {
		t.Fatalf("subscriber count: %d, want 1", got)
	}

	cancel()
	if got := bus.SubscriberCount("doc-1"); got != 0 {
		t.Errorf("subscriber count after cancel: %d, want 0", got)
	}
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after cancel")
	}

	// Cancel is safe to call twice, and publishing after cancel is a no-op.
	cancel()
	bus.Publish(events.Event{Kind: events.SnapshotDeleted, DocumentID: "doc-1"})
}

func TestSlowConsumerDoesNotBlockPublish(t *testing.T) {
	bus := events.NewBus()
	ch, cancel := bus.Subscribe("doc-1")
	defer cancel()

	// Overflow the buffer; Publish must return every time.
	for i := 0; i < 100; i++ {
		bus.Publish(events.Event{Kind: events.SnapshotCreated, DocumentID: "doc-1"})
	}

	drained := 0
	for {
		select {
		case <-ch:
			drained++
			continue
		default:
		}
		break
	}
	if drained == 0 || drained > 16 {
		t.Errorf("drained %d events, want between 1 and the buffer size", drained)
	}
}
