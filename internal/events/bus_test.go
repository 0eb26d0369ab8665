package events

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	sub := b.Subscribe(4)
	defer b.Unsubscribe(sub)

	b.Publish(Event{Source: SourceRouter, Kind: KindAgentsSelected, Data: map[string]any{"agents": []string{"sales"}}})

	select {
	case e := <-sub:
		if e.Source != SourceRouter || e.Kind != KindAgentsSelected {
			t.Errorf("got %s/%s", e.Source, e.Kind)
		}
		if e.Timestamp.IsZero() {
			t.Error("Publish must stamp a timestamp")
		}
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestPublishNilBusIsNoop(t *testing.T) {
	var b *Bus
	// Must not panic.
	b.Publish(Event{Source: SourceAlert, Kind: KindAlertDispatched})
	if got := b.SubscriberCount(); got != 0 {
		t.Errorf("SubscriberCount on nil bus = %d, want 0", got)
	}
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	b := New()
	sub := b.Subscribe(1)
	defer b.Unsubscribe(sub)

	// Fill the buffer, then publish more. Publish must return promptly.
	b.Publish(Event{Source: SourceReaction, Kind: KindReactionStart})
	done := make(chan struct{})
	go func() {
		b.Publish(Event{Source: SourceReaction, Kind: KindReactionComplete})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := New()
	sub := b.Subscribe(1)
	b.Unsubscribe(sub)

	if _, ok := <-sub; ok {
		t.Error("channel should be closed after Unsubscribe")
	}
	if got := b.SubscriberCount(); got != 0 {
		t.Errorf("SubscriberCount = %d, want 0", got)
	}

	// Double unsubscribe is a no-op.
	b.Unsubscribe(sub)
}

func TestMultipleSubscribers(t *testing.T) {
	b := New()
	a := b.Subscribe(4)
	c := b.Subscribe(4)
	defer b.Unsubscribe(a)
	defer b.Unsubscribe(c)

	b.Publish(Event{Source: SourceEscalation, Kind: KindStrikeRecorded})

	for i, sub := range []<-chan Event{a, c} {
		select {
		case e := <-sub:
			if e.Kind != KindStrikeRecorded {
				t.Errorf("subscriber %d got %s", i, e.Kind)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d received nothing", i)
		}
	}
}
