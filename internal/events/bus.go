// Package events provides a publish/subscribe event bus for operational
// observability. Events flow from components (router, reaction engine,
// escalation machine, alert dispatcher) to subscribers (WebSocket
// handler, future metrics collector). The bus is nil-safe: calling
// Publish on a nil *Bus is a no-op, so components do not need guard
// checks.
package events

import (
	"sync"
	"time"
)

// Source constants identify which component published an event.
const (
	// SourceRouter identifies events from the relevance router.
	SourceRouter = "router"
	// SourceReaction identifies events from the parallel reaction engine.
	SourceReaction = "reaction"
	// SourceEscalation identifies events from the escalation state machine.
	SourceEscalation = "escalation"
	// SourceAlert identifies events from the alert dispatcher.
	SourceAlert = "alert"
)

// Kind constants describe the type of event within a source.
const (
	// KindAgentsSelected signals the router picked agents for a message.
	// Data: agents, scores, suppressed.
	KindAgentsSelected = "agents_selected"

	// KindReactionStart signals the beginning of a reaction fan-out.
	// Data: batch_id, agents.
	KindReactionStart = "reaction_start"
	// KindAgentReply signals one agent reaction completed.
	// Data: batch_id, agent_id, chars.
	KindAgentReply = "agent_reply"
	// KindAgentFailed signals one agent reaction was dropped.
	// Data: batch_id, agent_id, error.
	KindAgentFailed = "agent_failed"
	// KindReactionComplete signals the fan-out join finished.
	// Data: batch_id, requested, returned, elapsed_ms.
	KindReactionComplete = "reaction_complete"

	// KindStrikeRecorded signals an incident strike was counted.
	// Data: user_id, incident_type, strike_count, status.
	KindStrikeRecorded = "strike_recorded"
	// KindUserBlocked signals a strike crossed a block threshold.
	// Data: user_id, incident_type, action, blocked_until.
	KindUserBlocked = "user_blocked"
	// KindStoodDown signals an admin detection was discarded.
	// Data: user_id, incident_type.
	KindStoodDown = "stood_down"

	// KindAlertDispatched signals an alert was fanned out to admins.
	// Data: employee_id, priority, recipients.
	KindAlertDispatched = "alert_dispatched"
)

// Event represents a single operational event published by a component.
type Event struct {
	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"ts"`
	// Source identifies the component that published the event.
	Source string `json:"source"`
	// Kind describes the type of event within the source.
	Kind string `json:"kind"`
	// Data holds event-specific key/value pairs.
	Data map[string]any `json:"data,omitempty"`
}

// Bus is a non-blocking broadcast event bus. Subscribers receive events
// on buffered channels; slow subscribers miss events rather than
// blocking publishers.
type Bus struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
	// recvToSend maps the receive-only channel returned by Subscribe
	// back to the bidirectional channel stored in subs, so Unsubscribe
	// can accept <-chan Event (the caller's view).
	recvToSend map[<-chan Event]chan Event
}

// New creates a new event bus ready for use.
func New() *Bus {
	return &Bus{
		subs:       make(map[chan Event]struct{}),
		recvToSend: make(map[<-chan Event]chan Event),
	}
}

// Publish sends an event to all subscribers. Non-blocking: if a
// subscriber's channel is full, the event is dropped for that
// subscriber. Safe to call on a nil receiver (no-op).
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
			// Subscriber is full, drop the event rather than block.
		}
	}
}

// Subscribe returns a channel that receives published events. The
// caller must eventually call Unsubscribe to avoid resource leaks.
// bufSize controls the channel buffer; 64 is a reasonable default for
// WebSocket consumers.
func (b *Bus) Subscribe(bufSize int) <-chan Event {
	ch := make(chan Event, bufSize)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[ch] = struct{}{}
	b.recvToSend[ch] = ch
	return ch
}

// Unsubscribe removes a subscription and closes the channel. Safe to
// call with a channel that is already unsubscribed (no-op).
func (b *Bus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sendCh, ok := b.recvToSend[ch]
	if !ok {
		return
	}
	delete(b.subs, sendCh)
	delete(b.recvToSend, ch)
	close(sendCh)
}

// SubscriberCount returns the number of active subscribers.
func (b *Bus) SubscriberCount() int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
