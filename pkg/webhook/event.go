package webhook

import (
	"encoding/json"
	"time"
)

// EventType enumerates the provider's documented event kinds. The set is
// closed on our side but open on the provider's: anything unrecognized
// routes through the fallback, never through reflection.
type EventType string

const (
	EventSent       EventType = "email.sent"
	EventDelivered  EventType = "email.delivered"
	EventDelayed    EventType = "email.delivery_delayed"
	EventComplained EventType = "email.complained"
	EventBounced    EventType = "email.bounced"
	EventOpened     EventType = "email.opened"
	EventClicked    EventType = "email.clicked"
	EventFailed     EventType = "email.failed"

	EventContactCreated EventType = "contact.created"
	EventContactUpdated EventType = "contact.updated"
	EventContactDeleted EventType = "contact.deleted"

	EventDomainCreated EventType = "domain.created"
	EventDomainUpdated EventType = "domain.updated"
	EventDomainDeleted EventType = "domain.deleted"
)

var knownEventTypes = map[EventType]bool{
	EventSent: true, EventDelivered: true, EventDelayed: true,
	EventComplained: true, EventBounced: true, EventOpened: true,
	EventClicked: true, EventFailed: true,
	EventContactCreated: true, EventContactUpdated: true, EventContactDeleted: true,
	EventDomainCreated: true, EventDomainUpdated: true, EventDomainDeleted: true,
}

// Known reports whether the type is part of the documented set.
func (t EventType) Known() bool {
	return knownEventTypes[t]
}

// Event is the raw event document carried in a delivery. Data stays opaque
// JSON: its shape depends on the event type and belongs to the downstream
// consumer.
type Event struct {
	Type      EventType       `json:"type"`
	CreatedAt time.Time       `json:"created_at"`
	Data      json.RawMessage `json:"data"`
}

// VerifiedEvent is an Event whose delivery passed signature verification.
// Nothing downstream of the verifier ever sees an unverified event.
type VerifiedEvent struct {
	// ID is the provider's message id, stable across redeliveries.
	ID string `json:"id"`
	Event
	// Duplicate marks a redelivery of an id already seen within the replay
	// retention window. Duplicates must not re-trigger side effects.
	Duplicate bool `json:"-"`
}

// BounceData is the payload shape of bounce events, provided as a typed
// convenience for handlers. Subtype distinguishes hard bounces (address
// must not be retried) from soft ones (provider retries automatically).
type BounceData struct {
	EmailID string   `json:"email_id"`
	To      []string `json:"to"`
	Subtype string   `json:"bounce_subtype,omitempty"`
	Reason  string   `json:"reason,omitempty"`
}

// DeliveryData is the payload shape of sent/delivered/delayed events.
type DeliveryData struct {
	EmailID string   `json:"email_id"`
	From    string   `json:"from,omitempty"`
	To      []string `json:"to"`
	Subject string   `json:"subject,omitempty"`
}
