package billing

import "time"

// Event is a normalized billing lifecycle notification. The concrete types
// form a closed set; provider adapters map their raw event names onto it and
// anything unmapped becomes UnknownEvent, which handlers acknowledge without
// acting on.
//
// Delivery is at-least-once and unordered, so every event carries the
// provider's own timestamp: consumers decide staleness from OccurredAt, never
// from arrival order.
type Event interface {
	// ID is the provider's event identifier, stable across redeliveries.
	ID() string
	// OccurredAt is the provider-side timestamp of the event.
	OccurredAt() time.Time

	isBillingEvent()
}

// EventMeta carries the fields shared by all event variants.
type EventMeta struct {
	EventID   string
	Timestamp time.Time
}

func (m EventMeta) ID() string            { return m.EventID }
func (m EventMeta) OccurredAt() time.Time { return m.Timestamp }
func (m EventMeta) isBillingEvent()       {}

// CheckoutCompleted signals that a hosted checkout finished and a
// subscription now exists. AccountID is the client reference passed when the
// checkout session was created; SubscriptionRef may require a follow-up
// Provider.GetSubscription call to resolve price and status.
type CheckoutCompleted struct {
	EventMeta
	AccountID       string
	CustomerRef     string
	SubscriptionRef string
}

// SubscriptionUpdated signals a plan or status change on an existing
// subscription (upgrade, downgrade, payment retry outcome, trial end).
type SubscriptionUpdated struct {
	EventMeta
	SubscriptionRef string
	PriceRef        string
	Status          string
}

// SubscriptionDeleted signals the subscription ended for good.
type SubscriptionDeleted struct {
	EventMeta
	SubscriptionRef string
}

// UnknownEvent is the catch-all for provider events this system does not
// react to. It must be acknowledged successfully so the provider stops
// redelivering it.
type UnknownEvent struct {
	EventMeta
	Type string
}
