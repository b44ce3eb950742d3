// Package billing abstracts the payment provider behind a small Provider
// interface and a closed set of normalized lifecycle events.
//
// Two adapters ship with the package: Stripe (the default) and Paddle. Both
// verify inbound webhook signatures against a shared secret with a bounded
// clock-skew window before any payload is interpreted, and both map raw
// provider event names onto the Event union (CheckoutCompleted,
// SubscriptionUpdated, SubscriptionDeleted, UnknownEvent).
//
// The package also owns the static price table mapping opaque provider price
// references to plan tiers. An unrecognized reference resolves to the lowest
// paid tier rather than failing the webhook: the customer already paid, and
// mis-tiering is surfaced to an operator instead of dropped.
package billing
