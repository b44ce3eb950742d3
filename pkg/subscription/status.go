package subscription

import "github.com/helioslabs/billingkit/pkg/account"

// normalizeStatus maps a provider-reported subscription status onto the
// account's closed status set. Providers disagree on vocabulary (Stripe says
// "unpaid", Paddle says "paused"), and new statuses appear without notice,
// so anything unrecognized maps to past_due: the access guard then denies
// paid-feature access until a recognizable status arrives.
func normalizeStatus(providerStatus string) account.SubscriptionStatus {
	switch providerStatus {
	case "active":
		return account.StatusActive
	case "trialing":
		return account.StatusTrialing
	case "past_due", "unpaid", "paused", "incomplete":
		return account.StatusPastDue
	case "canceled", "cancelled", "incomplete_expired":
		return account.StatusCanceled
	default:
		return account.StatusPastDue
	}
}
