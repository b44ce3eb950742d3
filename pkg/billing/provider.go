package billing

import "context"

// Provider abstracts the payment provider (Stripe, Paddle). The provider
// hosts checkout and the customer portal, so this system never touches card
// data; it only creates sessions, reads subscription state, and verifies
// inbound webhooks.
//
// Implementations hold an injected API client and no account state, so tests
// substitute them freely.
type Provider interface {
	// CreateCustomer registers a billing customer for the account and
	// returns the provider's customer reference.
	CreateCustomer(ctx context.Context, accountID, email string) (string, error)

	// CreateCheckoutSession creates a hosted checkout session for the given
	// price. The returned URL is short-lived and single-use.
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Session, error)

	// CreatePortalSession returns a pre-authenticated customer portal URL
	// where the user manages payment methods and cancellation.
	CreatePortalSession(ctx context.Context, customerRef, returnURL string) (*Session, error)

	// GetSubscription fetches current subscription state from the provider.
	GetSubscription(ctx context.Context, subscriptionRef string) (*Subscription, error)

	// ParseWebhook authenticates a raw webhook payload against the shared
	// secret (signature plus clock-skew tolerance) and maps it to a
	// normalized Event. Returns ErrInvalidSignature before any payload
	// interpretation when verification fails.
	ParseWebhook(ctx context.Context, payload []byte, signature string) (Event, error)
}

// CheckoutRequest contains everything needed to open a hosted checkout.
type CheckoutRequest struct {
	AccountID   string // carried through to the webhook as the client reference
	CustomerRef string // existing billing customer; required, created lazily by the caller
	Email       string
	PriceRef    string
	SuccessURL  string
	CancelURL   string
}

// Session is a provider-hosted redirect target (checkout or portal).
type Session struct {
	ID  string
	URL string
}

// Subscription is the provider's view of a subscription, fetched on demand
// when a webhook payload does not carry price and status itself.
type Subscription struct {
	Ref         string
	CustomerRef string
	PriceRef    string
	Status      string
}
