package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeConfig holds Stripe credentials. The webhook secret is the shared
// secret Stripe signs event payloads with.
type StripeConfig struct {
	SecretKey     string `env:"STRIPE_SECRET_KEY,required"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET,required"`
}

// StripeProvider implements Provider on top of the Stripe API. The client is
// constructed explicitly and injected here rather than configured through
// stripe-go's package-level key, so independent providers can coexist in one
// process and tests can substitute the whole provider.
type StripeProvider struct {
	api           *client.API
	webhookSecret string
}

// NewStripeProvider creates a Stripe-backed billing provider.
func NewStripeProvider(cfg StripeConfig) (*StripeProvider, error) {
	if cfg.SecretKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	api := &client.API{}
	api.Init(cfg.SecretKey, nil)

	return &StripeProvider{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
	}, nil
}

func (p *StripeProvider) CreateCustomer(ctx context.Context, accountID, email string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Metadata: map[string]string{
			"account_id": accountID,
		},
	}
	params.Context = ctx

	cust, err := p.api.Customers.New(params)
	if err != nil {
		return "", errors.Join(ErrProviderFailure, err)
	}
	return cust.ID, nil
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer: stripe.String(req.CustomerRef),
		// The client reference comes back on checkout.session.completed and
		// is how the reconciler ties the event to an account.
		ClientReferenceID: stripe.String(req.AccountID),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceRef),
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx

	sess, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, errors.Join(ErrProviderFailure, err)
	}
	if sess.URL == "" {
		return nil, ErrNoSessionURL
	}
	return &Session{ID: sess.ID, URL: sess.URL}, nil
}

func (p *StripeProvider) CreatePortalSession(ctx context.Context, customerRef, returnURL string) (*Session, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerRef),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	sess, err := p.api.BillingPortalSessions.New(params)
	if err != nil {
		return nil, errors.Join(ErrProviderFailure, err)
	}
	if sess.URL == "" {
		return nil, ErrNoSessionURL
	}
	return &Session{ID: sess.ID, URL: sess.URL}, nil
}

func (p *StripeProvider) GetSubscription(ctx context.Context, subscriptionRef string) (*Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := p.api.Subscriptions.Get(subscriptionRef, params)
	if err != nil {
		return nil, errors.Join(ErrProviderFailure, err)
	}

	out := &Subscription{
		Ref:    sub.ID,
		Status: string(sub.Status),
	}
	if sub.Customer != nil {
		out.CustomerRef = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		out.PriceRef = sub.Items.Data[0].Price.ID
	}
	return out, nil
}

// checkoutSessionPayload is the slice of checkout.session.completed this
// system reads. Customer and Subscription arrive as unexpanded ID strings.
type checkoutSessionPayload struct {
	ID                string            `json:"id"`
	Mode              string            `json:"mode"`
	Customer          string            `json:"customer"`
	Subscription      string            `json:"subscription"`
	ClientReferenceID string            `json:"client_reference_id"`
	Metadata          map[string]string `json:"metadata"`
}

// subscriptionPayload is the slice of customer.subscription.* events this
// system reads.
type subscriptionPayload struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	Status   string `json:"status"`
	Items    struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

// ParseWebhook verifies the Stripe-Signature header against the shared
// secret before looking at the payload. ConstructEventWithOptions enforces
// Stripe's signed-timestamp window (5 minutes by default), which covers the
// clock-skew tolerance requirement. Verification failure means no event is
// returned and nothing downstream can mutate state.
func (p *StripeProvider) ParseWebhook(_ context.Context, payload []byte, signature string) (Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, errors.Join(ErrInvalidSignature, err)
	}

	meta := EventMeta{
		EventID:   event.ID,
		Timestamp: time.Unix(event.Created, 0).UTC(),
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess checkoutSessionPayload
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, errors.Join(ErrMalformedPayload, fmt.Errorf("decode checkout.session: %w", err))
		}
		if sess.Mode != "" && sess.Mode != "subscription" {
			// One-off payment checkouts carry no subscription to reconcile.
			return UnknownEvent{EventMeta: meta, Type: string(event.Type)}, nil
		}
		accountID := sess.ClientReferenceID
		if accountID == "" {
			accountID = sess.Metadata["account_id"]
		}
		return CheckoutCompleted{
			EventMeta:       meta,
			AccountID:       accountID,
			CustomerRef:     sess.Customer,
			SubscriptionRef: sess.Subscription,
		}, nil

	case "customer.subscription.updated":
		var sub subscriptionPayload
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, errors.Join(ErrMalformedPayload, fmt.Errorf("decode subscription: %w", err))
		}
		updated := SubscriptionUpdated{
			EventMeta:       meta,
			SubscriptionRef: sub.ID,
			Status:          sub.Status,
		}
		if len(sub.Items.Data) > 0 {
			updated.PriceRef = sub.Items.Data[0].Price.ID
		}
		return updated, nil

	case "customer.subscription.deleted":
		var sub subscriptionPayload
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, errors.Join(ErrMalformedPayload, fmt.Errorf("decode subscription: %w", err))
		}
		return SubscriptionDeleted{
			EventMeta:       meta,
			SubscriptionRef: sub.ID,
		}, nil

	default:
		return UnknownEvent{EventMeta: meta, Type: string(event.Type)}, nil
	}
}
