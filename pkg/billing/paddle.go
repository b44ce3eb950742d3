package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// PaddleConfig holds configuration for the Paddle billing provider.
type PaddleConfig struct {
	APIKey        string `env:"PADDLE_API_KEY,required"`
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET,required"`
	Environment   string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
}

// PaddleProvider implements Provider for Paddle. Paddle has no separate
// checkout-session object; a transaction with a checkout URL plays that role.
type PaddleProvider struct {
	client   *paddle.SDK
	verifier *paddle.WebhookVerifier
}

// NewPaddleProvider creates a Paddle-backed billing provider.
func NewPaddleProvider(cfg PaddleConfig) (*PaddleProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	var sdk *paddle.SDK
	var err error
	switch strings.ToLower(cfg.Environment) {
	case "sandbox":
		sdk, err = paddle.NewSandbox(cfg.APIKey)
	case "production", "":
		sdk, err = paddle.New(cfg.APIKey)
	default:
		return nil, fmt.Errorf("invalid paddle environment: %s", cfg.Environment)
	}
	if err != nil {
		return nil, errors.Join(ErrProviderFailure, err)
	}

	return &PaddleProvider{
		client:   sdk,
		verifier: paddle.NewWebhookVerifier(cfg.WebhookSecret),
	}, nil
}

func (p *PaddleProvider) CreateCustomer(ctx context.Context, accountID, email string) (string, error) {
	cust, err := p.client.CustomersClient.CreateCustomer(ctx, &paddle.CreateCustomerRequest{
		Email: email,
		CustomData: paddle.CustomData{
			"account_id": accountID,
		},
	})
	if err != nil {
		return "", errors.Join(ErrProviderFailure, err)
	}
	return cust.ID, nil
}

func (p *PaddleProvider) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Session, error) {
	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  req.PriceRef,
		Quantity: 1,
	})

	txReq := &paddle.CreateTransactionRequest{
		Items:      []paddle.CreateTransactionItems{*item},
		CustomerID: paddle.PtrTo(req.CustomerRef),
		CustomData: paddle.CustomData{
			"account_id": req.AccountID,
		},
	}
	if req.SuccessURL != "" {
		txReq.Checkout = &paddle.TransactionCheckout{
			URL: paddle.PtrTo(req.SuccessURL),
		}
	}

	tx, err := p.client.TransactionsClient.CreateTransaction(ctx, txReq)
	if err != nil {
		return nil, errors.Join(ErrProviderFailure, err)
	}
	if tx.Checkout == nil || tx.Checkout.URL == nil || *tx.Checkout.URL == "" {
		return nil, ErrNoSessionURL
	}
	return &Session{ID: tx.ID, URL: *tx.Checkout.URL}, nil
}

func (p *PaddleProvider) CreatePortalSession(ctx context.Context, customerRef, _ string) (*Session, error) {
	sess, err := p.client.CustomerPortalSessionsClient.CreateCustomerPortalSession(ctx,
		&paddle.CreateCustomerPortalSessionRequest{
			CustomerID: customerRef,
		})
	if err != nil {
		return nil, errors.Join(ErrProviderFailure, err)
	}
	if sess.URLs.General.Overview == "" {
		return nil, ErrNoSessionURL
	}
	return &Session{ID: sess.ID, URL: sess.URLs.General.Overview}, nil
}

func (p *PaddleProvider) GetSubscription(ctx context.Context, subscriptionRef string) (*Subscription, error) {
	sub, err := p.client.SubscriptionsClient.GetSubscription(ctx, &paddle.GetSubscriptionRequest{
		SubscriptionID: subscriptionRef,
	})
	if err != nil {
		return nil, errors.Join(ErrProviderFailure, err)
	}

	out := &Subscription{
		Ref:         sub.ID,
		CustomerRef: sub.CustomerID,
		Status:      string(sub.Status),
	}
	if len(sub.Items) > 0 {
		out.PriceRef = sub.Items[0].Price.ID
	}
	return out, nil
}

// ParseWebhook verifies the Paddle-Signature header, which binds an HMAC to
// a signed timestamp, then maps the event onto the normalized set. The
// verifier needs an *http.Request, so one is reconstructed around the raw
// payload.
func (p *PaddleProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/webhook", bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Join(ErrInvalidSignature, err)
	}
	req.Header.Set("Paddle-Signature", signature)

	valid, err := p.verifier.Verify(req)
	if err != nil {
		return nil, errors.Join(ErrInvalidSignature, err)
	}
	if !valid {
		return nil, ErrInvalidSignature
	}

	var raw struct {
		EventID    string         `json:"event_id"`
		EventType  string         `json:"event_type"`
		OccurredAt string         `json:"occurred_at"`
		Data       map[string]any `json:"data"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, errors.Join(ErrMalformedPayload, err)
	}

	// The reconciler decides staleness from this timestamp; a zero value
	// would make every event look older than anything already applied.
	occurredAt, err := time.Parse(time.RFC3339, raw.OccurredAt)
	if err != nil {
		return nil, errors.Join(ErrMalformedPayload, fmt.Errorf("parse occurred_at: %w", err))
	}

	meta := EventMeta{EventID: raw.EventID, Timestamp: occurredAt.UTC()}

	switch raw.EventType {
	case "transaction.completed":
		return CheckoutCompleted{
			EventMeta:       meta,
			AccountID:       paddleCustomData(raw.Data, "account_id"),
			CustomerRef:     paddleString(raw.Data, "customer_id"),
			SubscriptionRef: paddleString(raw.Data, "subscription_id"),
		}, nil

	case "subscription.updated":
		return SubscriptionUpdated{
			EventMeta:       meta,
			SubscriptionRef: paddleString(raw.Data, "id"),
			PriceRef:        paddlePriceRef(raw.Data),
			Status:          paddleString(raw.Data, "status"),
		}, nil

	case "subscription.canceled":
		return SubscriptionDeleted{
			EventMeta:       meta,
			SubscriptionRef: paddleString(raw.Data, "id"),
		}, nil

	default:
		return UnknownEvent{EventMeta: meta, Type: raw.EventType}, nil
	}
}

func paddleString(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

func paddleCustomData(data map[string]any, key string) string {
	custom, _ := data["custom_data"].(map[string]any)
	s, _ := custom[key].(string)
	return s
}

func paddlePriceRef(data map[string]any) string {
	items, _ := data["items"].([]any)
	if len(items) == 0 {
		return ""
	}
	item, _ := items[0].(map[string]any)
	price, _ := item["price"].(map[string]any)
	return paddleString(price, "id")
}
