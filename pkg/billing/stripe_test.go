package billing_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/helioslabs/billingkit/pkg/billing"
)

const testWebhookSecret = "whsec_test_secret"

func newTestStripeProvider(t *testing.T) *billing.StripeProvider {
	t.Helper()

	provider, err := billing.NewStripeProvider(billing.StripeConfig{
		SecretKey:     "sk_test_123",
		WebhookSecret: testWebhookSecret,
	})
	require.NoError(t, err)
	return provider
}

func signPayload(payload string) string {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
		Scheme:    "v1",
	})
	return signed.Header
}

func TestNewStripeProviderValidation(t *testing.T) {
	t.Parallel()

	_, err := billing.NewStripeProvider(billing.StripeConfig{WebhookSecret: "whsec_x"})
	assert.ErrorIs(t, err, billing.ErrMissingAPIKey)

	_, err = billing.NewStripeProvider(billing.StripeConfig{SecretKey: "sk_test_x"})
	assert.ErrorIs(t, err, billing.ErrMissingWebhookSecret)
}

func TestStripeParseWebhookRejectsInvalidSignature(t *testing.T) {
	t.Parallel()

	provider := newTestStripeProvider(t)
	payload := `{"id":"evt_1","type":"checkout.session.completed","data":{"object":{}}}`

	_, err := provider.ParseWebhook(context.Background(), []byte(payload), "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, billing.ErrInvalidSignature)

	_, err = provider.ParseWebhook(context.Background(), []byte(payload), "")
	assert.ErrorIs(t, err, billing.ErrInvalidSignature)
}

func TestStripeParseWebhookRejectsStaleTimestamp(t *testing.T) {
	t.Parallel()

	provider := newTestStripeProvider(t)
	payload := `{"id":"evt_1","type":"checkout.session.completed","data":{"object":{}}}`

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testWebhookSecret,
		Timestamp: time.Now().Add(-time.Hour),
		Scheme:    "v1",
	})

	_, err := provider.ParseWebhook(context.Background(), []byte(payload), signed.Header)
	assert.ErrorIs(t, err, billing.ErrInvalidSignature)
}

func TestStripeParseWebhookCheckoutCompleted(t *testing.T) {
	t.Parallel()

	provider := newTestStripeProvider(t)
	payload := fmt.Sprintf(`{
		"id": "evt_checkout_1",
		"type": "checkout.session.completed",
		"created": %d,
		"data": {"object": {
			"id": "cs_test_1",
			"mode": "subscription",
			"customer": "cus_123",
			"subscription": "sub_456",
			"client_reference_id": "acct_789"
		}}
	}`, time.Now().Unix())

	event, err := provider.ParseWebhook(context.Background(), []byte(payload), signPayload(payload))
	require.NoError(t, err)

	checkout, ok := event.(billing.CheckoutCompleted)
	require.True(t, ok, "expected CheckoutCompleted, got %T", event)
	assert.Equal(t, "evt_checkout_1", checkout.ID())
	assert.Equal(t, "acct_789", checkout.AccountID)
	assert.Equal(t, "cus_123", checkout.CustomerRef)
	assert.Equal(t, "sub_456", checkout.SubscriptionRef)
	assert.False(t, checkout.OccurredAt().IsZero())
}

func TestStripeParseWebhookPaymentModeCheckoutIsIgnored(t *testing.T) {
	t.Parallel()

	provider := newTestStripeProvider(t)
	payload := `{
		"id": "evt_payment_1",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_test_2", "mode": "payment", "customer": "cus_123"}}
	}`

	event, err := provider.ParseWebhook(context.Background(), []byte(payload), signPayload(payload))
	require.NoError(t, err)
	assert.IsType(t, billing.UnknownEvent{}, event)
}

func TestStripeParseWebhookSubscriptionUpdated(t *testing.T) {
	t.Parallel()

	provider := newTestStripeProvider(t)
	payload := `{
		"id": "evt_sub_1",
		"type": "customer.subscription.updated",
		"created": 1700000000,
		"data": {"object": {
			"id": "sub_456",
			"customer": "cus_123",
			"status": "past_due",
			"items": {"data": [{"price": {"id": "price_premium_eur"}}]}
		}}
	}`

	event, err := provider.ParseWebhook(context.Background(), []byte(payload), signPayload(payload))
	require.NoError(t, err)

	updated, ok := event.(billing.SubscriptionUpdated)
	require.True(t, ok, "expected SubscriptionUpdated, got %T", event)
	assert.Equal(t, "sub_456", updated.SubscriptionRef)
	assert.Equal(t, "price_premium_eur", updated.PriceRef)
	assert.Equal(t, "past_due", updated.Status)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), updated.OccurredAt())
}

func TestStripeParseWebhookSubscriptionDeleted(t *testing.T) {
	t.Parallel()

	provider := newTestStripeProvider(t)
	payload := `{
		"id": "evt_del_1",
		"type": "customer.subscription.deleted",
		"data": {"object": {"id": "sub_456", "customer": "cus_123", "status": "canceled"}}
	}`

	event, err := provider.ParseWebhook(context.Background(), []byte(payload), signPayload(payload))
	require.NoError(t, err)

	deleted, ok := event.(billing.SubscriptionDeleted)
	require.True(t, ok, "expected SubscriptionDeleted, got %T", event)
	assert.Equal(t, "sub_456", deleted.SubscriptionRef)
}

func TestStripeParseWebhookUnknownType(t *testing.T) {
	t.Parallel()

	provider := newTestStripeProvider(t)
	payload := `{"id":"evt_inv_1","type":"invoice.finalized","data":{"object":{"id":"in_1"}}}`

	event, err := provider.ParseWebhook(context.Background(), []byte(payload), signPayload(payload))
	require.NoError(t, err)

	unknown, ok := event.(billing.UnknownEvent)
	require.True(t, ok, "expected UnknownEvent, got %T", event)
	assert.Equal(t, "invoice.finalized", unknown.Type)
}
