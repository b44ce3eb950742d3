package subscription_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/helioslabs/billingkit/pkg/account"
	"github.com/helioslabs/billingkit/pkg/alert"
	"github.com/helioslabs/billingkit/pkg/billing"
	"github.com/helioslabs/billingkit/pkg/entitlement"
	"github.com/helioslabs/billingkit/pkg/subscription"
)

// Mock implementations
type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) CreateCustomer(ctx context.Context, accountID, email string) (string, error) {
	args := m.Called(ctx, accountID, email)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) CreateCheckoutSession(ctx context.Context, req billing.CheckoutRequest) (*billing.Session, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Session), args.Error(1)
}

func (m *mockProvider) CreatePortalSession(ctx context.Context, customerRef, returnURL string) (*billing.Session, error) {
	args := m.Called(ctx, customerRef, returnURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Session), args.Error(1)
}

func (m *mockProvider) GetSubscription(ctx context.Context, subscriptionRef string) (*billing.Subscription, error) {
	args := m.Called(ctx, subscriptionRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Subscription), args.Error(1)
}

func (m *mockProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (billing.Event, error) {
	args := m.Called(ctx, payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(billing.Event), args.Error(1)
}

type spyNotifier struct {
	anomalies []alert.Anomaly
}

func (n *spyNotifier) Notify(_ context.Context, a alert.Anomaly) error {
	n.anomalies = append(n.anomalies, a)
	return nil
}

// Test helpers
func testPriceTable() billing.PriceTable {
	return billing.NewPriceTable(map[string]billing.PricePoint{
		"price_simple_eur":  {Plan: entitlement.PlanSimple, Currency: "EUR"},
		"price_simple_usd":  {Plan: entitlement.PlanSimple, Currency: "USD"},
		"price_premium_eur": {Plan: entitlement.PlanPremium, Currency: "EUR"},
		"price_premium_usd": {Plan: entitlement.PlanPremium, Currency: "USD"},
		"price_pro_eur":     {Plan: entitlement.PlanPro, Currency: "EUR"},
	})
}

func TestEnsureAccount(t *testing.T) {
	t.Parallel()

	store := account.NewMemoryStore()
	provider := new(mockProvider)
	svc := subscription.NewService(store, provider, testPriceTable())

	acc, err := svc.EnsureAccount(context.Background(), "usr_1", "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, entitlement.PlanFree, acc.Plan)
	assert.Equal(t, account.StatusAbsent, acc.SubscriptionStatus)

	// Second authentication returns the existing record instead of erroring.
	again, err := svc.EnsureAccount(context.Background(), "usr_1", "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, again.ID)
	assert.Equal(t, acc.Version, again.Version)
}

func TestStartCheckout(t *testing.T) {
	t.Parallel()

	t.Run("creates billing customer lazily", func(t *testing.T) {
		t.Parallel()

		store := account.NewMemoryStore()
		require.NoError(t, store.Create(context.Background(), account.New("usr_1", "a@example.com")))

		provider := new(mockProvider)
		provider.On("CreateCustomer", mock.Anything, "usr_1", "a@example.com").
			Return("cus_123", nil).Once()
		provider.On("CreateCheckoutSession", mock.Anything, billing.CheckoutRequest{
			AccountID:   "usr_1",
			CustomerRef: "cus_123",
			Email:       "a@example.com",
			PriceRef:    "price_premium_usd",
			SuccessURL:  "https://app.test/ok",
			CancelURL:   "https://app.test/no",
		}).Return(&billing.Session{ID: "cs_1", URL: "https://pay.test/cs_1"}, nil).Once()

		svc := subscription.NewService(store, provider, testPriceTable())

		session, err := svc.StartCheckout(context.Background(), subscription.CheckoutParams{
			AccountID:  "usr_1",
			Plan:       entitlement.PlanPremium,
			Locale:     "en-US",
			SuccessURL: "https://app.test/ok",
			CancelURL:  "https://app.test/no",
		})
		require.NoError(t, err)
		assert.Equal(t, "https://pay.test/cs_1", session.URL)

		// The customer ref must be persisted so the next checkout reuses it.
		acc, err := store.Get(context.Background(), "usr_1")
		require.NoError(t, err)
		assert.Equal(t, "cus_123", acc.BillingCustomerRef)

		provider.AssertExpectations(t)
	})

	t.Run("reuses existing billing customer", func(t *testing.T) {
		t.Parallel()

		store := account.NewMemoryStore()
		acc := account.New("usr_2", "b@example.com")
		acc.BillingCustomerRef = "cus_existing"
		acc.Currency = account.CurrencyEUR
		require.NoError(t, store.Create(context.Background(), acc))

		provider := new(mockProvider)
		provider.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(req billing.CheckoutRequest) bool {
			return req.CustomerRef == "cus_existing" && req.PriceRef == "price_pro_eur"
		})).Return(&billing.Session{ID: "cs_2", URL: "https://pay.test/cs_2"}, nil).Once()

		svc := subscription.NewService(store, provider, testPriceTable())

		_, err := svc.StartCheckout(context.Background(), subscription.CheckoutParams{
			AccountID: "usr_2",
			Plan:      entitlement.PlanPro,
			Locale:    "en-US", // stored currency wins over locale
		})
		require.NoError(t, err)

		provider.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything, mock.Anything)
		provider.AssertExpectations(t)
	})

	t.Run("rejects free plan", func(t *testing.T) {
		t.Parallel()

		store := account.NewMemoryStore()
		svc := subscription.NewService(store, new(mockProvider), testPriceTable())

		_, err := svc.StartCheckout(context.Background(), subscription.CheckoutParams{
			AccountID: "usr_1",
			Plan:      entitlement.PlanFree,
		})
		assert.ErrorIs(t, err, subscription.ErrPlanNotPurchasable)
	})

	t.Run("rejects unknown plan", func(t *testing.T) {
		t.Parallel()

		store := account.NewMemoryStore()
		svc := subscription.NewService(store, new(mockProvider), testPriceTable())

		_, err := svc.StartCheckout(context.Background(), subscription.CheckoutParams{
			AccountID: "usr_1",
			Plan:      entitlement.Plan("enterprise"),
		})
		assert.ErrorIs(t, err, subscription.ErrPlanNotPurchasable)
	})

	t.Run("unknown account", func(t *testing.T) {
		t.Parallel()

		store := account.NewMemoryStore()
		svc := subscription.NewService(store, new(mockProvider), testPriceTable())

		_, err := svc.StartCheckout(context.Background(), subscription.CheckoutParams{
			AccountID: "usr_missing",
			Plan:      entitlement.PlanSimple,
		})
		assert.ErrorIs(t, err, subscription.ErrUnknownAccount)
	})

	t.Run("no price for plan and currency", func(t *testing.T) {
		t.Parallel()

		store := account.NewMemoryStore()
		require.NoError(t, store.Create(context.Background(), account.New("usr_3", "c@example.com")))

		svc := subscription.NewService(store, new(mockProvider), testPriceTable())

		_, err := svc.StartCheckout(context.Background(), subscription.CheckoutParams{
			AccountID: "usr_3",
			Plan:      entitlement.PlanPro,
			Currency:  account.CurrencyUSD, // table sells pro in EUR only
		})
		assert.ErrorIs(t, err, subscription.ErrNoPriceForPlan)
	})
}

func TestStartPortal(t *testing.T) {
	t.Parallel()

	t.Run("opens portal for billing customer", func(t *testing.T) {
		t.Parallel()

		store := account.NewMemoryStore()
		acc := account.New("usr_1", "a@example.com")
		acc.BillingCustomerRef = "cus_123"
		require.NoError(t, store.Create(context.Background(), acc))

		provider := new(mockProvider)
		provider.On("CreatePortalSession", mock.Anything, "cus_123", "https://app.test/settings").
			Return(&billing.Session{ID: "ps_1", URL: "https://pay.test/portal"}, nil).Once()

		svc := subscription.NewService(store, provider, testPriceTable())

		session, err := svc.StartPortal(context.Background(), "usr_1", "https://app.test/settings")
		require.NoError(t, err)
		assert.Equal(t, "https://pay.test/portal", session.URL)
		provider.AssertExpectations(t)
	})

	t.Run("no billing identity", func(t *testing.T) {
		t.Parallel()

		store := account.NewMemoryStore()
		require.NoError(t, store.Create(context.Background(), account.New("usr_1", "a@example.com")))

		svc := subscription.NewService(store, new(mockProvider), testPriceTable())

		_, err := svc.StartPortal(context.Background(), "usr_1", "https://app.test/settings")
		assert.ErrorIs(t, err, subscription.ErrNoBillingIdentity)
	})

	t.Run("unknown account", func(t *testing.T) {
		t.Parallel()

		svc := subscription.NewService(account.NewMemoryStore(), new(mockProvider), testPriceTable())

		_, err := svc.StartPortal(context.Background(), "usr_missing", "https://app.test")
		assert.ErrorIs(t, err, subscription.ErrUnknownAccount)
	})
}

func TestPreferredCurrency(t *testing.T) {
	t.Parallel()

	tests := []struct {
		locale string
		want   account.Currency
	}{
		{"en-US", account.CurrencyUSD},
		{"en_US", account.CurrencyUSD},
		{"en-CA", account.CurrencyUSD},
		{"fr-FR", account.CurrencyEUR},
		{"de_DE", account.CurrencyEUR},
		{"en-GB", account.CurrencyEUR},
		{"", account.CurrencyEUR},
	}

	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, subscription.PreferredCurrency(tt.locale))
		})
	}
}
