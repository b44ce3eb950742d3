package subscription

import (
	"context"
	"errors"
	"log/slog"

	"github.com/helioslabs/billingkit/pkg/account"
	"github.com/helioslabs/billingkit/pkg/alert"
	"github.com/helioslabs/billingkit/pkg/billing"
	"github.com/helioslabs/billingkit/pkg/dedup"
	"github.com/helioslabs/billingkit/pkg/entitlement"
	"github.com/helioslabs/billingkit/pkg/logger"
)

// Service owns the account's billing-related state: it reconciles provider
// webhook events into the account store and opens provider-hosted checkout
// and portal sessions. It is the only writer of the billing fields on an
// account record.
type Service interface {
	// EnsureAccount returns the account for an authenticated identity,
	// creating a fresh free-plan record on first sight.
	EnsureAccount(ctx context.Context, id, email string) (*account.Account, error)

	// GetAccount returns the account record. Returns ErrUnknownAccount if
	// no record exists.
	GetAccount(ctx context.Context, id string) (*account.Account, error)

	// StartCheckout opens a provider-hosted checkout session for a paid
	// plan, lazily creating the billing customer on first purchase.
	StartCheckout(ctx context.Context, params CheckoutParams) (*billing.Session, error)

	// StartPortal opens the provider's customer portal. Returns
	// ErrNoBillingIdentity for accounts that never checked out.
	StartPortal(ctx context.Context, accountID, returnURL string) (*billing.Session, error)

	// HandleWebhook verifies and applies a raw provider webhook.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error

	// HandleEvent applies an already-verified billing event. Idempotent and
	// tolerant of out-of-order delivery.
	HandleEvent(ctx context.Context, event billing.Event) error
}

// CheckoutParams describes a checkout to start.
type CheckoutParams struct {
	AccountID string
	Plan      entitlement.Plan
	// Currency overrides the account's stored currency. When both are
	// empty the Locale decides.
	Currency   account.Currency
	Locale     string
	SuccessURL string
	CancelURL  string
}

type service struct {
	store             account.Store
	provider          billing.Provider
	prices            billing.PriceTable
	marker            dedup.Marker
	alerts            alert.Notifier
	log               *slog.Logger
	maxUpdateAttempts int
}

// NewService creates a Service.
// Panics if store or provider is nil to fail fast during initialization.
// Optional collaborators (dedup marker, anomaly notifier, logger) are set
// through ServiceOption functions and default to no-op/slog implementations.
func NewService(store account.Store, provider billing.Provider, prices billing.PriceTable, opts ...ServiceOption) Service {
	if store == nil {
		panic("subscription: account.Store is required")
	}
	if provider == nil {
		panic("subscription: billing.Provider is required")
	}

	s := &service{
		store:             store,
		provider:          provider,
		prices:            prices,
		marker:            dedup.Noop{},
		log:               slog.Default(),
		maxUpdateAttempts: 5,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.alerts == nil {
		s.alerts = alert.NewSlogNotifier(s.log)
	}

	return s
}

func (s *service) EnsureAccount(ctx context.Context, id, email string) (*account.Account, error) {
	acc := account.New(id, email)
	err := s.store.Create(ctx, acc)
	if err == nil {
		s.log.InfoContext(ctx, "account bootstrapped", logger.AccountID(id))
		return acc, nil
	}
	if errors.Is(err, account.ErrAlreadyExists) {
		return s.store.Get(ctx, id)
	}
	return nil, errors.Join(ErrTransientStore, err)
}

func (s *service) GetAccount(ctx context.Context, id string) (*account.Account, error) {
	acc, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return nil, ErrUnknownAccount
		}
		return nil, errors.Join(ErrTransientStore, err)
	}
	return acc, nil
}

func (s *service) StartCheckout(ctx context.Context, params CheckoutParams) (*billing.Session, error) {
	if !params.Plan.Paid() {
		return nil, ErrPlanNotPurchasable
	}

	acc, err := s.GetAccount(ctx, params.AccountID)
	if err != nil {
		return nil, err
	}

	currency := params.Currency
	if currency == "" {
		currency = acc.Currency
	}
	if currency == "" {
		currency = PreferredCurrency(params.Locale)
	}

	priceRef := s.prices.PriceRefFor(params.Plan, string(currency))
	if priceRef == "" {
		return nil, ErrNoPriceForPlan
	}

	customerRef, err := s.ensureBillingCustomer(ctx, acc)
	if err != nil {
		return nil, err
	}

	session, err := s.provider.CreateCheckoutSession(ctx, billing.CheckoutRequest{
		AccountID:   acc.ID,
		CustomerRef: customerRef,
		Email:       acc.Email,
		PriceRef:    priceRef,
		SuccessURL:  params.SuccessURL,
		CancelURL:   params.CancelURL,
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "checkout session created",
		logger.AccountID(acc.ID),
		slog.String("plan", string(params.Plan)),
		slog.String("currency", string(currency)))

	return session, nil
}

func (s *service) StartPortal(ctx context.Context, accountID, returnURL string) (*billing.Session, error) {
	acc, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !acc.HasBillingIdentity() {
		return nil, ErrNoBillingIdentity
	}
	return s.provider.CreatePortalSession(ctx, acc.BillingCustomerRef, returnURL)
}

// ensureBillingCustomer returns the account's provider customer reference,
// creating one on first use. The reference is set once and survives
// cancellation so a returning customer keeps their provider history.
func (s *service) ensureBillingCustomer(ctx context.Context, acc *account.Account) (string, error) {
	if acc.HasBillingIdentity() {
		return acc.BillingCustomerRef, nil
	}

	customerRef, err := s.provider.CreateCustomer(ctx, acc.ID, acc.Email)
	if err != nil {
		return "", errors.Join(ErrFailedToCreateCustomer, err)
	}

	for attempt := 0; attempt < s.maxUpdateAttempts; attempt++ {
		updated, err := s.store.ConditionalUpdate(ctx, acc.ID, acc.Version, account.Patch{
			BillingCustomerRef: &customerRef,
		})
		if err == nil {
			*acc = *updated
			return customerRef, nil
		}
		if !errors.Is(err, account.ErrVersionConflict) {
			return "", errors.Join(ErrTransientStore, err)
		}

		fresh, err := s.store.Get(ctx, acc.ID)
		if err != nil {
			return "", errors.Join(ErrTransientStore, err)
		}
		// A concurrent request may have attached a customer already; the
		// first persisted reference wins to keep it set-once.
		if fresh.HasBillingIdentity() {
			*acc = *fresh
			return fresh.BillingCustomerRef, nil
		}
		*acc = *fresh
	}

	return "", ErrTransientStore
}
