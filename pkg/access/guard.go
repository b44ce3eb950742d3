package access

import (
	"context"
	"errors"
	"log/slog"

	"github.com/helioslabs/billingkit/pkg/account"
	"github.com/helioslabs/billingkit/pkg/entitlement"
)

// Reason explains a denial. It is stable and machine-readable so API
// consumers can distinguish "buy a plan" from "your payment failed".
type Reason string

const (
	// ReasonUnauthenticated covers missing keys and keys matching no
	// account. The two are indistinguishable on purpose.
	ReasonUnauthenticated Reason = "unauthenticated"

	// ReasonSubscriptionInactive means the account holds a paid plan whose
	// subscription is not currently active (past due, canceled, trialing
	// pending payment). Entitlements are suspended until billing recovers.
	ReasonSubscriptionInactive Reason = "subscription_inactive"

	// ReasonPlanRequired means the account's plan grants no metered access
	// at all (the free tier).
	ReasonPlanRequired Reason = "plan_required"

	// ReasonFeatureNotEntitled means the plan is fine but lacks a feature
	// the endpoint requires.
	ReasonFeatureNotEntitled Reason = "feature_not_entitled"
)

// Decision is the guard's verdict on one request.
type Decision struct {
	Allowed bool
	Reason  Reason // empty when allowed

	// AccountID, Plan, and RequestQuota are populated on allow so callers
	// can meter and attribute the request without a second lookup.
	AccountID    string
	Plan         entitlement.Plan
	RequestQuota int64
}

func allow(acc *account.Account, limits entitlement.Limits) Decision {
	return Decision{
		Allowed:      true,
		AccountID:    acc.ID,
		Plan:         acc.Plan,
		RequestQuota: limits.RequestQuota,
	}
}

func deny(reason Reason) Decision {
	return Decision{Reason: reason}
}

// Guard decides whether an API credential may use the service. It reads the
// account record and the entitlement table; it never writes, counts, or
// rate-limits.
type Guard struct {
	store account.Store
	table entitlement.Table
	log   *slog.Logger
}

// NewGuard creates a Guard.
// Panics if store is nil to fail fast during initialization. A nil table
// falls back to the built-in entitlement table.
func NewGuard(store account.Store, table entitlement.Table, opts ...GuardOption) *Guard {
	if store == nil {
		panic("access: account.Store is required")
	}
	if table == nil {
		table = entitlement.Default()
	}

	g := &Guard{
		store: store,
		table: table,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithLogger sets the guard logger.
func WithLogger(log *slog.Logger) GuardOption {
	return func(g *Guard) {
		if log != nil {
			g.log = log
		}
	}
}

// Authorize decides whether the credential may perform a request needing the
// given features. The credential is the account ID itself; verifying who
// holds it is the identity provider's job, upstream of this guard.
//
// The error return is reserved for infrastructure failures (store down);
// every policy outcome, including unknown credentials, is a Decision. The
// guard fails closed: when in doubt, deny.
func (g *Guard) Authorize(ctx context.Context, apiKey string, required ...entitlement.Feature) (Decision, error) {
	if apiKey == "" {
		return deny(ReasonUnauthenticated), nil
	}

	acc, err := g.store.Get(ctx, apiKey)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return deny(ReasonUnauthenticated), nil
		}
		return Decision{}, errors.Join(ErrStoreUnavailable, err)
	}

	// A paid plan is only worth its entitlements while the provider reports
	// the subscription active. Anything else (past due, canceled, stale
	// unknown status) suspends access until billing recovers.
	if acc.Plan.Paid() && acc.SubscriptionStatus != account.StatusActive {
		return deny(ReasonSubscriptionInactive), nil
	}

	limits := g.table.LimitsFor(acc.Plan)
	if !limits.Metered() {
		return deny(ReasonPlanRequired), nil
	}

	for _, feature := range required {
		if !limits.HasFeature(feature) {
			return deny(ReasonFeatureNotEntitled), nil
		}
	}

	return allow(acc, limits), nil
}
