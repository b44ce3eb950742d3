package account

import (
	"time"

	"github.com/helioslabs/billingkit/pkg/entitlement"
)

// SubscriptionStatus is the provider-reported state of an account's
// subscription. StatusAbsent means no subscription exists.
type SubscriptionStatus string

const (
	StatusActive   SubscriptionStatus = "active"
	StatusTrialing SubscriptionStatus = "trialing"
	StatusPastDue  SubscriptionStatus = "past_due"
	StatusCanceled SubscriptionStatus = "canceled"
	StatusAbsent   SubscriptionStatus = "absent"
)

// Currency is the billing currency chosen at first subscription.
type Currency string

const (
	CurrencyEUR Currency = "EUR"
	CurrencyUSD Currency = "USD"
)

// Account is a user's durable identity and subscription record. The identity
// provider owns the ID and email; the plan, subscription reference, status,
// and sync timestamp are mutated only by the subscription reconciler.
type Account struct {
	ID    string
	Email string

	Plan entitlement.Plan

	// BillingCustomerRef is the billing provider's customer record. Set once
	// on first checkout and retained across cancellations so resubscription
	// reuses the same provider customer.
	BillingCustomerRef string

	// BillingSubscriptionRef is the provider's active subscription. Empty
	// when no subscription exists.
	BillingSubscriptionRef string

	SubscriptionStatus SubscriptionStatus

	Currency Currency

	// BillingSyncedAt is the provider timestamp of the most recent billing
	// event applied to this record. Events older than it are stale and must
	// not be applied, since provider delivery is unordered.
	BillingSyncedAt time.Time

	// Version increments on every write and backs conditional updates.
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// New returns a fresh free-plan account, the state every account starts in
// on first successful authentication.
func New(id, email string) *Account {
	now := time.Now().UTC()
	return &Account{
		ID:                 id,
		Email:              email,
		Plan:               entitlement.PlanFree,
		SubscriptionStatus: StatusAbsent,
		Version:            1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// HasBillingIdentity reports whether a provider customer record exists.
func (a *Account) HasBillingIdentity() bool {
	return a.BillingCustomerRef != ""
}

// Clone returns a deep copy, useful for stores that must not leak internal
// state to callers.
func (a *Account) Clone() *Account {
	cp := *a
	return &cp
}

// Patch describes a partial update to the billing-owned fields of an
// account. Nil fields are left untouched; a pointer to the zero value
// clears the field.
type Patch struct {
	Plan                   *entitlement.Plan
	BillingCustomerRef     *string
	BillingSubscriptionRef *string
	SubscriptionStatus     *SubscriptionStatus
	Currency               *Currency
	BillingSyncedAt        *time.Time
}

// IsZero reports whether the patch would change nothing.
func (p Patch) IsZero() bool {
	return p.Plan == nil && p.BillingCustomerRef == nil && p.BillingSubscriptionRef == nil &&
		p.SubscriptionStatus == nil && p.Currency == nil && p.BillingSyncedAt == nil
}

// Prune drops fields whose value the account already holds, leaving only
// the changes a write would actually make. A redelivered billing event
// prunes down to a zero patch, which callers skip instead of writing, so
// the record (version included) stays byte-identical on reapplication.
func (p Patch) Prune(a *Account) Patch {
	if p.Plan != nil && *p.Plan == a.Plan {
		p.Plan = nil
	}
	if p.BillingCustomerRef != nil && *p.BillingCustomerRef == a.BillingCustomerRef {
		p.BillingCustomerRef = nil
	}
	if p.BillingSubscriptionRef != nil && *p.BillingSubscriptionRef == a.BillingSubscriptionRef {
		p.BillingSubscriptionRef = nil
	}
	if p.SubscriptionStatus != nil && *p.SubscriptionStatus == a.SubscriptionStatus {
		p.SubscriptionStatus = nil
	}
	if p.Currency != nil && *p.Currency == a.Currency {
		p.Currency = nil
	}
	if p.BillingSyncedAt != nil && p.BillingSyncedAt.Equal(a.BillingSyncedAt) {
		p.BillingSyncedAt = nil
	}
	return p
}

// Apply writes the patch onto the account and bumps version and UpdatedAt.
// Store implementations use it to keep patch semantics identical across
// backends.
func (p Patch) Apply(a *Account) {
	if p.Plan != nil {
		a.Plan = *p.Plan
	}
	if p.BillingCustomerRef != nil {
		a.BillingCustomerRef = *p.BillingCustomerRef
	}
	if p.BillingSubscriptionRef != nil {
		a.BillingSubscriptionRef = *p.BillingSubscriptionRef
	}
	if p.SubscriptionStatus != nil {
		a.SubscriptionStatus = *p.SubscriptionStatus
	}
	if p.Currency != nil {
		a.Currency = *p.Currency
	}
	if p.BillingSyncedAt != nil {
		a.BillingSyncedAt = *p.BillingSyncedAt
	}
	a.Version++
	a.UpdatedAt = time.Now().UTC()
}
