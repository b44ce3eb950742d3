package account

import "context"

// Store defines the durable account record boundary.
//
// GetBySubscriptionRef is a secondary-key lookup: billing events reference
// accounts by the provider's subscription ID, not the account ID, so every
// implementation must maintain an index on billing_subscription_ref.
//
// ConditionalUpdate is a compare-and-swap keyed on the record version. Two
// billing events for the same subscription may be processed concurrently;
// the version check guarantees a stale write cannot overwrite a newer one.
// Callers re-fetch and recompute on ErrVersionConflict.
type Store interface {
	// Create persists a new account. Returns ErrAlreadyExists if the ID is taken.
	Create(ctx context.Context, acc *Account) error

	// Get retrieves an account by its primary ID.
	// Returns ErrNotFound if no record exists.
	Get(ctx context.Context, id string) (*Account, error)

	// GetBySubscriptionRef retrieves an account by the billing provider's
	// subscription reference. Returns ErrNotFound if no record matches.
	GetBySubscriptionRef(ctx context.Context, ref string) (*Account, error)

	// ConditionalUpdate applies the patch only if the stored version equals
	// expectedVersion, returning the updated record. Returns
	// ErrVersionConflict when the record moved, ErrNotFound when it is gone.
	ConditionalUpdate(ctx context.Context, id string, expectedVersion int64, patch Patch) (*Account, error)
}
