package access

import "errors"

// ErrStoreUnavailable means the guard could not reach the account store.
// Distinct from every denial reason: the caller answers 500, not 401/403.
var ErrStoreUnavailable = errors.New("account store unavailable")
