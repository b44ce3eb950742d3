package alert

import "context"

// Anomaly describes a condition an operator should look at: the system
// handled it with a safe default, but the default may be wrong for the
// customer involved.
type Anomaly struct {
	// Kind is a stable machine-readable identifier, e.g. "unrecognized_price_tier".
	Kind    string
	Summary string
	// Details carries the identifiers needed to investigate (price ref,
	// subscription ref, account ID).
	Details map[string]string
}

// Notifier delivers anomalies to an operator channel. Implementations must
// be safe for concurrent use; delivery failures are the caller's to log,
// never to propagate into request handling.
type Notifier interface {
	Notify(ctx context.Context, a Anomaly) error
}
