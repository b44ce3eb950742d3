package subscription

import (
	"log/slog"

	"github.com/helioslabs/billingkit/pkg/alert"
	"github.com/helioslabs/billingkit/pkg/dedup"
)

// ServiceOption configures a Service instance.
type ServiceOption func(*service)

// WithDedupMarker installs a processed-event marker, typically redis-backed.
// Without it every redelivered event takes the full reconciliation path,
// which is correct but slower.
func WithDedupMarker(m dedup.Marker) ServiceOption {
	return func(s *service) {
		if m != nil {
			s.marker = m
		}
	}
}

// WithNotifier routes anomalies (unrecognized price tiers, checkouts for
// unknown accounts) to the given notifier instead of the default slog one.
func WithNotifier(n alert.Notifier) ServiceOption {
	return func(s *service) {
		if n != nil {
			s.alerts = n
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMaxUpdateAttempts bounds the fetch-recompute-CAS loop. Values below 1
// are ignored.
func WithMaxUpdateAttempts(n int) ServiceOption {
	return func(s *service) {
		if n >= 1 {
			s.maxUpdateAttempts = n
		}
	}
}
