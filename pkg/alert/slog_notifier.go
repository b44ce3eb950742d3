package alert

import (
	"context"
	"log/slog"
)

// SlogNotifier writes anomalies to the structured log at error level. It is
// the default channel and the fallback when email is not configured.
type SlogNotifier struct {
	log *slog.Logger
}

// NewSlogNotifier returns a log-backed notifier. A nil logger falls back to
// slog.Default.
func NewSlogNotifier(log *slog.Logger) *SlogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &SlogNotifier{log: log}
}

func (n *SlogNotifier) Notify(ctx context.Context, a Anomaly) error {
	attrs := make([]any, 0, 2+len(a.Details)*2)
	attrs = append(attrs, "kind", a.Kind)
	for k, v := range a.Details {
		attrs = append(attrs, k, v)
	}
	n.log.ErrorContext(ctx, a.Summary, attrs...)
	return nil
}
