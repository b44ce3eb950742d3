package alert

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/mrz1836/postmark"
)

// EmailConfig holds the Postmark credentials and addresses for operator
// alert email.
type EmailConfig struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"ALERT_SENDER_EMAIL"`
	OperatorEmail        string `env:"ALERT_OPERATOR_EMAIL"`
}

// Configured reports whether the config is complete enough to send email.
func (c EmailConfig) Configured() bool {
	return c.PostmarkServerToken != "" && c.SenderEmail != "" && c.OperatorEmail != ""
}

// EmailNotifier delivers anomalies to the operator inbox via Postmark.
// Billing anomalies affect paying customers, so a log line alone is easy
// to miss; email gives them a pull-free escalation path.
type EmailNotifier struct {
	client *postmark.Client
	config EmailConfig
}

// NewEmailNotifier creates a Postmark-backed notifier.
func NewEmailNotifier(cfg EmailConfig) (*EmailNotifier, error) {
	if !cfg.Configured() {
		return nil, errors.Join(ErrInvalidConfig,
			errors.New("postmark server token, sender and operator email are required"))
	}
	return &EmailNotifier{
		client: postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		config: cfg,
	}, nil
}

func (n *EmailNotifier) Notify(ctx context.Context, a Anomaly) error {
	resp, err := n.client.SendEmail(ctx, postmark.Email{
		From:     n.config.SenderEmail,
		To:       n.config.OperatorEmail,
		Subject:  fmt.Sprintf("[billing anomaly] %s", a.Kind),
		Tag:      a.Kind,
		HTMLBody: renderAnomaly(a),
	})
	if err != nil {
		return errors.Join(ErrFailedToNotify, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(ErrFailedToNotify,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message))
	}
	return nil
}

func renderAnomaly(a Anomaly) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<p>%s</p><ul>", html.EscapeString(a.Summary))
	keys := make([]string, 0, len(a.Details))
	for k := range a.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "<li><strong>%s</strong>: %s</li>",
			html.EscapeString(k), html.EscapeString(a.Details[k]))
	}
	b.WriteString("</ul>")
	return b.String()
}
