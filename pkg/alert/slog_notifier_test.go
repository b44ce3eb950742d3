package alert_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helioslabs/billingkit/pkg/alert"
)

func TestSlogNotifier(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	notifier := alert.NewSlogNotifier(log)
	err := notifier.Notify(context.Background(), alert.Anomaly{
		Kind:    "unrecognized_price_tier",
		Summary: "price ref not in price table",
		Details: map[string]string{"price_ref": "price_x", "subscription_ref": "sub_1"},
	})
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "ERROR", record["level"])
	assert.Equal(t, "price ref not in price table", record["msg"])
	assert.Equal(t, "unrecognized_price_tier", record["kind"])
	assert.Equal(t, "price_x", record["price_ref"])
}

func TestNewEmailNotifierRequiresConfig(t *testing.T) {
	t.Parallel()

	_, err := alert.NewEmailNotifier(alert.EmailConfig{})
	assert.ErrorIs(t, err, alert.ErrInvalidConfig)
}
