package billing

import "errors"

var (
	ErrInvalidSignature      = errors.New("webhook signature verification failed")
	ErrMalformedPayload      = errors.New("malformed webhook payload")
	ErrUnrecognizedPriceTier = errors.New("unrecognized price tier")
	ErrProviderFailure       = errors.New("billing provider request failed")

	ErrMissingAPIKey        = errors.New("billing provider API key is required")
	ErrMissingWebhookSecret = errors.New("billing provider webhook secret is required")
	ErrNoSessionURL         = errors.New("no session URL returned from provider")
)
