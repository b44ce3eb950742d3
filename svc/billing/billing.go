package billing

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/helioslabs/billingkit/pkg/logger"
	"github.com/helioslabs/billingkit/pkg/subscription"
)

// signatureHeaders maps the provider route parameter to the header carrying
// the webhook signature.
var signatureHeaders = map[string]string{
	"stripe": "Stripe-Signature",
	"paddle": "Paddle-Signature",
}

// Module exposes the billing HTTP surface: webhook ingestion, checkout and
// portal initiation, account bootstrap, and the subscription read endpoint.
type Module struct {
	svc      subscription.Service
	provider string // which provider this deployment is wired to
	log      *slog.Logger
}

// Option configures the Module.
type Option func(*Module)

// WithLogger sets the module logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Module) {
		if log != nil {
			m.log = log
		}
	}
}

// New creates the billing module bound to one provider ("stripe" or
// "paddle"). Panics on nil service or unknown provider to fail fast during
// initialization.
func New(svc subscription.Service, provider string, opts ...Option) *Module {
	if svc == nil {
		panic("billing: subscription.Service is required")
	}
	if _, ok := signatureHeaders[provider]; !ok {
		panic("billing: unknown provider " + provider)
	}

	m := &Module{
		svc:      svc,
		provider: provider,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With(logger.Component("billing"))
	return m
}

// Router returns the module's routes, ready to mount:
//
//	r.Mount("/billing", module.Router())
func (m *Module) Router() chi.Router {
	r := chi.NewRouter()

	r.Post("/webhooks/{provider}", m.handleWebhook)
	r.Post("/checkout", m.handleCheckout)
	r.Post("/portal", m.handlePortal)
	r.Post("/accounts", m.handleCreateAccount)
	r.Get("/accounts/{id}/subscription", m.handleGetSubscription)

	return r
}

// Handle implements the mountable-module convention.
func (m *Module) Handle() http.Handler {
	return m.Router()
}
