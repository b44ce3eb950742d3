package billing

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/helioslabs/billingkit/pkg/account"
	pkgbilling "github.com/helioslabs/billingkit/pkg/billing"
	"github.com/helioslabs/billingkit/pkg/entitlement"
	"github.com/helioslabs/billingkit/pkg/logger"
	"github.com/helioslabs/billingkit/pkg/subscription"
)

const webhookBodyLimit = 1024 * 1024 // 1 MiB

type errorResponse struct {
	Error string `json:"error"`
}

type receivedResponse struct {
	Received bool `json:"received"`
}

// handleWebhook ingests provider webhooks. Status codes steer the provider's
// redelivery: 400 for unverifiable or malformed payloads (redelivery cannot
// help), 500 for transient failures (provider retries), 200 for everything
// applied or deliberately ignored.
func (m *Module) handleWebhook(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	header, ok := signatureHeaders[provider]
	if !ok || provider != m.provider {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown provider"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, webhookBodyLimit)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read request body"})
		return
	}

	err = m.svc.HandleWebhook(r.Context(), payload, r.Header.Get(header))
	switch {
	case errors.Is(err, pkgbilling.ErrInvalidSignature):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid signature"})
	case errors.Is(err, pkgbilling.ErrMalformedPayload):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed payload"})
	case err != nil:
		m.log.ErrorContext(r.Context(), "webhook processing failed",
			logger.Provider(provider), logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "processing failed"})
	default:
		writeJSON(w, http.StatusOK, receivedResponse{Received: true})
	}
}

type checkoutRequest struct {
	AccountID  string `json:"account_id"`
	Plan       string `json:"plan"`
	Currency   string `json:"currency,omitempty"`
	Locale     string `json:"locale,omitempty"`
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
}

type sessionResponse struct {
	SessionID string `json:"session_id,omitempty"`
	URL       string `json:"url"`
}

func (m *Module) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	session, err := m.svc.StartCheckout(r.Context(), subscription.CheckoutParams{
		AccountID:  req.AccountID,
		Plan:       entitlement.Plan(req.Plan),
		Currency:   account.Currency(req.Currency),
		Locale:     req.Locale,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	})
	if err != nil {
		m.writeServiceError(w, r, err, "checkout failed")
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{SessionID: session.ID, URL: session.URL})
}

type portalRequest struct {
	AccountID string `json:"account_id"`
	ReturnURL string `json:"return_url"`
}

func (m *Module) handlePortal(w http.ResponseWriter, r *http.Request) {
	var req portalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	session, err := m.svc.StartPortal(r.Context(), req.AccountID, req.ReturnURL)
	if err != nil {
		m.writeServiceError(w, r, err, "portal failed")
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{SessionID: session.ID, URL: session.URL})
}

type createAccountRequest struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (m *Module) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.ID == "" || req.Email == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "id and email are required"})
		return
	}

	acc, err := m.svc.EnsureAccount(r.Context(), req.ID, req.Email)
	if err != nil {
		m.writeServiceError(w, r, err, "account bootstrap failed")
		return
	}

	writeJSON(w, http.StatusOK, newSubscriptionView(acc))
}

type subscriptionView struct {
	AccountID          string `json:"account_id"`
	Plan               string `json:"plan"`
	SubscriptionStatus string `json:"subscription_status"`
	Currency           string `json:"currency,omitempty"`
	HasBillingIdentity bool   `json:"has_billing_identity"`
}

func newSubscriptionView(acc *account.Account) subscriptionView {
	return subscriptionView{
		AccountID:          acc.ID,
		Plan:               string(acc.Plan),
		SubscriptionStatus: string(acc.SubscriptionStatus),
		Currency:           string(acc.Currency),
		HasBillingIdentity: acc.HasBillingIdentity(),
	}
}

func (m *Module) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	acc, err := m.svc.GetAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		m.writeServiceError(w, r, err, "subscription lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, newSubscriptionView(acc))
}

// writeServiceError maps service errors onto HTTP statuses. Unmapped errors
// become an opaque 500 so no provider or store detail leaks to API clients.
func (m *Module) writeServiceError(w http.ResponseWriter, r *http.Request, err error, logMsg string) {
	switch {
	case errors.Is(err, subscription.ErrUnknownAccount):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "account not found"})
	case errors.Is(err, subscription.ErrPlanNotPurchasable):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "plan cannot be purchased"})
	case errors.Is(err, subscription.ErrNoPriceForPlan):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "no price configured for plan"})
	case errors.Is(err, subscription.ErrNoBillingIdentity):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "no billing history for account"})
	default:
		m.log.ErrorContext(r.Context(), logMsg, logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
