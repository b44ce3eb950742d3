package access

import (
	"encoding/json"
	"net/http"

	"github.com/helioslabs/billingkit/pkg/entitlement"
)

// APIKeyHeader is where clients present their credential.
const APIKeyHeader = "X-API-Key"

// Middleware enforces the guard on every request and stores the allow
// decision in the request context for downstream metering.
//
// Status mapping:
//   - unauthenticated: 401
//   - subscription_inactive, plan_required: 402 (fixable by paying)
//   - feature_not_entitled: 403 (fixable by upgrading)
//   - store failure: 500
func Middleware(guard *Guard, required ...entitlement.Feature) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision, err := guard.Authorize(r.Context(), r.Header.Get(APIKeyHeader), required...)
			if err != nil {
				writeDenial(w, http.StatusInternalServerError, "internal_error")
				return
			}

			if !decision.Allowed {
				writeDenial(w, statusFor(decision.Reason), string(decision.Reason))
				return
			}

			next.ServeHTTP(w, r.WithContext(SetDecisionToContext(r.Context(), decision)))
		})
	}
}

func statusFor(reason Reason) int {
	switch reason {
	case ReasonUnauthenticated:
		return http.StatusUnauthorized
	case ReasonSubscriptionInactive, ReasonPlanRequired:
		return http.StatusPaymentRequired
	case ReasonFeatureNotEntitled:
		return http.StatusForbidden
	default:
		return http.StatusForbidden
	}
}

func writeDenial(w http.ResponseWriter, status int, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": reason})
}
