package access_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helioslabs/billingkit/pkg/access"
	"github.com/helioslabs/billingkit/pkg/entitlement"
)

func TestMiddleware(t *testing.T) {
	t.Parallel()

	guard := access.NewGuard(seedStore(t), entitlement.Default())

	var gotDecision access.Decision
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d, ok := access.GetDecisionFromContext(r.Context())
		require.True(t, ok)
		gotDecision = d
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		apiKey     string
		required   []entitlement.Feature
		wantStatus int
		wantError  string
	}{
		{
			name:       "allowed",
			apiKey:     "usr_simple",
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing key",
			wantStatus: http.StatusUnauthorized,
			wantError:  "unauthenticated",
		},
		{
			name:       "free plan",
			apiKey:     "usr_free",
			wantStatus: http.StatusPaymentRequired,
			wantError:  "plan_required",
		},
		{
			name:       "suspended subscription",
			apiKey:     "usr_past_due",
			wantStatus: http.StatusPaymentRequired,
			wantError:  "subscription_inactive",
		},
		{
			name:       "missing feature",
			apiKey:     "usr_simple",
			required:   []entitlement.Feature{entitlement.FeaturePremium},
			wantStatus: http.StatusForbidden,
			wantError:  "feature_not_entitled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := access.Middleware(guard, tt.required...)(next)

			r := httptest.NewRequest(http.MethodGet, "/v1/data", nil)
			if tt.apiKey != "" {
				r.Header.Set(access.APIKeyHeader, tt.apiKey)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantError != "" {
				var body map[string]string
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, tt.wantError, body["error"])
			}
		})
	}

	assert.Equal(t, "usr_simple", gotDecision.AccountID)
	assert.Equal(t, int64(1000), gotDecision.RequestQuota)
}

func TestMiddlewareStoreFailure(t *testing.T) {
	t.Parallel()

	guard := access.NewGuard(failingStore{}, nil)
	handler := access.Middleware(guard)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	}))

	r := httptest.NewRequest(http.MethodGet, "/v1/data", nil)
	r.Header.Set(access.APIKeyHeader, "usr_any")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
