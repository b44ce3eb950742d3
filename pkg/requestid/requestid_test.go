package requestid_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helioslabs/billingkit/pkg/requestid"
)

func TestMiddleware(t *testing.T) {
	t.Parallel()

	serve := func(t *testing.T, header string) (string, *httptest.ResponseRecorder) {
		t.Helper()

		var captured string
		handler := requestid.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = requestid.FromContext(r.Context())
			w.WriteHeader(http.StatusNoContent)
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set(requestid.Header, header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return captured, rec
	}

	t.Run("propagates inbound id", func(t *testing.T) {
		t.Parallel()

		id, rec := serve(t, "req_abc-123")
		assert.Equal(t, "req_abc-123", id)
		assert.Equal(t, "req_abc-123", rec.Header().Get(requestid.Header))
	})

	t.Run("generates when absent", func(t *testing.T) {
		t.Parallel()

		id, rec := serve(t, "")
		_, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Equal(t, id, rec.Header().Get(requestid.Header))
	})

	t.Run("rejects invalid characters", func(t *testing.T) {
		t.Parallel()

		id, _ := serve(t, "bad id\n")
		assert.NotEqual(t, "bad id\n", id)
		_, err := uuid.Parse(id)
		require.NoError(t, err)
	})

	t.Run("rejects oversized id", func(t *testing.T) {
		t.Parallel()

		id, _ := serve(t, strings.Repeat("a", 129))
		_, err := uuid.Parse(id)
		require.NoError(t, err)
	})
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	assert.Empty(t, requestid.FromContext(context.Background()))

	ctx := requestid.WithContext(context.Background(), "req_1")
	assert.Equal(t, "req_1", requestid.FromContext(ctx))
}

func TestLoggerExtractor(t *testing.T) {
	t.Parallel()

	extract := requestid.LoggerExtractor()

	attr, ok := extract(requestid.WithContext(context.Background(), "req_1"))
	require.True(t, ok)
	assert.Equal(t, slog.String("request_id", "req_1"), attr)

	_, ok = extract(context.Background())
	assert.False(t, ok)
}
