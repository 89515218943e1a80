package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/signet/internal/auth/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestInstrument(t *testing.T) {
	m := metrics.New()

	h := m.Instrument("/user/sign-in", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	for range 3 {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/user/sign-in", nil))
	}

	require.InDelta(t, 3, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/user/sign-in", "401")), 0)
}

func TestObserveOperation(t *testing.T) {
	m := metrics.New()
	m.ObserveOperation("sign_in", metrics.OutcomeSuccess)
	m.ObserveOperation("sign_in", metrics.OutcomeFailure)
	m.ObserveOperation("sign_in", metrics.OutcomeFailure)

	require.InDelta(t, 2, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("sign_in", metrics.OutcomeFailure)), 0)
}

func TestHandler(t *testing.T) {
	m := metrics.New()
	m.KVPurgedTotal.Add(4)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "signet_kv_purged_total 4")
	require.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestNew_IndependentRegistries(t *testing.T) {
	// Each call owns its registry, so building twice must not panic.
	require.NotPanics(t, func() {
		_ = metrics.New()
		_ = metrics.New()
	})
}
