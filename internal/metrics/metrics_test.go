package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthOutcome(t *testing.T) {
	m := New()

	m.AuthOutcome("login", "success")
	m.AuthOutcome("login", "success")
	m.AuthOutcome("login", "invalid_credentials")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.authOutcomes.WithLabelValues("login", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.authOutcomes.WithLabelValues("login", "invalid_credentials")))
}

func TestObserveRequest(t *testing.T) {
	m := New()

	m.ObserveRequest(http.MethodGet, "/members", http.StatusFound, 3*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "", http.StatusNotFound, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/members", "302")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "unmatched", "404")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.AuthOutcome("signup", "success")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `members_auth_outcomes_total{op="signup",outcome="success"} 1`)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
