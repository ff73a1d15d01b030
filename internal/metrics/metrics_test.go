package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistriesAreIndependent(t *testing.T) {
	a := New()
	b := New()

	a.RenderPasses.WithLabelValues("ok").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.RenderPasses.WithLabelValues("ok")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.RenderPasses.WithLabelValues("ok")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ExtensionCalls.WithLabelValues("random", OutcomeValue).Inc()
	m.RemoteDropped.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `snipd_extension_calls_total{extension="random",outcome="value"} 1`), body)
	assert.Contains(t, body, "snipd_remote_commands_dropped_total 1")
}

func TestMuxServesExtraRoutes(t *testing.T) {
	m := New()
	mux := m.Mux(map[string]http.Handler{
		"/healthz": http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}),
	})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
