package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeFetchCount(t *testing.T, backend, outcome string) float64 {
	t.Helper()
	families, err := Registry.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != "gateway_store_fetch_total" {
			continue
		}
		for _, m := range family.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["backend"] == backend && labels["outcome"] == outcome {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestObserveStoreFetch(t *testing.T) {
	before := storeFetchCount(t, "firebase", OutcomeEmpty)
	ObserveStoreFetch("firebase", OutcomeEmpty, 10*time.Millisecond)
	assert.Equal(t, before+1, storeFetchCount(t, "firebase", OutcomeEmpty))
}

func TestHandlerExportsOnlyGatewayCollectors(t *testing.T) {
	ObserveRequest("/health", http.MethodGet, http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "gateway_http_requests_total")
	assert.NotContains(t, string(body), "go_goroutines")
	assert.NotContains(t, string(body), "process_cpu_seconds_total")
}
