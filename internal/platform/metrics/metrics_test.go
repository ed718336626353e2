package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryExposesBuildInfoAndModuleMetrics(t *testing.T) {
	reg := NewRegistry("1.2.3", "test")
	promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name: "registry_test_total",
		Help: "test counter",
	}).Inc()

	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `registry_build_info{environment="test",version="1.2.3"} 1`)
	assert.Contains(t, body, "registry_test_total 1")
	assert.Contains(t, body, "go_goroutines")
}
