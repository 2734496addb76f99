package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector("healthbuddy", reg)

	c.RoleAssignments.WithLabelValues("doctor", "success").Inc()
	c.RoleAssignments.WithLabelValues("doctor", "success").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(c.RoleAssignments.WithLabelValues("doctor", "success")))

	// A second collector on a separate registry must not collide.
	assert.NotPanics(t, func() { NewCollector("healthbuddy", prometheus.NewRegistry()) })
}

func TestMetricsHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector("healthbuddy", reg)
	c.AuditEntriesTotal.Inc()

	rec := httptest.NewRecorder()
	MetricsHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthbuddy_audit_entries_total 1")
}
