package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAccumulate(t *testing.T) {
	m := New()

	m.SaveSucceeded("planet_state")
	m.SaveSucceeded("planet_state")
	m.SaveFailed("registry")
	m.LoadFellBack("planet_state", "corrupt")
	m.ObserveRegenerate(3 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.saves.WithLabelValues("planet_state")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.saveFailures.WithLabelValues("registry")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.loadFallbacks.WithLabelValues("planet_state", "corrupt")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.regenerations))
}

func TestNilMetricsAreNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.SaveSucceeded("x")
		m.SetMeshFaces("Grass", 3)
		m.JobFired("autosave")
	})
	assert.Nil(t, m.Registry())
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.SetMeshFaces("Grass", 12)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `voxel_mesh_faces{material="Grass"} 12`)
}

func TestEventAndHTTPMetrics(t *testing.T) {
	m := New()

	m.EventPublished("planet.saved", true)
	m.EventPublished("planet.saved", false)
	m.EventPublished("planet.saved", true)
	m.AddInflight(1)
	m.AddInflight(1)
	m.AddInflight(-1)
	m.ObserveHTTPRequest("GET", "/api/planets", 200, 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.events.WithLabelValues("planet.saved", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("planet.saved", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpInflight))
	assert.Equal(t, 1, testutil.CollectAndCount(m.httpDuration))
}
