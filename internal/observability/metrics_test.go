package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCount(t *testing.T, gatherer prometheus.Gatherer, name string) uint64 {
	t.Helper()
	families, err := gatherer.Gather()
	require.NoError(t, err)
	var n uint64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			n += m.GetHistogram().GetSampleCount()
		}
	}
	return n
}

func TestObserveSimulation(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	c.ObserveSimulation(OutcomeOK, 3*time.Millisecond, 12)
	c.ObserveSimulation(OutcomeOK, time.Millisecond, 4)
	c.ObserveSimulation(OutcomeDiverged, time.Second, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Simulations.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Simulations.WithLabelValues(OutcomeDiverged)))
	assert.Equal(t, uint64(2), sampleCount(t, reg, "poolsim_simulation_events"), "failed runs are not timed")
}

func TestCacheAndPlaybackGauges(t *testing.T) {
	c, err := NewCollector(prometheus.NewRegistry())
	require.NoError(t, err)

	c.CacheLookup(true)
	c.CacheLookup(false)
	c.CacheLookup(false)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.CacheLookups.WithLabelValues("miss")))

	done := c.PlaybackStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Playbacks))
	done()
	assert.Equal(t, 0.0, testutil.ToFloat64(c.Playbacks))
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	c.ObserveSimulation(OutcomeOK, time.Millisecond, 1)
	c.CacheLookup(true)
	c.PlaybackStarted()()
	assert.NotNil(t, c.Handler())
}

func TestRegisterTwiceReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewCollector(reg)
	require.NoError(t, err)
	second, err := NewCollector(reg)
	require.NoError(t, err)
	assert.Same(t, first.Simulations, second.Simulations)
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	r := gin.New()
	r.Use(c.Middleware())
	r.GET("/shots/:id", func(ctx *gin.Context) { ctx.Status(http.StatusNotFound) })
	r.GET("/metrics", gin.WrapH(c.Handler()))

	for _, id := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/shots/"+id, nil))
		require.Equal(t, http.StatusNotFound, w.Code)
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(c.HTTPRequests.WithLabelValues("GET", "/shots/:id", "404")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body, _ := io.ReadAll(w.Body)
	assert.True(t, strings.Contains(string(body), `poolsim_http_requests_total{code="404",method="GET",route="/shots/:id"} 2`))
}
