package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRenderIncludesParseMetrics(t *testing.T) {
	IncParseStarted()
	IncParseCompleted()
	IncGeneration()
	ObserveParseDurationMs(120)

	out := Render()
	for _, name := range []string{
		"# TYPE parse_started_total counter",
		"# TYPE parse_completed_total counter",
		"# TYPE parse_failed_total counter",
		"# TYPE generation_total counter",
		"# TYPE parse_duration_ms histogram",
		`parse_duration_ms_bucket{le="250"}`,
	} {
		assert.Contains(t, out, name)
	}
}

func TestHandlerServesTextFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/metrics", Handler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain"))
	assert.Contains(t, w.Body.String(), "parse_started_total")
}

func TestHistogramBucketsAreCumulative(t *testing.T) {
	h := newHistogram([]float64{10, 100})
	h.Observe(5)
	h.Observe(50)
	h.Observe(500)

	snap := h.Snapshot()
	assert.Equal(t, []uint64{1, 1}, snap.counts)
	var cumulative uint64
	for _, n := range snap.counts {
		cumulative += n
	}
	assert.Equal(t, uint64(2), cumulative)
	assert.Equal(t, uint64(3), snap.count)
	assert.Equal(t, float64(555), snap.sum)
}
