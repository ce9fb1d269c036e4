package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountsByRouteAndStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	r.GET("/assets", func(c *gin.Context) {
		c.String(http.StatusOK, `{"groups":[]}`)
	})
	r.GET("/generations/:id", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	baseAssets := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/assets", "200"))
	baseMissing := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/generations/:id", "404"))
	baseUnrouted := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/nope", "404"))

	serve := func(target string) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	}
	serve("/assets")
	serve("/generations/0b6c2f2e")
	serve("/nope")

	// Matched routes count under the route template, keeping cardinality
	// independent of path parameters.
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/assets", "200")); got != baseAssets+1 {
		t.Errorf("assets counter = %v, want %v", got, baseAssets+1)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/generations/:id", "404")); got != baseMissing+1 {
		t.Errorf("generations counter = %v, want %v", got, baseMissing+1)
	}
	// Unrouted requests fall back to the raw path.
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/nope", "404")); got != baseUnrouted+1 {
		t.Errorf("unrouted counter = %v, want %v", got, baseUnrouted+1)
	}
}

func TestMetrics_InflightReturnsToZero(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	r.GET("/status", func(c *gin.Context) {
		if got := testutil.ToFloat64(httpInflight); got < 1 {
			t.Errorf("inflight during handler = %v, want >= 1", got)
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))

	if got := testutil.ToFloat64(httpInflight); got != 0 {
		t.Errorf("inflight after request = %v, want 0", got)
	}
}

func TestMetrics_SkipsSizeWhenUnknown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	// 204 with no body leaves the writer size at -1; the middleware must not
	// record a negative observation.
	r.DELETE("/generations/:id/favorite", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/generations/x/favorite", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
}
