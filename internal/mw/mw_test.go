package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/time/rate"

	"calibration-backend/internal/cache"
	"calibration-backend/internal/observability"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func do(r http.Handler, method, target string, header http.Header) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter(t *testing.T) {
	r := gin.New()
	r.Use(RateLimiter(rate.Limit(1), 2))
	r.GET("/instruments", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/instruments", nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/instruments", nil).Code)

	w := do(r, http.MethodGet, "/instruments", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, w.Body.String())
}

func TestIPRateLimiter_PerIP(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(1), 1, time.Minute)
	a := l.GetLimiter("10.0.0.1")
	assert.Same(t, a, l.GetLimiter("10.0.0.1"))
	assert.NotSame(t, a, l.GetLimiter("10.0.0.2"))

	assert.True(t, a.Allow())
	assert.False(t, a.Allow())
	assert.True(t, l.GetLimiter("10.0.0.2").Allow())
	assert.Equal(t, 2, l.Tracked())
}

func TestIPRateLimiter_EvictsIdleClients(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(0.001), 1, 50*time.Millisecond)
	a := l.GetLimiter("10.0.0.1")
	require.True(t, a.Allow())
	require.False(t, l.GetLimiter("10.0.0.1").Allow())

	time.Sleep(120 * time.Millisecond)

	b := l.GetLimiter("10.0.0.1")
	assert.NotSame(t, a, b)
	assert.True(t, b.Allow())
}

func TestRateLimiter_RetryAfter(t *testing.T) {
	r := gin.New()
	r.Use(RateLimiter(rate.Limit(0.5), 1))
	r.GET("/instruments", func(c *gin.Context) { c.Status(http.StatusOK) })

	require.Equal(t, http.StatusOK, do(r, http.MethodGet, "/instruments", nil).Code)
	w := do(r, http.MethodGet, "/instruments", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))
}

func TestCache(t *testing.T) {
	store := cache.NewMemory(time.Minute)
	calls := 0

	r := gin.New()
	r.Use(RequestID(), Cache(store, time.Minute, zap.NewNop()))
	r.GET("/compliance/counts", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})
	r.GET("/missing", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusNotFound, gin.H{"error": "no"})
	})
	r.POST("/instruments", func(c *gin.Context) { c.Status(http.StatusCreated) })
	r.POST("/rejected", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	w := do(r, http.MethodGet, "/compliance/counts", nil)
	assert.Equal(t, "MISS", w.Header().Get(CacheHeader))
	assert.JSONEq(t, `{"calls":1}`, w.Body.String())

	w = do(r, http.MethodGet, "/compliance/counts", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get(CacheHeader))
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.JSONEq(t, `{"calls":1}`, w.Body.String())

	// A failed write leaves the cache alone.
	do(r, http.MethodPost, "/rejected", nil)
	w = do(r, http.MethodGet, "/compliance/counts", nil)
	assert.Equal(t, "HIT", w.Header().Get(CacheHeader))

	do(r, http.MethodPost, "/instruments", nil)
	w = do(r, http.MethodGet, "/compliance/counts", nil)
	assert.Equal(t, "MISS", w.Header().Get(CacheHeader))
	assert.JSONEq(t, `{"calls":2}`, w.Body.String())

	// Error responses are never cached.
	do(r, http.MethodGet, "/missing", nil)
	w = do(r, http.MethodGet, "/missing", nil)
	assert.Equal(t, "MISS", w.Header().Get(CacheHeader))
	assert.Equal(t, 4, calls)
}

func TestCache_SkipsResponseOverlappingWrite(t *testing.T) {
	store := cache.NewMemory(time.Minute)
	calls := 0

	r := gin.New()
	r.Use(Cache(store, time.Minute, zap.NewNop()))
	r.POST("/instruments/1/complete", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/instruments/1", func(c *gin.Context) {
		calls++
		body := gin.H{"cycle": calls}
		if calls == 1 {
			// The write commits after this read but before the response is stored.
			do(r, http.MethodPost, "/instruments/1/complete", nil)
		}
		c.JSON(http.StatusOK, body)
	})

	w := do(r, http.MethodGet, "/instruments/1", nil)
	assert.JSONEq(t, `{"cycle":1}`, w.Body.String())

	w = do(r, http.MethodGet, "/instruments/1", nil)
	assert.Equal(t, "MISS", w.Header().Get(CacheHeader))
	assert.JSONEq(t, `{"cycle":2}`, w.Body.String())

	w = do(r, http.MethodGet, "/instruments/1", nil)
	assert.Equal(t, "HIT", w.Header().Get(CacheHeader))
	assert.JSONEq(t, `{"cycle":2}`, w.Body.String())
}

func TestCache_ExpiresAtMidnight(t *testing.T) {
	store := cache.NewMemory(time.Hour)
	calls := 0
	clock := func() time.Time { return time.Date(2024, 3, 14, 23, 59, 59, 950_000_000, time.UTC) }

	r := gin.New()
	r.Use(cacheWithClock(store, time.Hour, zap.NewNop(), clock))
	r.GET("/compliance/counts", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})

	do(r, http.MethodGet, "/compliance/counts", nil)
	do(r, http.MethodGet, "/compliance/counts?now=2024-03-14", nil)
	time.Sleep(100 * time.Millisecond)

	w := do(r, http.MethodGet, "/compliance/counts", nil)
	assert.Equal(t, "MISS", w.Header().Get(CacheHeader))

	// A pinned date does not depend on the wall clock.
	w = do(r, http.MethodGet, "/compliance/counts?now=2024-03-14", nil)
	assert.Equal(t, "HIT", w.Header().Get(CacheHeader))
	assert.Equal(t, 3, calls)
}

func TestCapAtMidnight(t *testing.T) {
	noon := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Minute, capAtMidnight(noon, time.Minute))
	assert.Equal(t, 12*time.Hour, capAtMidnight(noon, 24*time.Hour))

	// Offsets are normalised to UTC before finding midnight.
	east := time.Date(2024, 3, 15, 1, 0, 0, 0, time.FixedZone("CET", 3600))
	assert.Equal(t, 24*time.Hour, capAtMidnight(east, 48*time.Hour))
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := do(r, http.MethodGet, "/healthz", http.Header{RequestIDHeader: []string{"abc-123"}})
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "abc-123", w.Body.String())

	w = do(r, http.MethodGet, "/healthz", nil)
	id := w.Header().Get(RequestIDHeader)
	assert.Len(t, id, 36)
	assert.Equal(t, id, w.Body.String())
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	r := gin.New()
	r.Use(RequestID(), AccessLog(zap.New(core)))
	r.GET("/instruments/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	do(r, http.MethodGet, "/instruments/42", nil)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, "/instruments/:id", fields["route"])
	assert.Equal(t, "/instruments/42", fields["path"])
	assert.EqualValues(t, http.StatusNotFound, fields["status"])
	assert.NotEmpty(t, fields["request_id"])
}

func TestMetrics(t *testing.T) {
	m := observability.NewMetrics(prometheus.NewRegistry())

	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/instruments/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	do(r, http.MethodGet, "/instruments/1", nil)
	do(r, http.MethodGet, "/instruments/2", nil)
	do(r, http.MethodGet, "/nope", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/instruments/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}
