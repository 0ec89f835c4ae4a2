package mw

import (
	"bytes"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"calibration-backend/internal/cache"
)

// CacheHeader reports whether a GET was served from the response cache.
const CacheHeader = "X-Cache"

type bodyCacheWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyCacheWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w bodyCacheWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Cache serves repeated GETs from store for ttl. Any successful write
// request flushes the whole cache, since a single mutation can change lists,
// counts and history at once. Cache failures are logged and bypassed.
//
// A GET that overlapped a successful write is not stored: its response may
// predate the commit. Responses that classify against the current date are
// kept no later than the next UTC midnight.
func Cache(store cache.Store, ttl time.Duration, log *zap.Logger) gin.HandlerFunc {
	return cacheWithClock(store, ttl, log, time.Now)
}

func cacheWithClock(store cache.Store, ttl time.Duration, log *zap.Logger, now func() time.Time) gin.HandlerFunc {
	var (
		mu         sync.RWMutex
		generation uint64
	)

	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if c.Request.Method != http.MethodGet {
			c.Next()
			if status := c.Writer.Status(); status >= 200 && status < 400 {
				mu.Lock()
				generation++
				if err := store.Flush(ctx); err != nil {
					log.Warn("failed to invalidate response cache", zap.Error(err))
				}
				mu.Unlock()
			}
			return
		}

		key := c.Request.URL.RequestURI()
		cached, err := store.Get(ctx, key)
		switch {
		case err == nil:
			for k, v := range cached.Header {
				c.Writer.Header()[k] = v
			}
			c.Writer.Header().Set(CacheHeader, "HIT")
			c.Writer.WriteHeader(cached.Status)
			c.Writer.Write(cached.Body)
			c.Abort()
			return
		case !errors.Is(err, cache.ErrMiss):
			log.Warn("response cache read failed", zap.String("key", key), zap.Error(err))
		}

		mu.RLock()
		started := generation
		mu.RUnlock()

		c.Writer.Header().Set(CacheHeader, "MISS")
		blw := &bodyCacheWriter{body: bytes.NewBuffer(nil), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		// Only cache successful responses
		if blw.Status() < 200 || blw.Status() >= 300 {
			return
		}

		expiry := ttl
		if _, pinned := c.GetQuery("now"); !pinned {
			expiry = capAtMidnight(now(), ttl)
		}

		header := blw.Header().Clone()
		header.Del(CacheHeader)
		header.Del(RequestIDHeader)
		entry := cache.Entry{
			Status: blw.Status(),
			Header: header,
			Body:   blw.body.Bytes(),
		}

		// Holding the read lock across Set orders it before any later flush.
		mu.RLock()
		defer mu.RUnlock()
		if generation != started {
			log.Debug("skipping response cache write after concurrent mutation", zap.String("key", key))
			return
		}
		if err := store.Set(ctx, key, entry, expiry); err != nil {
			log.Warn("response cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
}

// capAtMidnight shortens ttl so an entry expires by the next UTC midnight,
// when the current date used for classification rolls over.
func capAtMidnight(now time.Time, ttl time.Duration) time.Duration {
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	if left := midnight.Sub(now); left < ttl {
		return left
	}
	return ttl
}
