package mw

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"

	"reservation-backend/internal/notify"
)

type cachedResponse struct {
	status  int
	headers http.Header
	body    []byte
}

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

// VersionFunc reports the current version of the data behind the cached
// responses.
type VersionFunc func(ctx context.Context) (uint64, error)

// ResponseCache keeps successful GET responses until they expire or the
// reservation data changes, whichever comes first. Entries are keyed by the
// data version, so a commit made by any process sharing the store retires
// them at once. A response computed while a local invalidation happened is
// not stored.
type ResponseCache struct {
	store   *cache.Cache
	ttl     time.Duration
	version VersionFunc

	mu         sync.Mutex
	generation uint64
}

// NewResponseCache creates a cache whose entries live for at most ttl.
func NewResponseCache(ttl time.Duration, version VersionFunc) *ResponseCache {
	return &ResponseCache{
		store:   cache.New(ttl, 2*ttl),
		ttl:     ttl,
		version: version,
	}
}

// Invalidate drops every cached response. It must run before a commit
// becomes visible to readers.
func (rc *ResponseCache) Invalidate() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.generation++
	rc.store.Flush()
}

// Deliver drops entries made obsolete by changes relayed from other
// instances. Local changes are invalidated synchronously through Invalidate.
func (rc *ResponseCache) Deliver(_ context.Context, ev notify.Event) error {
	if ev.Origin == "" {
		rc.Invalidate()
	}
	return nil
}

func (rc *ResponseCache) currentGeneration() uint64 {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.generation
}

// storeIf caches resp under key unless an invalidation happened since generation.
func (rc *ResponseCache) storeIf(generation uint64, key string, resp cachedResponse) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.generation != generation {
		return
	}
	rc.store.Set(key, resp, rc.ttl)
}

// Len returns the number of cached responses.
func (rc *ResponseCache) Len() int {
	return rc.store.ItemCount()
}

// Middleware serves GET requests from the cache, keyed by data version and
// request URI. When the version cannot be read the request bypasses the cache.
func (rc *ResponseCache) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		version, err := rc.version(c.Request.Context())
		if err != nil {
			log.Printf("Response cache bypassed, cannot read data version: %v", err)
			c.Next()
			return
		}
		key := strconv.FormatUint(version, 10) + " " + c.Request.RequestURI
		if resp, found := rc.store.Get(key); found {
			cached := resp.(cachedResponse)
			for k, v := range cached.headers {
				c.Writer.Header()[k] = v
			}
			c.Writer.Header().Set("X-Cache", "HIT")
			c.Writer.WriteHeader(cached.status)
			c.Writer.Write(cached.body)
			c.Abort()
			return
		}

		generation := rc.currentGeneration()
		blw := &bodyCacheWriter{body: bytes.NewBuffer(nil), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		// Only cache successful responses
		if blw.Status() >= 200 && blw.Status() < 300 {
			rc.storeIf(generation, key, cachedResponse{
				status:  blw.Status(),
				headers: blw.Header().Clone(),
				body:    blw.body.Bytes(),
			})
		}
	}
}
