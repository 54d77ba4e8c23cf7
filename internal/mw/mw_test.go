package mw

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"reservation-backend/internal/notify"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter(t *testing.T) {
	r := gin.New()
	r.Use(RateLimiter(0.001, 2))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for i := 0; i < 2; i++ {
		w := serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
	w := serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	other := httptest.NewRequest(http.MethodGet, "/ping", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	w = serve(r, other)
	assert.Equal(t, http.StatusOK, w.Code, "limits are per client")
}

func TestIPRateLimiter_ReusesLimiter(t *testing.T) {
	l := NewIPRateLimiter(1, 1)
	assert.Same(t, l.GetLimiter("1.2.3.4"), l.GetLimiter("1.2.3.4"))
	assert.NotSame(t, l.GetLimiter("1.2.3.4"), l.GetLimiter("5.6.7.8"))
}

// dataVersion is a settable VersionFunc.
type dataVersion struct {
	v   atomic.Uint64
	err error
}

func (d *dataVersion) get(context.Context) (uint64, error) {
	return d.v.Load(), d.err
}

func TestResponseCache(t *testing.T) {
	rc := NewResponseCache(time.Minute, (&dataVersion{}).get)
	calls := 0
	r := gin.New()
	r.Use(rc.Middleware())
	r.GET("/slots", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})
	r.GET("/broken", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusInternalServerError, gin.H{"error": "x"})
	})

	first := serve(r, httptest.NewRequest(http.MethodGet, "/slots?date=2025-06-01", nil))
	second := serve(r, httptest.NewRequest(http.MethodGet, "/slots?date=2025-06-01", nil))
	assert.Equal(t, 1, calls)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, "application/json; charset=utf-8", second.Header().Get("Content-Type"))

	serve(r, httptest.NewRequest(http.MethodGet, "/slots?date=2025-06-02", nil))
	assert.Equal(t, 2, calls, "query string is part of the key")
	assert.Equal(t, 2, rc.Len())

	require.NoError(t, rc.Deliver(context.Background(), notify.Event{Version: 1}))
	assert.Zero(t, rc.Len())
	serve(r, httptest.NewRequest(http.MethodGet, "/slots?date=2025-06-01", nil))
	assert.Equal(t, 3, calls, "a change flushes the cache")

	serve(r, httptest.NewRequest(http.MethodGet, "/broken", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/broken", nil))
	assert.Equal(t, 5, calls, "errors are not cached")

	require.NoError(t, rc.Deliver(context.Background(), notify.Event{Version: 2, Origin: "self"}))
	assert.Equal(t, 1, rc.Len(), "local events were already invalidated synchronously")
}

func TestResponseCache_CommitElsewhereRetiresEntries(t *testing.T) {
	version := &dataVersion{}
	rc := NewResponseCache(time.Minute, version.get)
	calls := 0
	r := gin.New()
	r.Use(rc.Middleware())
	r.GET("/config", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})

	serve(r, httptest.NewRequest(http.MethodGet, "/config", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/config", nil))
	assert.Equal(t, 1, calls)

	// Another instance commits; no event reaches this one.
	version.v.Add(1)
	w := serve(r, httptest.NewRequest(http.MethodGet, "/config", nil))
	assert.Equal(t, 2, calls)
	assert.Empty(t, w.Header().Get("X-Cache"))
}

func TestResponseCache_BypassedWhenVersionUnknown(t *testing.T) {
	version := &dataVersion{err: errors.New("connection refused")}
	rc := NewResponseCache(time.Minute, version.get)
	calls := 0
	r := gin.New()
	r.Use(rc.Middleware())
	r.GET("/config", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})

	serve(r, httptest.NewRequest(http.MethodGet, "/config", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/config", nil))
	assert.Equal(t, 2, calls)
	assert.Zero(t, rc.Len())
}

func TestResponseCache_SkipsResponsesRacingAnInvalidation(t *testing.T) {
	rc := NewResponseCache(time.Minute, (&dataVersion{}).get)
	r := gin.New()
	r.Use(rc.Middleware())
	r.GET("/slots", func(c *gin.Context) {
		// A commit lands while this response is being computed.
		rc.Invalidate()
		c.JSON(http.StatusOK, gin.H{"stale": true})
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/slots", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, rc.Len())
}

func newTestAuth(t *testing.T) *Auth {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	return NewAuth("signing-key", string(hash), time.Hour)
}

func TestAuth_Login(t *testing.T) {
	a := newTestAuth(t)

	token, expires, err := a.Login("s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	claims, err := a.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, claims.Role)

	_, _, err = a.Login("wrong")
	assert.ErrorIs(t, err, ErrBadCredentials)

	_, _, err = NewAuth("", "", time.Hour).Login("s3cret")
	assert.ErrorIs(t, err, ErrBadCredentials, "disabled auth never issues tokens")
}

func TestAuth_RequireAdmin(t *testing.T) {
	a := newTestAuth(t)
	r := gin.New()
	r.GET("/admin", a.RequireAdmin(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(CtxRoleKey))
	})

	token, _, err := a.Issue()
	require.NoError(t, err)

	expired := NewAuth("signing-key", "x", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	oldToken, _, err := expired.Issue()
	require.NoError(t, err)

	forged, _, err := NewAuth("other-key", "x", time.Hour).Issue()
	require.NoError(t, err)

	testCases := []struct {
		name     string
		header   string
		expected int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer abc", http.StatusUnauthorized},
		{"expired token", "Bearer " + oldToken, http.StatusUnauthorized},
		{"wrong key", "Bearer " + forged, http.StatusUnauthorized},
		{"valid token", "Bearer " + token, http.StatusOK},
		{"lower case scheme", "bearer " + token, http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := serve(r, req)
			assert.Equal(t, tc.expected, w.Code)
			if tc.expected == http.StatusOK {
				assert.Equal(t, RoleAdmin, w.Body.String())
			}
		})
	}
}

func TestAuth_DisabledLetsEveryoneThrough(t *testing.T) {
	a := NewAuth("", "", time.Hour)
	r := gin.New()
	r.GET("/admin", a.RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
