package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestDefaultAPIConfig(t *testing.T) {
	cfg := DefaultAPIConfig()
	assert.Equal(t, float64(20), cfg.Rate)
	assert.Equal(t, 50, cfg.Burst)
	assert.Equal(t, time.Minute, cfg.CleanupInterval)
	assert.Equal(t, 5*time.Minute, cfg.MaxAge)
}

func TestNew(t *testing.T) {
	t.Run("creates limiter with config", func(t *testing.T) {
		cfg := Config{Rate: 10, Burst: 20, CleanupInterval: time.Second, MaxAge: time.Minute}
		rl := New(cfg)
		defer rl.Stop()

		assert.NotNil(t, rl)
		assert.Equal(t, float64(10), rl.Config().Rate)
		assert.Equal(t, 20, rl.Config().Burst)
	})

	t.Run("sets default cleanup interval if zero", func(t *testing.T) {
		rl := New(Config{Rate: 10, Burst: 20, CleanupInterval: 0})
		defer rl.Stop()

		assert.Equal(t, time.Minute, rl.Config().CleanupInterval)
	})

	t.Run("sets default max age if zero", func(t *testing.T) {
		rl := New(Config{Rate: 10, Burst: 20, MaxAge: 0})
		defer rl.Stop()

		assert.Equal(t, 5*time.Minute, rl.Config().MaxAge)
	})
}

func TestAllow(t *testing.T) {
	t.Run("allows requests within burst limit", func(t *testing.T) {
		rl := New(Config{Rate: 1, Burst: 5, CleanupInterval: time.Hour, MaxAge: time.Hour})
		defer rl.Stop()

		for i := 0; i < 5; i++ {
			assert.True(t, rl.Allow("192.168.1.1"), "request %d should be allowed", i)
		}
		assert.False(t, rl.Allow("192.168.1.1"), "request past burst should be denied")
	})

	t.Run("tracks IPs independently", func(t *testing.T) {
		rl := New(Config{Rate: 1, Burst: 1, CleanupInterval: time.Hour, MaxAge: time.Hour})
		defer rl.Stop()

		assert.True(t, rl.Allow("192.168.1.1"))
		assert.False(t, rl.Allow("192.168.1.1"))
		assert.True(t, rl.Allow("192.168.1.2"))
		assert.Equal(t, 2, rl.Len())
	})
}

func TestMiddleware(t *testing.T) {
	rl := New(Config{Rate: 1, Burst: 2, CleanupInterval: time.Hour, MaxAge: time.Hour})
	defer rl.Stop()

	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func() int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do())
	assert.Equal(t, http.StatusOK, do())
	assert.Equal(t, http.StatusTooManyRequests, do())
}
