package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// The limiter's INCR/EXPIRE pair is only meaningful against a real Redis
// instance. Set TOURNAMENT_CORE_TEST_REDIS_ADDR to run these.
func testRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TOURNAMENT_CORE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TOURNAMENT_CORE_TEST_REDIS_ADDR to run rate limiter tests against a real Redis instance")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRateLimiterAllowsUnderLimit(t *testing.T) {
	client := testRedisClient(t)
	r := gin.New()
	r.GET("/ping", RateLimiter(client), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "203.0.113.9:1234"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected the first request under the limit to pass, got %d", rec.Code)
	}
	if rec.Header().Get("X-RateLimit-Limit") == "" {
		t.Fatalf("expected a rate limit header to be set")
	}
}

func TestRateLimiterBlocksOverLimit(t *testing.T) {
	client := testRedisClient(t)
	r := gin.New()
	r.GET("/ping", RateLimiter(client), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	var last *httptest.ResponseRecorder
	for i := 0; i < 101; i++ {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "203.0.113.10:1234"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		last = rec
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected the 101st request to be rate limited, got %d", last.Code)
	}
}
