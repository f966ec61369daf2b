package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/community-hub/internal/config"
	"github.com/iliyamo/community-hub/internal/logger"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestTokenBucketBlocksWhenEmpty(t *testing.T) {
	mr, rdb := newRedis(t)
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip",
		Prefix:         "rl",
	}
	e := echo.New()
	e.POST("/sendEmail", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, NewTokenBucket(cfg, rdb))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/sendEmail", nil)
		req.RemoteAddr = "203.0.113.7:5000"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}
	for i, wantRemaining := range []string{"1", "0"} {
		rec := send()
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i+1, rec.Code)
		}
		if got := rec.Header().Get("X-RateLimit-Remaining"); got != wantRemaining {
			t.Errorf("request %d: remaining %q, want %q", i+1, got, wantRemaining)
		}
	}
	rec := send()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request: status %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After = %q, want 60", got)
	}
	if !mr.Exists("rl:ip:203.0.113.7") {
		t.Errorf("bucket key missing, have %v", mr.Keys())
	}

	// a Redis outage lets requests through
	mr.Close()
	if rec := send(); rec.Code != http.StatusOK {
		t.Errorf("redis down: status %d", rec.Code)
	}
}

func cacheConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{http.MethodGet: true},
		TTL:          time.Minute,
		KeyStrategy:  "route_query",
		Prefix:       "cache",
		MaxBodyBytes: 1 << 16,
	}
}

func TestRedisCacheHitAndPurge(t *testing.T) {
	mr, rdb := newRedis(t)
	cfg := cacheConfig()
	calls := 0
	e := echo.New()
	e.GET("/apiCalendarBookings", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"items": []string{"standup"}})
	}, NewRedisCache(cfg, rdb))

	get := func(auth string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/apiCalendarBookings?start=1", nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	first := get("")
	if first.Header().Get("X-Cache") != "MISS" {
		t.Fatalf("first request X-Cache = %q", first.Header().Get("X-Cache"))
	}
	second := get("")
	if second.Header().Get("X-Cache") != "HIT" || second.Code != http.StatusOK {
		t.Fatalf("second request: %d X-Cache=%q", second.Code, second.Header().Get("X-Cache"))
	}
	if second.Body.String() != first.Body.String() {
		t.Errorf("replayed body %q, want %q", second.Body.String(), first.Body.String())
	}
	if ct := second.Header().Get(echo.HeaderContentType); ct != echo.MIMEApplicationJSON {
		t.Errorf("replayed content type %q", ct)
	}
	if calls != 1 {
		t.Fatalf("handler ran %d times, want 1", calls)
	}
	if get("Bearer x").Header().Get("X-Cache") != "" || calls != 2 {
		t.Error("authorized request should bypass the cache")
	}

	purger := NewCachePurger(cfg, rdb, logger.Discard())
	ctx := context.Background()
	if err := purger.Publish(ctx, "presence.changed", nil); err != nil {
		t.Fatal(err)
	}
	if len(mr.Keys()) != 1 {
		t.Fatalf("unrelated topic purged the cache: %v", mr.Keys())
	}
	if err := purger.Publish(ctx, "booking.created", nil); err != nil {
		t.Fatal(err)
	}
	if len(mr.Keys()) != 0 {
		t.Fatalf("keys left after purge: %v", mr.Keys())
	}
	if get("").Header().Get("X-Cache") != "MISS" || calls != 3 {
		t.Error("request after purge should miss")
	}
}

func TestCachePurgeLeavesOtherPrefixes(t *testing.T) {
	mr, rdb := newRedis(t)
	for i := 0; i < 450; i++ {
		mr.Set("cache:"+strconv.Itoa(i), "x")
	}
	mr.Set("rl:ip:1.2.3.4", "x")

	n, err := NewCachePurger(cacheConfig(), rdb, logger.Discard()).Purge(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 450 {
		t.Errorf("purged %d keys, want 450", n)
	}
	if keys := mr.Keys(); len(keys) != 1 || keys[0] != "rl:ip:1.2.3.4" {
		t.Errorf("remaining keys %v", keys)
	}
}
