package robots

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/JakeFAU/stayscout/internal/fetcher"
	collyfetcher "github.com/JakeFAU/stayscout/internal/fetcher/colly"
)

const disallowSearch = "User-agent: *\nDisallow: /s/homes\n\nUser-agent: StayScoutBot\nDisallow: /s/homes\nAllow: /rooms/\n"

type stubFetcher struct {
	mu    sync.Mutex
	body  string
	err   error
	calls []string
}

func (s *stubFetcher) Fetch(_ context.Context, rawURL string) (fetcher.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, rawURL)
	if s.err != nil {
		return fetcher.Page{}, s.err
	}
	return fetcher.Page{URL: rawURL, StatusCode: http.StatusOK, Body: []byte(s.body)}, nil
}

func (s *stubFetcher) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func enforcingConfig() Config {
	return Config{Origin: "https://www.airbnb.com", Agent: "StayScoutBot", Respect: true}
}

func TestCacheDisallowsConfiguredPath(t *testing.T) {
	t.Parallel()

	stub := &stubFetcher{body: disallowSearch}
	cache := NewCache(enforcingConfig(), stub, zap.NewNop())
	cache.EnsureLoaded(context.Background())

	require.True(t, cache.Loaded())
	require.Equal(t, []string{"https://www.airbnb.com/robots.txt"}, stub.calls)
	require.False(t, cache.IsAllowed("/s/homes"))
	require.True(t, cache.IsAllowed("/rooms/123"))
	require.True(t, cache.IsAllowed("/help"))
}

func TestCacheLoadsOnlyOnce(t *testing.T) {
	t.Parallel()

	stub := &stubFetcher{body: disallowSearch}
	cache := NewCache(enforcingConfig(), stub, zap.NewNop())
	for i := 0; i < 5; i++ {
		cache.EnsureLoaded(context.Background())
	}
	require.Equal(t, 1, stub.callCount())
}

func TestCacheDisabledAllowsEverything(t *testing.T) {
	t.Parallel()

	stub := &stubFetcher{body: "User-agent: *\nDisallow: /\n"}
	cfg := enforcingConfig()
	cfg.Respect = false
	cache := NewCache(cfg, stub, zap.NewNop())
	cache.EnsureLoaded(context.Background())

	require.Zero(t, stub.callCount(), "disabled enforcement must not fetch robots.txt")
	require.False(t, cache.Enforcing())
	for _, p := range []string{"/", "/s/homes", "/rooms/1"} {
		require.True(t, cache.IsAllowed(p), p)
	}
}

func TestCacheFetchFailureFailsOpenAndRetries(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	stub := &stubFetcher{err: &fetcher.Error{URL: "https://www.airbnb.com/robots.txt", Kind: fetcher.KindNetwork, Err: errors.New("dial")}}
	cache := NewCache(enforcingConfig(), stub, zap.New(core))

	require.NotPanics(t, func() { cache.EnsureLoaded(context.Background()) })
	require.False(t, cache.Loaded())
	require.True(t, cache.IsAllowed("/s/homes"))
	require.Equal(t, 1, logs.FilterMessage("robots fetch failed; allowing access").Len())

	// Empty cache means the next call tries again.
	stub.mu.Lock()
	stub.err = nil
	stub.body = disallowSearch
	stub.mu.Unlock()
	cache.EnsureLoaded(context.Background())
	require.Equal(t, 2, stub.callCount())
	require.False(t, cache.IsAllowed("/s/homes"))
}

func TestCacheAgentWithoutGroupDefaultsToAllow(t *testing.T) {
	t.Parallel()

	stub := &stubFetcher{body: "User-agent: OtherBot\nDisallow: /\n"}
	cache := NewCache(enforcingConfig(), stub, zap.NewNop())
	cache.EnsureLoaded(context.Background())

	require.True(t, cache.Loaded())
	require.True(t, cache.IsAllowed("/s/homes"))
}

func TestCacheConcurrentLoadIsSafe(t *testing.T) {
	t.Parallel()

	stub := &stubFetcher{body: disallowSearch}
	cache := NewCache(enforcingConfig(), stub, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cache.EnsureLoaded(context.Background())
			_ = cache.IsAllowed("/s/homes")
		}()
	}
	wg.Wait()

	require.True(t, cache.Loaded())
	require.False(t, cache.IsAllowed("/s/homes"))
}

func TestNilCacheAllows(t *testing.T) {
	t.Parallel()

	var cache *Cache
	cache.EnsureLoaded(context.Background())
	require.True(t, cache.IsAllowed("/anything"))
	require.False(t, cache.Loaded())
}

func TestCacheWithCollyFetcher(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			fmt.Fprint(w, disallowSearch)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := collyfetcher.New(collyfetcher.Config{UserAgent: "StayScoutBot/1.0"}, zap.NewNop())
	cache := NewCache(Config{Origin: srv.URL, Agent: "StayScoutBot", Respect: true}, f, zap.NewNop())
	cache.EnsureLoaded(context.Background())

	require.True(t, cache.Loaded())
	require.False(t, cache.IsAllowed("/s/homes"))
}

func TestCacheNotFoundRobotsFailsOpen(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	f := collyfetcher.New(collyfetcher.Config{UserAgent: "StayScoutBot/1.0"}, zap.NewNop())
	cache := NewCache(Config{Origin: srv.URL, Agent: "StayScoutBot", Respect: true}, f, zap.NewNop())
	cache.EnsureLoaded(context.Background())

	require.False(t, cache.Loaded())
	require.True(t, cache.IsAllowed("/s/homes"))
}
