package collyfetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/gocolly/colly/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/stayscout/internal/fetcher"
)

func testConfig() Config {
	return Config{
		UserAgent:      "stayscout-test/1.0",
		Accept:         "text/html",
		AcceptLanguage: "en-US",
	}
}

func TestFetchSendsIdentityAndReturnsBody(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "stayscout-test/1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, "text/html", r.Header.Get("Accept"))
		assert.Equal(t, "en-US", r.Header.Get("Accept-Language"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><h1>ok</h1></html>"))
	}))
	defer srv.Close()

	f := New(testConfig(), zap.NewNop())
	page, err := f.Fetch(context.Background(), srv.URL+"/rooms/1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, page.StatusCode)
	require.Contains(t, string(page.Body), "<h1>ok</h1>")
	require.Equal(t, srv.URL+"/rooms/1", page.URL)

	// A repeat visit must hit the network again.
	_, err = f.Fetch(context.Background(), srv.URL+"/rooms/1")
	require.NoError(t, err)
	require.Equal(t, int32(2), hits.Load())
}

func TestFetchNonSuccessStatusIsFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := New(testConfig(), zap.NewNop())
	_, err := f.Fetch(context.Background(), srv.URL+"/s/homes")
	require.Error(t, err)

	var fetchErr *fetcher.Error
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, fetcher.KindStatus, fetchErr.Kind)
	require.Equal(t, http.StatusServiceUnavailable, fetchErr.StatusCode)
}

func TestFetchNetworkFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := srv.URL
	srv.Close()

	f := New(testConfig(), zap.NewNop())
	_, err := f.Fetch(context.Background(), addr+"/robots.txt")
	require.Error(t, err)

	var fetchErr *fetcher.Error
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, fetcher.KindNetwork, fetchErr.Kind)
	require.Zero(t, fetchErr.StatusCode)
}

func TestFetchCanceledContext(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := New(testConfig(), zap.NewNop())
	_, err := f.Fetch(ctx, srv.URL)
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
}

func TestConfigureCollectorHooks(t *testing.T) {
	t.Parallel()

	f := New(testConfig(), zap.NewNop())
	var result fetcher.Page
	var fetchErr error

	hooks := &stubHooks{}
	f.configureCollectorHooks(hooks, "https://example.com/rooms/9", &result, &fetchErr)
	if hooks.onRequest == nil || hooks.onResponse == nil || hooks.onError == nil {
		t.Fatal("expected hooks to be registered")
	}

	collyReq := &colly.Request{Headers: &http.Header{}}
	hooks.onRequest(collyReq)
	require.Equal(t, "stayscout-test/1.0", collyReq.Headers.Get("User-Agent"))
	require.Equal(t, "en-US", collyReq.Headers.Get("Accept-Language"))

	hooks.onResponse(&colly.Response{
		StatusCode: http.StatusOK,
		Body:       []byte("body"),
		Headers:    &http.Header{"X-Resp": {"ok"}},
		Request: &colly.Request{
			URL: mustParseURL(t, "https://example.com/rooms/9?redirected=1"),
		},
	})
	require.Equal(t, "body", string(result.Body))
	require.Equal(t, "https://example.com/rooms/9", result.URL)
	require.Equal(t, "https://example.com/rooms/9?redirected=1", result.FinalURL)
	require.Equal(t, "ok", result.Headers.Get("X-Resp"))

	hooks.onError(nil, errors.New("boom"))
	require.EqualError(t, fetchErr, "boom")
}

func TestSetIdentityHeadersHandlesNil(t *testing.T) {
	t.Parallel()

	f := New(Config{}, nil)
	collyReq := &colly.Request{}
	f.setIdentityHeaders(collyReq)
	require.NotNil(t, collyReq.Headers)
	require.Empty(t, *collyReq.Headers)
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("failed to parse url %q: %v", raw, err)
	}
	return u
}

type stubHooks struct {
	onRequest  colly.RequestCallback
	onResponse colly.ResponseCallback
	onError    colly.ErrorCallback
}

func (s *stubHooks) OnRequest(cb colly.RequestCallback) {
	s.onRequest = cb
}

func (s *stubHooks) OnResponse(cb colly.ResponseCallback) {
	s.onResponse = cb
}

func (s *stubHooks) OnError(cb colly.ErrorCallback) {
	s.onError = cb
}
