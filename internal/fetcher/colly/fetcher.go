// Package collyfetcher implements fetcher.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/stayscout/internal/fetcher"
	"github.com/JakeFAU/stayscout/internal/metrics"
	"github.com/JakeFAU/stayscout/internal/policy/ratelimit"
)

// Config controls the outbound identity of every request.
type Config struct {
	UserAgent      string
	Accept         string
	AcceptLanguage string
	RateLimitRPS   float64
	RateLimitBurst int
}

// Fetcher implements fetcher.Fetcher using the Colly collector.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
	limiter       *ratelimit.Limiter
	logger        *zap.Logger
}

type collectorHooks interface {
	OnRequest(colly.RequestCallback)
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := colly.NewCollector(
		colly.Async(false),
		colly.UserAgent(cfg.UserAgent),
		// robots.txt is enforced by the robots cache before a page is fetched.
		colly.IgnoreRobotsTxt(),
		// Every call is a live request; the visited store must not short-circuit repeats.
		colly.AllowURLRevisit(),
		// Non-2xx responses are classified here, not by colly.
		colly.ParseHTTPErrorResponse(),
	)
	c.WithTransport(newHTTPTransport())

	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
		limiter: ratelimit.New(ratelimit.Config{
			DefaultRPS:   cfg.RateLimitRPS,
			DefaultBurst: cfg.RateLimitBurst,
		}),
		logger: logger,
	}
}

// Fetch executes a single HTTP GET using Colly.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (fetcher.Page, error) {
	if err := f.limiter.Wait(ctx, rawURL); err != nil {
		return fetcher.Page{}, &fetcher.Error{URL: rawURL, Kind: fetcher.KindNetwork, Err: err}
	}

	var (
		result   fetcher.Page
		fetchErr error
	)
	start := time.Now()
	collector := f.baseCollector.Clone()
	f.configureCollectorHooks(collector, rawURL, &result, &fetchErr)

	if err := f.runCollector(ctx, collector, rawURL, &fetchErr); err != nil {
		metrics.ObserveFetch(rawURL, "error", 0)
		f.logger.Warn("fetch failed",
			zap.String("url", rawURL),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return fetcher.Page{}, &fetcher.Error{URL: rawURL, Kind: fetcher.KindNetwork, Err: err}
	}

	metrics.ObserveFetch(rawURL, strconv.Itoa(result.StatusCode), len(result.Body))
	if result.StatusCode < 200 || result.StatusCode > 299 {
		f.logger.Warn("fetch returned non-success status",
			zap.String("url", rawURL),
			zap.Int("status_code", result.StatusCode),
		)
		return fetcher.Page{}, &fetcher.Error{URL: rawURL, StatusCode: result.StatusCode, Kind: fetcher.KindStatus}
	}

	f.logger.Debug("fetch completed",
		zap.String("url", rawURL),
		zap.String("final_url", result.FinalURL),
		zap.Int("bytes", len(result.Body)),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

func (f *Fetcher) configureCollectorHooks(
	hooks collectorHooks,
	rawURL string,
	result *fetcher.Page,
	fetchErr *error,
) {
	hooks.OnRequest(func(r *colly.Request) {
		f.setIdentityHeaders(r)
	})

	hooks.OnResponse(func(r *colly.Response) {
		headers := http.Header{}
		if r.Headers != nil {
			headers = r.Headers.Clone()
		}
		finalURL := rawURL
		if r.Request != nil && r.Request.URL != nil {
			finalURL = r.Request.URL.String()
		}
		*result = fetcher.Page{
			URL:        rawURL,
			FinalURL:   finalURL,
			StatusCode: r.StatusCode,
			Headers:    headers,
			Body:       append([]byte(nil), r.Body...),
		}
	})

	hooks.OnError(func(_ *colly.Response, err error) {
		if err == nil {
			err = errors.New("unknown colly error")
		}
		*fetchErr = err
	})
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		if *fetchErr != nil {
			return fmt.Errorf("colly response failed: %w", *fetchErr)
		}
		return nil
	}
}

func (f *Fetcher) setIdentityHeaders(r *colly.Request) {
	if r.Headers == nil {
		r.Headers = &http.Header{}
	}
	if f.cfg.UserAgent != "" {
		r.Headers.Set("User-Agent", f.cfg.UserAgent)
	}
	if f.cfg.Accept != "" {
		r.Headers.Set("Accept", f.cfg.Accept)
	}
	if f.cfg.AcceptLanguage != "" {
		r.Headers.Set("Accept-Language", f.cfg.AcceptLanguage)
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		ForceAttemptHTTP2:     true,
	}
}
