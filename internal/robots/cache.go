// Package robots caches the listing site's robots.txt and answers
// allow/deny questions for outbound paths.
package robots

import (
	"context"
	"fmt"
	"net/url"
	"sync/atomic"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"

	"github.com/JakeFAU/stayscout/internal/fetcher"
	"github.com/JakeFAU/stayscout/internal/metrics"
)

// Config controls enforcement.
type Config struct {
	// Origin is the scheme+host whose /robots.txt is consulted.
	Origin string
	// Agent is the token matched against User-agent groups.
	Agent   string
	Respect bool
}

// Cache holds at most one parsed robots.txt for the process lifetime.
// The ruleset is swapped in whole, so readers never see a partial value.
type Cache struct {
	cfg     Config
	fetcher fetcher.Fetcher
	rules   atomic.Pointer[robotstxt.RobotsData]
	logger  *zap.Logger
}

// NewCache builds a Cache. Nothing is fetched until EnsureLoaded.
func NewCache(cfg Config, f fetcher.Fetcher, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		cfg:     cfg,
		fetcher: f,
		logger:  logger,
	}
}

// EnsureLoaded fetches and parses robots.txt if enforcement is on and no
// ruleset is cached yet. Failures are logged and leave the cache empty, so
// the next call tries again.
func (c *Cache) EnsureLoaded(ctx context.Context) {
	if c == nil || !c.cfg.Respect || c.rules.Load() != nil {
		return
	}
	data, err := c.load(ctx)
	if err != nil {
		metrics.ObserveRobotsLoad("failed")
		c.logger.Warn("robots fetch failed; allowing access", zap.String("origin", c.cfg.Origin), zap.Error(err))
		return
	}
	// Concurrent loaders may both get here; last writer wins.
	c.rules.Store(data)
	metrics.ObserveRobotsLoad("loaded")
	c.logger.Info("robots.txt loaded", zap.String("origin", c.cfg.Origin))
}

// IsAllowed reports whether the configured agent may fetch path.
// It fails open when enforcement is off or no ruleset is loaded.
func (c *Cache) IsAllowed(path string) bool {
	if c == nil || !c.cfg.Respect {
		return true
	}
	data := c.rules.Load()
	if data == nil {
		return true
	}
	group := data.FindGroup(c.cfg.Agent)
	if group == nil {
		return true
	}
	return group.Test(path)
}

// Loaded reports whether a ruleset is cached.
func (c *Cache) Loaded() bool {
	return c != nil && c.rules.Load() != nil
}

// Enforcing reports whether robots.txt is consulted at all.
func (c *Cache) Enforcing() bool {
	return c != nil && c.cfg.Respect
}

func (c *Cache) load(ctx context.Context) (*robotstxt.RobotsData, error) {
	if c.fetcher == nil {
		return nil, fmt.Errorf("no fetcher configured")
	}
	robotsURL, err := url.JoinPath(c.cfg.Origin, "robots.txt")
	if err != nil {
		return nil, fmt.Errorf("build robots url: %w", err)
	}
	page, err := c.fetcher.Fetch(ctx, robotsURL)
	if err != nil {
		return nil, fmt.Errorf("fetch robots: %w", err)
	}
	data, err := robotstxt.FromBytes(page.Body)
	if err != nil {
		return nil, fmt.Errorf("parse robots: %w", err)
	}
	return data, nil
}
