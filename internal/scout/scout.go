// Package scout implements the listing tools: each call checks robots.txt,
// fetches one page from the listing site and extracts records from it.
package scout

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/JakeFAU/stayscout/internal/extract"
	"github.com/JakeFAU/stayscout/internal/fetcher"
	"github.com/JakeFAU/stayscout/internal/metrics"
	"github.com/JakeFAU/stayscout/internal/policy/simple"
	"github.com/JakeFAU/stayscout/internal/toolerr"
)

const (
	searchPath  = "/s/homes"
	listingPath = "/rooms/"
)

// Policy answers whether a path may be fetched. *robots.Cache satisfies it.
type Policy interface {
	EnsureLoaded(ctx context.Context)
	IsAllowed(path string) bool
}

// SearchParams are the decoded arguments of the search tool.
type SearchParams struct {
	Location string `mapstructure:"location"`
	Checkin  string `mapstructure:"checkin"`
	Checkout string `mapstructure:"checkout"`
	Adults   int    `mapstructure:"adults"`
	Children int    `mapstructure:"children"`
	Infants  int    `mapstructure:"infants"`
	Pets     int    `mapstructure:"pets"`
}

// SearchResult is the search tool payload.
type SearchResult struct {
	Listings []extract.SearchListing `json:"listings"`
	// SearchParams echoes the caller's arguments as received.
	SearchParams map[string]any `json:"search_params"`
}

// Service runs searches and detail lookups against one origin.
type Service struct {
	origin  *url.URL
	fetcher fetcher.Fetcher
	policy  Policy
	logger  *zap.Logger
}

// NewService builds a Service. origin must be an absolute URL.
func NewService(origin string, f fetcher.Fetcher, policy Policy, logger *zap.Logger) (*Service, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("parse origin: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("origin %q is not absolute", origin)
	}
	if f == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if policy == nil {
		policy = simple.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		origin:  &url.URL{Scheme: u.Scheme, Host: u.Host},
		fetcher: f,
		policy:  policy,
		logger:  logger,
	}, nil
}

// Search fetches the results page for p and extracts its listings.
func (s *Service) Search(ctx context.Context, p SearchParams) ([]extract.SearchListing, error) {
	if p.Location == "" {
		return nil, toolerr.InvalidArguments("missing required argument %q", "location")
	}
	target := s.SearchURL(p)
	body, err := s.fetchAllowed(ctx, target)
	if err != nil {
		return nil, err
	}
	listings, err := extract.SearchListings(body, s.origin)
	if err != nil {
		return nil, toolerr.Internal("failed to parse search results", err)
	}
	metrics.ObserveRecords("search_listing", len(listings))
	s.logger.Info("search completed",
		zap.String("location", p.Location),
		zap.Int("result_count", len(listings)),
	)
	return listings, nil
}

// Detail fetches one listing page and extracts it.
func (s *Service) Detail(ctx context.Context, listingID string) (extract.ListingDetail, error) {
	if listingID == "" {
		return extract.ListingDetail{}, toolerr.InvalidArguments("missing required argument %q", "listing_id")
	}
	body, err := s.fetchAllowed(ctx, s.ListingURL(listingID))
	if err != nil {
		return extract.ListingDetail{}, err
	}
	detail, err := extract.Detail(body)
	if err != nil {
		return extract.ListingDetail{}, toolerr.Internal("failed to parse listing page", err)
	}
	metrics.ObserveRecords("listing_detail", 1)
	metrics.ObserveRecords("review", len(detail.Reviews))
	s.logger.Info("listing details fetched",
		zap.String("listing_id", listingID),
		zap.Int("review_count", len(detail.Reviews)),
	)
	return detail, nil
}

// SearchURL builds the results page URL. Zero-valued filters are omitted.
func (s *Service) SearchURL(p SearchParams) *url.URL {
	q := url.Values{}
	q.Set("query", p.Location)
	setIf := func(key, value string) {
		if value != "" {
			q.Set(key, value)
		}
	}
	setIf("checkin", p.Checkin)
	setIf("checkout", p.Checkout)
	for _, n := range []struct {
		key   string
		value int
	}{
		{"adults", p.Adults},
		{"children", p.Children},
		{"infants", p.Infants},
		{"pets", p.Pets},
	} {
		if n.value > 0 {
			q.Set(n.key, strconv.Itoa(n.value))
		}
	}
	return s.origin.ResolveReference(&url.URL{Path: searchPath, RawQuery: q.Encode()})
}

// ListingURL builds the listing page URL; the id is escaped as one path segment.
func (s *Service) ListingURL(listingID string) *url.URL {
	return s.origin.ResolveReference(&url.URL{
		Path:    listingPath + listingID,
		RawPath: listingPath + url.PathEscape(listingID),
	})
}

func (s *Service) fetchAllowed(ctx context.Context, target *url.URL) ([]byte, error) {
	s.policy.EnsureLoaded(ctx)
	if path := target.EscapedPath(); !s.policy.IsAllowed(path) {
		s.logger.Warn("blocked by robots.txt", zap.String("path", path))
		return nil, toolerr.PermissionDenied(path)
	}
	page, err := s.fetcher.Fetch(ctx, target.String())
	if err != nil {
		var fe *fetcher.Error
		if errors.As(err, &fe) {
			return nil, toolerr.UpstreamFetch(fe.StatusCode, err)
		}
		return nil, toolerr.UpstreamFetch(0, err)
	}
	return page.Body, nil
}
