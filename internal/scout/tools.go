package scout

import (
	"context"

	"github.com/JakeFAU/stayscout/internal/tools"
	"github.com/JakeFAU/stayscout/internal/toolerr"
)

// Tool names as advertised to clients.
const (
	ToolSearch = "search"
	ToolDetail = "detail"
)

type detailParams struct {
	ListingID string `mapstructure:"listing_id"`
}

// Tools returns the search and detail tools in advertised order.
func (s *Service) Tools() []tools.Tool {
	return []tools.Tool{
		{
			Name:        ToolSearch,
			Description: "Search short-term rental listings by location, dates, and guest counts",
			Fields: []tools.Field{
				{Name: "location", Type: tools.FieldString, Description: "City, address, or region to search", Required: true},
				{Name: "checkin", Type: tools.FieldDate, Description: "Check-in date (YYYY-MM-DD)"},
				{Name: "checkout", Type: tools.FieldDate, Description: "Check-out date (YYYY-MM-DD)"},
				{Name: "adults", Type: tools.FieldNumber, Description: "Number of adults"},
				{Name: "children", Type: tools.FieldNumber, Description: "Number of children"},
				{Name: "infants", Type: tools.FieldNumber, Description: "Number of infants"},
				{Name: "pets", Type: tools.FieldNumber, Description: "Number of pets"},
			},
			Handler: s.handleSearch,
		},
		{
			Name:        ToolDetail,
			Description: "Get detailed information about a specific listing",
			Fields: []tools.Field{
				{Name: "listing_id", Type: tools.FieldString, Description: "The listing ID", Required: true},
			},
			Handler: s.handleDetail,
		},
	}
}

func (s *Service) handleSearch(ctx context.Context, call tools.Call) (any, error) {
	var p SearchParams
	if err := call.Decode(&p); err != nil {
		return nil, toolerr.InvalidArguments("%v", err)
	}
	listings, err := s.Search(ctx, p)
	if err != nil {
		return nil, err
	}
	echo := call.Raw
	if echo == nil {
		echo = map[string]any{}
	}
	return SearchResult{Listings: listings, SearchParams: echo}, nil
}

func (s *Service) handleDetail(ctx context.Context, call tools.Call) (any, error) {
	var p detailParams
	if err := call.Decode(&p); err != nil {
		return nil, toolerr.InvalidArguments("%v", err)
	}
	return s.Detail(ctx, p.ListingID)
}
