package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// SearchListing is one search-result card.
type SearchListing struct {
	Title  string `json:"title"`
	Price  string `json:"price"`
	Rating string `json:"rating,omitempty"`
	URL    string `json:"url"`
	Image  string `json:"image,omitempty"`
}

// SearchListings extracts result cards in document order. Cards without a
// title or a listing URL on origin are dropped. Relative URLs are resolved
// against origin.
func SearchListings(html []byte, origin *url.URL) ([]SearchListing, error) {
	doc, err := parse(html)
	if err != nil {
		return nil, err
	}
	listings := []SearchListing{}
	items := searchSelectors.Item.Scopes(doc.Selection)
	if items == nil {
		return listings, nil
	}
	items.Each(func(_ int, item *goquery.Selection) {
		listing := SearchListing{
			Title:  searchSelectors.Title.String(item),
			Price:  searchSelectors.Price.String(item),
			Rating: searchSelectors.Rating.String(item),
			URL:    qualify(origin, searchSelectors.URL.String(item)),
			Image:  searchSelectors.Image.String(item),
		}
		if listing.Title == "" || listing.URL == "" {
			return
		}
		listings = append(listings, listing)
	})
	return listings, nil
}

// qualify resolves href against origin and keeps it only when it points at a
// listing page on the origin's host. Anything else yields "".
func qualify(origin *url.URL, href string) string {
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if origin != nil {
		ref = origin.ResolveReference(ref)
		if !strings.EqualFold(ref.Host, origin.Host) {
			return ""
		}
	}
	if !strings.HasPrefix(ref.Path, listingPathPrefix) {
		return ""
	}
	return ref.String()
}
