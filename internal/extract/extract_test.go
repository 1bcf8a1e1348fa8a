package extract

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	body, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return body
}

func testOrigin(t *testing.T) *url.URL {
	t.Helper()
	u, err := url.Parse("https://www.airbnb.com")
	require.NoError(t, err)
	return u
}

func TestSearchListingsAdmissionAndOrder(t *testing.T) {
	t.Parallel()

	listings, err := SearchListings(loadFixture(t, "search.html"), testOrigin(t))
	require.NoError(t, err)
	require.Len(t, listings, 3)

	require.Equal(t, SearchListing{
		Title:  "Loft in Le Marais",
		Price:  "€142 night",
		Rating: "4.92 out of 5 average rating, 210 reviews",
		URL:    "https://www.airbnb.com/rooms/101?adults=2&source_impression_id=p3",
		Image:  "https://a0.muscache.com/im/pictures/101.jpg",
	}, listings[0])

	// Fallback selectors for title, price and image.
	require.Equal(t, SearchListing{
		Title: "Studio near Montmartre",
		Price: "€98 night",
		URL:   "https://www.airbnb.com/rooms/102",
		Image: "https://a0.muscache.com/im/pictures/102.jpg",
	}, listings[1])

	require.Equal(t, "Apartment with Eiffel Tower view", listings[2].Title)
	require.Equal(t, "https://www.airbnb.com/rooms/104", listings[2].URL)
	require.Equal(t, "Rating 5.0 out of 5", listings[2].Rating)

	for _, l := range listings {
		require.NotEmpty(t, l.Title)
		require.True(t, strings.HasPrefix(l.URL, "https://www.airbnb.com/rooms/"), l.URL)
	}
}

func TestSearchListingsDropsCardsWithoutListingURL(t *testing.T) {
	t.Parallel()

	listings, err := SearchListings(loadFixture(t, "search.html"), testOrigin(t))
	require.NoError(t, err)

	titles := make([]string, 0, len(listings))
	for _, l := range listings {
		titles = append(titles, l.Title)
	}
	for _, dropped := range []string{
		"Houseboat on the Seine", // no anchor at all
		"Room with a view",       // href only contains the listing path
		"Sponsored stay",         // protocol-relative link to another host
		"Another sponsored stay", // absolute link to another host
	} {
		require.NotContains(t, titles, dropped)
	}
}

func TestSearchListingsIsIdempotent(t *testing.T) {
	t.Parallel()

	html := loadFixture(t, "search.html")
	first, err := SearchListings(html, testOrigin(t))
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := SearchListings(html, testOrigin(t))
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestSearchListingsWithoutItems(t *testing.T) {
	t.Parallel()

	listings, err := SearchListings([]byte("<html><body><p>No results</p></body></html>"), testOrigin(t))
	require.NoError(t, err)
	require.NotNil(t, listings)
	require.Empty(t, listings)
}

func TestSearchListingsCardContainerFallback(t *testing.T) {
	t.Parallel()

	html := `<div data-testid="card-container">
		<a href="/rooms/7">x</a>
		<div data-testid="listing-card-title">Houseboat</div>
	</div>`
	listings, err := SearchListings([]byte(html), testOrigin(t))
	require.NoError(t, err)
	require.Len(t, listings, 1)
	require.Equal(t, "https://www.airbnb.com/rooms/7", listings[0].URL)
}

func TestDetailFullPage(t *testing.T) {
	t.Parallel()

	detail, err := Detail(loadFixture(t, "detail.html"))
	require.NoError(t, err)

	require.Equal(t, "Sunny loft in Le Marais", detail.Title)
	require.Equal(t, "Bright top-floor loft & balcony.", detail.Description)
	require.Equal(t, []string{"Wifi", "Kitchen", "Washer"}, detail.Amenities)
	require.Equal(t, "Hosted by Camille", detail.Host)
	require.Equal(t, []Review{
		{Text: "Perfect location, spotless.", Rating: "Rating, 5 stars", Author: "Julien"},
		{Text: "Lovely host, noisy street at night.", Author: "Priya"},
	}, detail.Reviews)
}

func TestDetailMissingSectionsDefaultToEmpty(t *testing.T) {
	t.Parallel()

	detail, err := Detail(loadFixture(t, "detail_sparse.html"))
	require.NoError(t, err)

	require.Equal(t, "Cabin in the woods", detail.Title)
	require.Equal(t, "A quiet cabin two hours from the city.", detail.Description)
	require.Equal(t, "Hosted by Ana", detail.Host)
	require.NotNil(t, detail.Amenities)
	require.Empty(t, detail.Amenities)
	require.NotNil(t, detail.Reviews)
	require.Empty(t, detail.Reviews)
}

func TestDetailEmptyDocument(t *testing.T) {
	t.Parallel()

	detail, err := Detail(nil)
	require.NoError(t, err)
	require.Equal(t, ListingDetail{Amenities: []string{}, Reviews: []Review{}}, detail)
}

func TestChainFirstMatchWins(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<div><p class="a">  </p><p class="b"> second </p><a class="c" href=" /x ">link</a></div>`))
	require.NoError(t, err)

	tests := []struct {
		name  string
		chain Chain
		want  string
		found bool
	}{
		{name: "empty text falls through", chain: Chain{{CSS: ".a"}, {CSS: ".b"}}, want: "second", found: true},
		{name: "attribute trimmed", chain: Chain{{CSS: ".c", Attr: "href"}}, want: "/x", found: true},
		{name: "missing attribute", chain: Chain{{CSS: ".b", Attr: "href"}}, want: "", found: false},
		{name: "no match", chain: Chain{{CSS: ".zzz"}}, want: "", found: false},
		{name: "empty chain", chain: nil, want: "", found: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := tt.chain.Resolve(doc.Selection)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.found, ok)
		})
	}
}

func TestChainNilScope(t *testing.T) {
	t.Parallel()

	chain := Chain{{CSS: "p"}}
	require.Equal(t, "", chain.String(nil))
	require.Empty(t, chain.ResolveAll(nil))
	require.Nil(t, chain.Scopes(nil))
}

func TestQualify(t *testing.T) {
	t.Parallel()

	origin := testOrigin(t)
	require.Equal(t, "", qualify(origin, ""))
	require.Equal(t, "https://www.airbnb.com/rooms/5", qualify(origin, "/rooms/5"))
	require.Equal(t, "https://WWW.AIRBNB.COM/rooms/5", qualify(origin, "https://WWW.AIRBNB.COM/rooms/5"))
	require.Equal(t, "", qualify(origin, "https://other.example/rooms/5"))
	require.Equal(t, "", qualify(origin, "//other.example/rooms/5"))
	require.Equal(t, "", qualify(origin, "/help/rooms/5"))
	require.Equal(t, "", qualify(origin, "/s/homes"))
	require.Equal(t, "", qualify(origin, "http://[::1"))
	require.Equal(t, "/rooms/5", qualify(nil, "/rooms/5"))
}
