package extract

// The selector map below tracks the listing site's markup by hand. Each chain
// starts with the selector seen on current pages; later entries cover older
// or alternate layouts.

type searchSelectorSet struct {
	Item   Chain
	Title  Chain
	Price  Chain
	Rating Chain
	URL    Chain
	Image  Chain
}

type reviewSelectorSet struct {
	Item   Chain
	Text   Chain
	Rating Chain
	Author Chain
}

type detailSelectorSet struct {
	Title       Chain
	Description Chain
	Amenities   Chain
	Host        Chain
	Review      reviewSelectorSet
}

// listingPathPrefix marks anchors that point at a listing page.
const listingPathPrefix = "/rooms/"

var ratingLabel = Chain{
	{CSS: `[aria-label*="rating"]`, Attr: "aria-label"},
	{CSS: `[aria-label*="Rating"]`, Attr: "aria-label"},
}

var searchSelectors = searchSelectorSet{
	Item: Chain{
		{CSS: `[itemprop="itemListElement"]`},
		{CSS: `[data-testid="card-container"]`},
	},
	Title: Chain{
		{CSS: `[data-testid="listing-card-title"]`},
		{CSS: `[id^="title_"]`},
		{CSS: `meta[itemprop="name"]`, Attr: "content"},
	},
	Price: Chain{
		{CSS: `[data-testid="listing-card-price"]`},
		{CSS: `[data-testid="price-availability-row"]`},
	},
	Rating: ratingLabel,
	URL: Chain{
		{CSS: `a[href^="` + listingPathPrefix + `"]`, Attr: "href"},
		// Absolute links; qualify rejects other hosts and non-listing paths.
		{CSS: `a[href^="http"][href*="` + listingPathPrefix + `"]`, Attr: "href"},
	},
	Image: Chain{
		{CSS: `img[src]`, Attr: "src"},
		{CSS: `img[data-src]`, Attr: "data-src"},
	},
}

var detailSelectors = detailSelectorSet{
	Title: Chain{
		{CSS: `h1`},
		{CSS: `meta[property="og:title"]`, Attr: "content"},
	},
	Description: Chain{
		{CSS: `[data-section-id="DESCRIPTION_DEFAULT"] span`, All: true},
		{CSS: `meta[name="description"]`, Attr: "content"},
	},
	Amenities: Chain{
		{CSS: `[data-section-id="AMENITIES_DEFAULT"] [data-testid="modal-container"] div`},
		{CSS: `[data-section-id="AMENITIES_DEFAULT"] li`},
	},
	Host: Chain{
		{CSS: `[data-section-id="HOST_PROFILE_DEFAULT"] h2`, All: true},
		{CSS: `[data-section-id="HOST_OVERVIEW_DEFAULT"] h2`, All: true},
	},
	Review: reviewSelectorSet{
		Item: Chain{
			{CSS: `[data-review-id]`},
		},
		Text: Chain{
			{CSS: `[data-testid="review-text"]`, All: true},
		},
		Rating: ratingLabel,
		Author: Chain{
			{CSS: `[data-testid="review-author"]`, All: true},
		},
	},
}
