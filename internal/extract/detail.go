package extract

import "github.com/PuerkitoBio/goquery"

// Review is one guest review on a listing page.
type Review struct {
	Text   string `json:"text"`
	Rating string `json:"rating,omitempty"`
	Author string `json:"author"`
}

// ListingDetail is the single-listing view.
type ListingDetail struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Amenities   []string `json:"amenities"`
	Host        string   `json:"host"`
	Reviews     []Review `json:"reviews"`
}

// Detail extracts a listing page. Absent sections become "" or [].
func Detail(html []byte) (ListingDetail, error) {
	doc, err := parse(html)
	if err != nil {
		return ListingDetail{}, err
	}
	root := doc.Selection
	detail := ListingDetail{
		Title:       detailSelectors.Title.String(root),
		Description: detailSelectors.Description.String(root),
		Amenities:   detailSelectors.Amenities.ResolveAll(root),
		Host:        detailSelectors.Host.String(root),
		Reviews:     []Review{},
	}
	rs := detailSelectors.Review
	if items := rs.Item.Scopes(root); items != nil {
		items.Each(func(_ int, item *goquery.Selection) {
			detail.Reviews = append(detail.Reviews, Review{
				Text:   rs.Text.String(item),
				Rating: rs.Rating.String(item),
				Author: rs.Author.String(item),
			})
		})
	}
	return detail, nil
}
