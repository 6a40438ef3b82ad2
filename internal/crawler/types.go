package crawler

import (
	"encoding/json"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/dealaggregator/internal/urlutil"
)

// DealItem represents a scraped deal. An empty field means the value was not
// found and is encoded as JSON null.
type DealItem struct {
	Title string
	Link  string
	Price string
	Image string
}

type dealItemJSON struct {
	Title *string `json:"title"`
	Link  *string `json:"link"`
	Price *string `json:"price"`
	Image *string `json:"image"`
}

// MarshalJSON encodes absent fields as null
func (d DealItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(dealItemJSON{
		Title: optional(d.Title),
		Link:  optional(d.Link),
		Price: optional(d.Price),
		Image: optional(d.Image),
	})
}

// UnmarshalJSON accepts null or missing fields
func (d *DealItem) UnmarshalJSON(data []byte) error {
	var raw dealItemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*d = DealItem{
		Title: deref(raw.Title),
		Link:  deref(raw.Link),
		Price: deref(raw.Price),
		Image: deref(raw.Image),
	}
	return nil
}

// dedupKey returns the resolved link, else the lower-cased title. Records
// with neither map to "".
func (d DealItem) dedupKey() string {
	if d.Link != "" {
		return d.Link
	}
	return normalizeSpace(toLower(d.Title))
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Variant is the extraction strategy set for one markup dialect. Every method
// receives a single node matched by the source's item selector and returns ""
// when its strategies produce nothing.
type Variant interface {
	// Name returns the variant's identifier for logging
	Name() string

	// Title returns the raw title candidate before filtering
	Title(s *goquery.Selection) string

	// Price returns the price candidate
	Price(s *goquery.Selection) string

	// Image returns an absolute image URL on any host
	Image(s *goquery.Selection, r urlutil.BoundResolver) string

	// Link returns an absolute allowlisted URL
	Link(s *goquery.Selection, r urlutil.BoundResolver) string

	// RequiresTitleOrLink reports whether a price alone is not enough to
	// keep a record
	RequiresTitleOrLink() bool
}

// VariantFor selects the variant for a source id. Unknown ids get Generic.
func VariantFor(id string) Variant {
	switch id {
	case Deal4RealName:
		return Deal4Real{}
	case ZuzuName:
		return Zuzu{}
	case BuyWithUsName:
		return BuyWithUs{}
	case BeeDealsName:
		return BeeDeals{}
	default:
		return Generic{}
	}
}
