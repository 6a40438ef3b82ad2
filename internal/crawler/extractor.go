package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/dealaggregator/internal/urlutil"
	"sjsage522/dealaggregator/logger"
)

// Extractor turns rendered markup from one source into deal records.
type Extractor struct {
	Variant  Variant
	Selector string
	Resolver urlutil.BoundResolver
}

// NewExtractor creates an extractor for a source page
func NewExtractor(variant Variant, selector string, resolver urlutil.BoundResolver) *Extractor {
	if variant == nil {
		variant = Generic{}
	}
	return &Extractor{
		Variant:  variant,
		Selector: selector,
		Resolver: resolver,
	}
}

// Extract parses html and returns the valid, deduplicated deals in DOM order.
func (e *Extractor) Extract(html string) ([]DealItem, error) {
	doc, err := createDocument(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	return e.ExtractDocument(doc), nil
}

// ExtractDocument runs the extraction over an already parsed document.
func (e *Extractor) ExtractDocument(doc *goquery.Document) []DealItem {
	nodes := doc.Find(e.Selector)
	if nodes.Length() == 0 {
		logger.ForSource(e.Variant.Name()).Debug().
			Str("selector", e.Selector).
			Msg("Selector matched no nodes")
		return []DealItem{}
	}

	slots := processNodes(nodes, e.processNode)

	deals := make([]DealItem, 0, len(slots))
	seen := make(map[string]struct{}, len(slots))
	for _, deal := range slots {
		if deal == nil {
			continue
		}
		// records without link and title share the empty key, so only the
		// first of them is kept
		key := deal.dedupKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		deals = append(deals, *deal)
	}

	if len(deals) == 0 {
		logger.ForSource(e.Variant.Name()).Debug().
			Int("nodes", nodes.Length()).
			Msg("Nodes matched but no deal survived validation")
	}
	return deals
}

// processNode extracts one record, or nil when it fails the minimum-field
// rule.
func (e *Extractor) processNode(s *goquery.Selection) *DealItem {
	title := cleanTitle(e.Variant.Title(s))

	price := strings.TrimSpace(e.Variant.Price(s))
	if isSingleBareDigit(price) {
		price = ""
	}

	title, price = reconcile(title, price)

	deal := &DealItem{
		Title: title,
		Price: price,
		Image: e.Variant.Image(s, e.Resolver),
		Link:  e.Variant.Link(s, e.Resolver),
	}

	if e.Variant.RequiresTitleOrLink() {
		if deal.Title == "" && deal.Link == "" {
			return nil
		}
	} else if deal.Title == "" && deal.Link == "" && deal.Price == "" {
		return nil
	}
	return deal
}

// cleanTitle drops numeric or too short candidates and strips promotional
// prefixes.
func cleanTitle(title string) string {
	title = normalizeSpace(title)
	if title == "" || isDigitsOnly(title) || len([]rune(title)) < 3 {
		return ""
	}
	return stripPromoPrefixes(title)
}

// reconcile moves a free-standing price out of the title when no price was
// found and strips residual prices from the title once both are known.
func reconcile(title, price string) (string, string) {
	if title != "" && price == "" {
		if p, ok := priceAtTokenBoundary(title); ok {
			price = p
			title = normalizeSpace(strings.ReplaceAll(title, p, ""))
		}
	}
	if title != "" && price != "" {
		title = stripPrices(title)
	}
	return normalizeSpace(title), price
}
