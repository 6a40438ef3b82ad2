package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/dealaggregator/internal/urlutil"
)

// Deal4RealName identifies deal4real.co.il
const Deal4RealName = "deal4real"

var deal4RealTitleSelectors = []string{
	".product-title", ".title", ".product-name", ".name",
	"[data-title]", "[data-product-title]", "[data-name]",
	"h2.title", "h3.title", ".card-title", ".item-title",
}

// Deal4Real extracts product cards from deal4real.co.il. Prices live in a
// pricing wrapper with Hebrew labels for the current price, the previous
// price and the drop percentage.
type Deal4Real struct {
	Generic
}

// Name returns the variant identifier
func (Deal4Real) Name() string { return Deal4RealName }

// Title prefers explicit title classes, then the image alt text, then
// headings. Candidates that are numeric or too short are skipped.
func (d Deal4Real) Title(s *goquery.Selection) string {
	for _, sel := range deal4RealTitleSelectors {
		if el := s.Find(sel).First(); el.Length() > 0 {
			if candidate := text(el); acceptableTitle(candidate, 3) {
				return candidate
			}
		}
	}

	if alt, ok := s.Find("img").First().Attr("alt"); ok {
		if candidate := normalizeSpace(alt); acceptableTitle(candidate, 3) {
			return candidate
		}
	}

	for _, tag := range []string{"h1", "h2", "h3"} {
		if el := s.Find(tag).First(); el.Length() > 0 {
			if candidate := text(el); acceptableTitle(candidate, 3) {
				return candidate
			}
		}
	}

	return d.Generic.Title(s)
}

// Price combines the labelled blocks into "<current> (<previous>)" or
// "<current> (<percent>)". A lone percentage is returned as is.
func (d Deal4Real) Price(s *goquery.Selection) string {
	wrapper := s.Find(".product-pricing-wrapper").First()
	if wrapper.Length() == 0 {
		return d.Generic.Price(s)
	}

	var current, previous, discount string
	wrapper.Find("div").Each(func(_ int, div *goquery.Selection) {
		divText := rawText(div)
		lower := toLower(divText)

		switch {
		case strings.Contains(divText, "ירידה:") || strings.Contains(lower, "discount"):
			if m := percentRe.FindStringSubmatch(divText); m != nil {
				discount = m[1]
			}
		case strings.Contains(divText, "מחיר קודם") || strings.Contains(lower, "previous price"):
			if p := labelledPrice(div); p != "" {
				previous = p
			} else if previous == "" {
				previous = findCurrencyPrice(divText)
			}
		case strings.Contains(divText, "מחיר:"):
			if p := labelledPrice(div); p != "" {
				current = p
			} else if current == "" {
				current = findCurrencyPrice(divText)
			}
		}
	})

	switch {
	case current != "" && previous != "":
		return current + " (" + previous + ")"
	case current != "" && discount != "":
		return current + " (" + discount + ")"
	case current != "":
		return current
	case discount != "":
		return discount
	}
	return d.Generic.Price(s)
}

// labelledPrice reads the amount from the span that follows a price label.
func labelledPrice(div *goquery.Selection) string {
	span := div.Find("span").First()
	if span.Length() == 0 {
		return ""
	}
	return findCurrencyPrice(joinedText(span, ""))
}

// Image looks for the product image wrapper in the card and then in the
// enclosing card wrapper, preferring the image tagged "product-image".
func (d Deal4Real) Image(s *goquery.Selection, r urlutil.BoundResolver) string {
	wrapper := s.Find(".product-image-wrapper").First()
	if wrapper.Length() == 0 {
		wrapper = s.Closest(".product-card-wrapper").Find(".product-image-wrapper").First()
	}

	if wrapper.Length() > 0 {
		imgs := wrapper.Find("img")
		img := imgs.Filter(".product-image").First()
		if img.Length() == 0 {
			img = imgs.First()
		}
		if src := imageSource(img, defaultImageAttrs...); src != "" {
			if u, ok := r.Asset(src); ok {
				return u
			}
		}
	}

	return d.Generic.Image(s, r)
}
