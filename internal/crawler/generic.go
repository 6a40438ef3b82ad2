package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/dealaggregator/internal/urlutil"
)

// GenericName identifies the fallback variant
const GenericName = "generic"

// defaultImageAttrs lists the direct source attribute followed by the lazy
// loading variants the sites use.
var defaultImageAttrs = []string{"src", "data-src", "data-lazy-src"}

// Generic holds the fallback strategies every site variant delegates to.
type Generic struct{}

// Name returns the variant identifier
func (Generic) Name() string { return GenericName }

// RequiresTitleOrLink is false: any of title, link or price keeps a record
func (Generic) RequiresTitleOrLink() bool { return false }

// Title tries headings, bold text, the first link text, the first paragraph
// and finally the node's own text with prices removed.
func (Generic) Title(s *goquery.Selection) string {
	for _, tag := range []string{"h1", "h2", "h3"} {
		if el := s.Find(tag).First(); el.Length() > 0 {
			if title := text(el); title != "" {
				return title
			}
			break
		}
	}

	if el := s.Find("h4, h5, h6, strong, b").First(); el.Length() > 0 {
		if title := text(el); title != "" {
			return title
		}
	}

	if a := s.Find("a[href]").First(); a.Length() > 0 {
		linkText := joinedText(a, "")
		if linkText != "" && !numericLinkTextRe.MatchString(linkText) && !callToActionTexts[toLower(linkText)] {
			return normalizeSpace(linkText)
		}
	}

	if p := s.Find("p").First(); p.Length() > 0 {
		if title := text(p); title != "" {
			return title
		}
	}

	whole := joinedText(s, " ")
	return normalizeSpace(optionalCurrencyPriceRe.ReplaceAllString(whole, ""))
}

// Price looks for an element whose class mentions "price" and takes the
// first currency-prefixed amount from it, or from the whole node.
func (Generic) Price(s *goquery.Selection) string {
	el := s.Find(".price").First()
	if el.Length() == 0 {
		el = s.Find("[class]").FilterFunction(func(_ int, c *goquery.Selection) bool {
			class, _ := c.Attr("class")
			return strings.Contains(toLower(class), "price")
		}).First()
	}

	var source string
	if el.Length() > 0 {
		source = joinedText(el, " ")
	}
	if source == "" {
		source = joinedText(s, " ")
	}
	return findCurrencyPrice(source)
}

// Image takes the first image in the node, then its inline background, then
// any styled element in the node, then the nearest image in an ancestor.
func (Generic) Image(s *goquery.Selection, r urlutil.BoundResolver) string {
	img := s.Find("img").First()
	if src := imageSource(img, defaultImageAttrs...); src != "" {
		if u, ok := r.Asset(src); ok {
			return u
		}
	}
	if style, ok := img.Attr("style"); ok {
		if u, ok := r.Asset(backgroundImageURL(style)); ok {
			return u
		}
	}

	styled := s.Filter("[style*='url(']").AddSelection(s.Find("[style*='url(']")).First()
	if style, ok := styled.Attr("style"); ok {
		if u, ok := r.Asset(backgroundImageURL(style)); ok {
			return u
		}
	}

	var found string
	s.Parents().EachWithBreak(func(_ int, p *goquery.Selection) bool {
		src := imageSource(p.Find("img").First(), defaultImageAttrs...)
		if src == "" {
			return true
		}
		if u, ok := r.Asset(src); ok {
			found = u
			return false
		}
		return true
	})
	return found
}

// Link resolves the first anchor carrying an href.
func (Generic) Link(s *goquery.Selection, r urlutil.BoundResolver) string {
	href, ok := s.Find("a[href]").First().Attr("href")
	if !ok {
		return ""
	}
	u, _ := r.Link(href)
	return u
}
