package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/dealaggregator/internal/urlutil"
)

// ZuzuName identifies zuzu.deals
const ZuzuName = "zuzu"

// Zuzu extracts deals from zuzu.deals
type Zuzu struct {
	Generic
}

// Name returns the variant identifier
func (Zuzu) Name() string { return ZuzuName }

// Price reads the regular price block. A percentage is a valid price on its
// own; otherwise the first amount is taken, currency glyph optional.
func (z Zuzu) Price(s *goquery.Selection) string {
	el := s.Find(".rh_regular_price").First()
	if el.Length() == 0 {
		el = s.Find(".price_count").First()
	}

	priceText := joinedText(el, "")
	if priceText == "" {
		return z.Generic.Price(s)
	}
	if strings.Contains(priceText, "%") {
		return priceText
	}
	if m := strings.TrimSpace(optionalCurrencyPriceRe.FindString(priceText)); m != "" {
		return m
	}
	return priceText
}

// Image reads the thumbnail inside the card's figure link.
func (z Zuzu) Image(s *goquery.Selection, r urlutil.BoundResolver) string {
	if u := figureImage(s, r); u != "" {
		return u
	}
	return z.Generic.Image(s, r)
}

// figureImage handles the figure > a > img thumbnails of the WordPress deal
// themes, falling back to the first srcset candidate.
func figureImage(s *goquery.Selection, r urlutil.BoundResolver) string {
	img := s.Find("figure").First().Find("a").First().Find("img").First()
	if img.Length() == 0 {
		return ""
	}
	if src := imageSource(img, defaultImageAttrs...); src != "" {
		if u, ok := r.Asset(src); ok {
			return u
		}
	}
	srcset, _ := img.Attr("srcset")
	if candidate := firstSrcsetURL(srcset); candidate != "" && !strings.HasPrefix(candidate, "data:") {
		if u, ok := r.Asset(candidate); ok {
			return u
		}
	}
	return ""
}
