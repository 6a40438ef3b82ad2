package crawler

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/dealaggregator/internal/urlutil"
)

// BeeDealsName identifies il.bee.deals
const BeeDealsName = "beedeals"

// BeeDeals extracts pins from the il.bee.deals dashboard, an AngularJS app
// whose bindings leave data in bo-* attributes.
type BeeDeals struct {
	Generic
}

// Name returns the variant identifier
func (BeeDeals) Name() string { return BeeDealsName }

// RequiresTitleOrLink is true: pins often carry a price badge and nothing else
func (BeeDeals) RequiresTitleOrLink() bool { return true }

// Title reads the pin caption.
func (b BeeDeals) Title(s *goquery.Selection) string {
	center := s.Find(".pinMenuCenter").First()
	if center.Length() == 0 {
		return b.Generic.Title(s)
	}

	if title := text(center.Find("span.ng-binding").First()); title != "" {
		return title
	}

	var title string
	center.Find("span").EachWithBreak(func(_ int, span *goquery.Selection) bool {
		if candidate := text(span); utf8.RuneCountInString(candidate) > 3 {
			title = candidate
			return false
		}
		return true
	})
	if title != "" {
		return title
	}

	if boText, ok := center.Attr("bo-text"); ok {
		if title = normalizeSpace(boText); title != "" {
			return title
		}
	}

	if all := text(center); utf8.RuneCountInString(all) > 3 {
		return all
	}
	return b.Generic.Title(s)
}

// Price reads the amount on the pin's price link, ignoring placeholders.
func (b BeeDeals) Price(s *goquery.Selection) string {
	priceText := text(s.Find(".pinPrice").First().Find("a").First())
	if priceText != "" && !beeDealsPlaceholderPrices[priceText] {
		if m := strings.TrimSpace(beeDealsPriceRe.FindString(priceText)); m != "" {
			return m
		}
		if utf8.RuneCountInString(priceText) > 2 {
			return priceText
		}
	}
	return b.Generic.Price(s)
}

// Image reads the pin thumbnail, bound through bo-src-i before load.
func (b BeeDeals) Image(s *goquery.Selection, r urlutil.BoundResolver) string {
	img := s.Find(".image_holder").First().Find("img").First()
	if src := imageSource(img, "bo-src-i", "src", "data-src", "data-lazy-src"); src != "" {
		if u, ok := r.Asset(src); ok {
			return u
		}
	}
	return b.Generic.Image(s, r)
}

// Link prefers the price call to action, then any redirect link.
func (b BeeDeals) Link(s *goquery.Selection, r urlutil.BoundResolver) string {
	if href := firstAttr(s.Find(".pinPrice a").First(), "bo-href", "href"); href != "" {
		if u, ok := r.Link(href); ok {
			return u
		}
	}

	var link string
	s.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := firstAttr(a, "href", "bo-href")
		if !strings.Contains(href, "go.php") && !strings.Contains(href, "bee.deals") {
			return true
		}
		if u, ok := r.Link(href); ok {
			link = u
			return false
		}
		return true
	})
	if link != "" {
		return link
	}
	return b.Generic.Link(s, r)
}
