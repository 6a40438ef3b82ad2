package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/dealaggregator/internal/urlutil"
)

// BuyWithUsName identifies buywithus.org
const BuyWithUsName = "buywithus"

const buyWithUsBadgeSelector = ".re-ribbon-badge, .badge, [class*='discount'], [class*='percent']"

// BuyWithUs extracts deals from buywithus.org. It shares the zuzu theme but
// decorates the price with the card's discount badge.
type BuyWithUs struct {
	Generic
}

// Name returns the variant identifier
func (BuyWithUs) Name() string { return BuyWithUsName }

// Price returns "<amount> (<badge>)" when a percentage badge is present.
func (b BuyWithUs) Price(s *goquery.Selection) string {
	el := s.Find(".price_for_grid .rh_regular_price").First()
	if el.Length() == 0 {
		el = s.Find(".rh_regular_price").First()
	}

	priceText := joinedText(el, "")
	if priceText != "" {
		if amount := strings.TrimSpace(optionalCurrencyPriceRe.FindString(priceText)); amount != "" {
			badge := joinedText(s.Find(buyWithUsBadgeSelector).First(), "")
			if strings.Contains(badge, "%") {
				return amount + " (" + badge + ")"
			}
			return amount
		}
		if strings.Contains(priceText, "%") {
			return priceText
		}
	}
	return b.Generic.Price(s)
}

// Image reads the thumbnail inside the card's figure link.
func (b BuyWithUs) Image(s *goquery.Selection, r urlutil.BoundResolver) string {
	if u := figureImage(s, r); u != "" {
		return u
	}
	return b.Generic.Image(s, r)
}
