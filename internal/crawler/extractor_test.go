package crawler

import (
	"encoding/json"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/dealaggregator/internal/urlutil"
)

const deal4RealSelector = ".product-card-wrapper .product-card, .product-card"

const deal4RealHTML = `<html><body>
<div class="product-card-wrapper">
  <div class="product-card">
    <div class="product-image-wrapper">
      <img class="badge-icon" src="/icons/hot.svg">
      <img class="product-image" src="https://m.media-amazon.com/images/I/vacuum.jpg" alt="vacuum">
    </div>
    <div class="product-title">Amazing Vacuum Cleaner X1</div>
    <div class="product-pricing-wrapper">
      <div>מחיר: <span>₪92</span></div>
      <div>מחיר קודם: <span style="text-decoration: line-through">₪150</span></div>
      <div>ירידה: 39%</div>
    </div>
    <a href="/deal/amazing-vacuum">לפרטים</a>
  </div>
</div>
<div class="product-card-wrapper">
  <div class="product-card">
    <div class="product-title">Amazing Vacuum Cleaner X1 (copy)</div>
    <div class="product-pricing-wrapper"><div>מחיר: <span>₪95</span></div></div>
    <a href="https://deal4real.co.il/deal/amazing-vacuum">לפרטים</a>
  </div>
</div>
<div class="product-card">
  <div class="product-title">123</div>
  <img alt="Cordless Drill Set" src="/img/drill.jpg">
  <div class="product-pricing-wrapper">
    <div>מחיר: <span>₪199</span></div>
    <div>ירידה: 25%</div>
  </div>
  <a href="/deal/drill">לפרטים</a>
</div>
</body></html>`

func newTestExtractor(id, base, selector string) *Extractor {
	r := urlutil.NewResolver(urlutil.DefaultHosts...).Bind(base)
	return NewExtractor(VariantFor(id), selector, r)
}

func TestExtractDeal4Real(t *testing.T) {
	e := newTestExtractor(Deal4RealName, "https://deal4real.co.il/", deal4RealSelector)

	deals, err := e.Extract(deal4RealHTML)
	require.NoError(t, err)
	require.Len(t, deals, 2)

	assert.Equal(t, DealItem{
		Title: "Amazing Vacuum Cleaner X1",
		Link:  "https://deal4real.co.il/deal/amazing-vacuum",
		Price: "₪92 (₪150)",
		Image: "https://m.media-amazon.com/images/I/vacuum.jpg",
	}, deals[0])

	// numeric title class falls back to the image alt text
	assert.Equal(t, "Cordless Drill Set", deals[1].Title)
	assert.Equal(t, "₪199 (25%)", deals[1].Price)
	assert.Equal(t, "https://deal4real.co.il/img/drill.jpg", deals[1].Image)
}

func TestExtractZuzu(t *testing.T) {
	html := `<div class="col_item">
  <figure><a href="https://zuzu.deals/deal/headphones"><img src="data:image/gif;base64,R0lGODlhAQABAAAAACw=" data-src="https://cdn.zuzu.deals/img/headphones.jpg"></a></figure>
  <h3><a href="https://zuzu.deals/deal/headphones">Noise Cancelling Headphones</a></h3>
  <span class="price_count"><ins>$199.99</ins></span>
</div>
<div class="col_item">
  <h3><a href="/deal/watch">Smart Watch</a></h3>
  <span class="rh_regular_price">-35%</span>
</div>
<div class="col_item">
  <h3><a href="https://amazon.com/dp/B0">Outside Link Kettle</a></h3>
  <span class="price_count">7</span>
</div>`

	e := newTestExtractor(ZuzuName, "https://zuzu.deals/", ".col_item")
	deals, err := e.Extract(html)
	require.NoError(t, err)
	require.Len(t, deals, 3)

	assert.Equal(t, "Noise Cancelling Headphones", deals[0].Title)
	assert.Equal(t, "$199.99", deals[0].Price)
	assert.Equal(t, "https://zuzu.deals/deal/headphones", deals[0].Link)
	assert.Equal(t, "https://cdn.zuzu.deals/img/headphones.jpg", deals[0].Image)

	assert.Equal(t, "-35%", deals[1].Price)
	assert.Equal(t, "https://zuzu.deals/deal/watch", deals[1].Link)

	// off-site links are dropped and a lone digit is not a price
	assert.Equal(t, "Outside Link Kettle", deals[2].Title)
	assert.Empty(t, deals[2].Link)
	assert.Empty(t, deals[2].Price)
}

func TestExtractBuyWithUs(t *testing.T) {
	html := `<div class="col_item">
  <figure><a href="/product/blender"><img srcset="https://cdn.buywithus.org/blender-300.jpg 300w, https://cdn.buywithus.org/blender-600.jpg 600w"></a></figure>
  <h3 class="title"><a href="/product/blender">Power Blender 900W</a></h3>
  <div class="price_for_grid"><span class="rh_regular_price">€49.90</span></div>
</div>
<div class="col_item">
  <span class="re-ribbon-badge">-20%</span>
  <h3><a href="/product/toaster">Toaster Pro</a></h3>
  <span class="rh_regular_price">€25</span>
</div>`

	e := newTestExtractor(BuyWithUsName, "https://buywithus.org/", ".col_item")
	deals, err := e.Extract(html)
	require.NoError(t, err)
	require.Len(t, deals, 2)

	assert.Equal(t, "https://buywithus.org/product/blender", deals[0].Link)
	assert.Equal(t, "€49.90", deals[0].Price)
	assert.Equal(t, "https://cdn.buywithus.org/blender-300.jpg", deals[0].Image)

	assert.Equal(t, "€25 (-20%)", deals[1].Price)
}

func TestExtractBeeDeals(t *testing.T) {
	html := `<div class="pins">
<div class="pin nfDealItemsPin">
  <div class="topHolder" ng-click="open(pin.alphaId)"></div>
  <div class="image_holder"><img bo-src-i="https://img.bee.deals/p/1.jpg"></div>
  <div class="pinMenuCenter"><span class="ng-binding">Robot Vacuum S7</span></div>
  <div class="pinPrice"><a bo-href="/go.php?id=1" href="">₪ 899</a></div>
</div>
<div class="pin nfDealItemsPin">
  <div class="pinPrice"><a>$0.0</a></div>
</div>
<div class="pin nfDealItemsPin">
  <div class="pinMenuCenter" bo-text="Air Fryer XL"></div>
  <a href="https://il.bee.deals/go.php?id=2">go</a>
</div>
</div>`

	e := newTestExtractor(BeeDealsName, "https://il.bee.deals/dashboard", ".pin.nfDealItemsPin")
	deals, err := e.Extract(html)
	require.NoError(t, err)
	require.Len(t, deals, 2)

	assert.Equal(t, DealItem{
		Title: "Robot Vacuum S7",
		Link:  "https://il.bee.deals/go.php?id=1",
		Price: "₪ 899",
		Image: "https://img.bee.deals/p/1.jpg",
	}, deals[0])

	assert.Equal(t, "Air Fryer XL", deals[1].Title)
	assert.Equal(t, "https://il.bee.deals/go.php?id=2", deals[1].Link)
}

func TestExtractDedupByTitle(t *testing.T) {
	html := `<div class="item"><h3>Same Thing</h3><span class="price">$5</span></div>
<div class="item"><h3>same   THING</h3><span class="price">$6</span></div>
<div class="item"><h3>Other Thing</h3><span class="price">$7</span></div>`

	e := newTestExtractor("custom", "https://zuzu.deals/", ".item")
	deals, err := e.Extract(html)
	require.NoError(t, err)
	require.Len(t, deals, 2)
	assert.Equal(t, "$5", deals[0].Price)
	assert.Equal(t, "Other Thing", deals[1].Title)
}

func TestExtractMinimumFields(t *testing.T) {
	html := `<div class="item"><span>   </span></div>
<div class="item"><h3>12</h3></div>
<div class="item"><h3>Black-7 Sneakers</h3><a href="https://evil.example/x">view</a></div>
<div class="item"><span class="price">₪10</span></div>`

	e := newTestExtractor("custom", "https://zuzu.deals/", ".item")
	deals, err := e.Extract(html)
	require.NoError(t, err)

	// Black-7 survives as a title and never becomes the price "7"
	require.Len(t, deals, 2)
	assert.Equal(t, DealItem{Title: "Black-7 Sneakers"}, deals[0])
	assert.Equal(t, DealItem{Price: "₪10"}, deals[1])
}

func TestExtractKeepsFirstRecordWithoutTitleOrLink(t *testing.T) {
	html := `<div class="item"><span class="price">₪10</span></div>
<div class="item"><span class="price">₪20</span></div>
<div class="item"><h3>Toaster Duo</h3><span class="price">₪30</span></div>`

	e := newTestExtractor("custom", "https://zuzu.deals/", ".item")
	deals, err := e.Extract(html)
	require.NoError(t, err)
	require.Len(t, deals, 2)
	assert.Equal(t, DealItem{Price: "₪10"}, deals[0])
	assert.Equal(t, DealItem{Title: "Toaster Duo", Price: "₪30"}, deals[1])
}

func TestExtractGenericFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected DealItem
	}{
		{
			name:     "bold text when there is no heading",
			html:     `<div class="item"><strong>Steam Iron</strong><span class="price">₪80</span></div>`,
			expected: DealItem{Title: "Steam Iron", Price: "₪80"},
		},
		{
			name:     "link text",
			html:     `<div class="item"><a href="/deal/kettle">Kettle Max</a></div>`,
			expected: DealItem{Title: "Kettle Max", Link: "https://zuzu.deals/deal/kettle"},
		},
		{
			name:     "call to action link text falls through to paragraph",
			html:     `<div class="item"><a href="/deal/1">לפרטים</a><p>Blender Pro</p></div>`,
			expected: DealItem{Title: "Blender Pro", Link: "https://zuzu.deals/deal/1"},
		},
		{
			name:     "english call to action is case-insensitive",
			html:     `<div class="item"><a href="/deal/2">View</a><p>Rice Cooker</p></div>`,
			expected: DealItem{Title: "Rice Cooker", Link: "https://zuzu.deals/deal/2"},
		},
		{
			name:     "whole text with the price removed",
			html:     `<div class="item"><span>Robot Mop ₪450</span></div>`,
			expected: DealItem{Title: "Robot Mop", Price: "₪450"},
		},
		{
			name:     "inline background on the image tag",
			html:     `<div class="item"><h3>Air Purifier</h3><img style="background-image: url('/bg-img.jpg')"></div>`,
			expected: DealItem{Title: "Air Purifier", Image: "https://zuzu.deals/bg-img.jpg"},
		},
		{
			name:     "styled element inside the node",
			html:     `<div class="item"><h3>Kettle Max</h3><div class="thumb" style="background-image: url(/bg.jpg)"></div></div>`,
			expected: DealItem{Title: "Kettle Max", Image: "https://zuzu.deals/bg.jpg"},
		},
		{
			name:     "image found in an ancestor",
			html:     `<section><img src="/parent.jpg"><div class="item"><h3>Steam Iron</h3><b>₪80</b></div></section>`,
			expected: DealItem{Title: "Steam Iron", Price: "₪80", Image: "https://zuzu.deals/parent.jpg"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestExtractor("custom", "https://zuzu.deals/", ".item")
			deals, err := e.Extract(tt.html)
			require.NoError(t, err)
			require.Len(t, deals, 1)
			assert.Equal(t, tt.expected, deals[0])
		})
	}
}

func TestExtractPriceOnlyNeedsTitleOrLinkForBeeDeals(t *testing.T) {
	html := `<div class="pin nfDealItemsPin"><span class="price">₪10</span></div>`

	e := newTestExtractor(BeeDealsName, "https://il.bee.deals/dashboard", ".pin.nfDealItemsPin")
	deals, err := e.Extract(html)
	require.NoError(t, err)
	assert.Empty(t, deals)
}

func TestExtractIsDeterministic(t *testing.T) {
	e := newTestExtractor(Deal4RealName, "https://deal4real.co.il/", deal4RealSelector)

	first, err := e.Extract(deal4RealHTML)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := e.Extract(deal4RealHTML)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestExtractNoMatches(t *testing.T) {
	e := newTestExtractor(ZuzuName, "https://zuzu.deals/", ".col_item")
	deals, err := e.Extract("<html><body><p>maintenance</p></body></html>")
	require.NoError(t, err)
	assert.NotNil(t, deals)
	assert.Empty(t, deals)
}

type panickyVariant struct {
	Generic
}

func (panickyVariant) Title(s *goquery.Selection) string {
	if s.HasClass("boom") {
		panic("unexpected markup")
	}
	return Generic{}.Title(s)
}

func TestExtractSkipsPanickingNode(t *testing.T) {
	html := `<div class="item"><h3>First Deal</h3></div><div class="item boom"><h3>Bad</h3></div><div class="item"><h3>Last Deal</h3></div>`

	r := urlutil.NewResolver(urlutil.DefaultHosts...).Bind("https://zuzu.deals/")
	deals, err := NewExtractor(panickyVariant{}, ".item", r).Extract(html)
	require.NoError(t, err)
	require.Len(t, deals, 2)
	assert.Equal(t, "First Deal", deals[0].Title)
	assert.Equal(t, "Last Deal", deals[1].Title)
}

func TestDealItemJSON(t *testing.T) {
	data, err := json.Marshal(DealItem{Title: "Kettle", Price: "₪80"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Kettle","link":null,"price":"₪80","image":null}`, string(data))

	var decoded DealItem
	require.NoError(t, json.Unmarshal([]byte(`{"title":null,"link":"https://zuzu.deals/x"}`), &decoded))
	assert.Equal(t, DealItem{Link: "https://zuzu.deals/x"}, decoded)
}

func TestVariantFor(t *testing.T) {
	assert.Equal(t, Deal4RealName, VariantFor("deal4real").Name())
	assert.Equal(t, ZuzuName, VariantFor("zuzu").Name())
	assert.Equal(t, BuyWithUsName, VariantFor("buywithus").Name())
	assert.Equal(t, BeeDealsName, VariantFor("beedeals").Name())
	assert.Equal(t, GenericName, VariantFor("anything").Name())
	assert.True(t, VariantFor("beedeals").RequiresTitleOrLink())
	assert.False(t, VariantFor("zuzu").RequiresTitleOrLink())
}
