package crawler

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Price patterns accept the shekel, dollar and euro glyphs. The optional
// space also matches non-breaking spaces, which the sites use between the
// glyph and the amount.
var (
	currencyPriceRe         = regexp.MustCompile(`(?:₪|\$|€)[\s\p{Zs}]?\d[\d,.]*`)
	optionalCurrencyPriceRe = regexp.MustCompile(`(?:₪|\$|€)?[\s\p{Zs}]?\d[\d,.]*`)
	beeDealsPriceRe         = regexp.MustCompile(`(?:₪|\$|€|USD|ILS)?[\s\p{Zs}]?\d[\d,.]+`)
	pricedParentheticalRe   = regexp.MustCompile(`(?:₪|\$|€)[\s\p{Zs}]?\d[\d,.]*\s*\([^)]*\)`)
	percentRe               = regexp.MustCompile(`(\d+\.?\d*%)`)

	separatorsRe      = regexp.MustCompile(`[\s\p{Zs}.,\-_]+`)
	digitsRe          = regexp.MustCompile(`^\d+$`)
	numericLinkTextRe = regexp.MustCompile(`^\d+[\d,.\s]*$`)

	backgroundURLRe = regexp.MustCompile(`url\(\s*["']?([^"')]+)["']?\s*\)`)
	srcsetFirstRe   = regexp.MustCompile(`^([^\s,]+)`)

	// "only for", "starting from" and a bare "only" in front of a price
	promoPrefixRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^\s*רק\s+ב\s*[-:]?\s*(?:₪|\$|€)?\s*`),
		regexp.MustCompile(`(?i)^\s*החל\s+מ\s*[-:]?\s*(?:₪|\$|€)?\s*`),
		regexp.MustCompile(`(?i)^\s*רק\s+(?:₪|\$|€)?\s*`),
	}
)

// Link texts that are calls to action rather than product names.
var callToActionTexts = map[string]bool{
	"view":   true,
	"open":   true,
	"קנה":    true,
	"רכוש":   true,
	"לפרטים": true,
}

// Placeholder amounts bee.deals renders before prices are bound.
var beeDealsPlaceholderPrices = map[string]bool{
	"$0.0": true,
	"$0":   true,
	"0.0":  true,
	"0":    true,
	"₪0":   true,
	"€0":   true,
}

// normalizeSpace collapses whitespace runs into a single space and trims.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func toLower(s string) string {
	return strings.ToLower(s)
}

// isDigitsOnly reports whether s is nothing but digits once whitespace and
// punctuation are removed.
func isDigitsOnly(s string) bool {
	return digitsRe.MatchString(separatorsRe.ReplaceAllString(s, ""))
}

// acceptableTitle rejects numeric candidates and anything of minLen runes or
// fewer.
func acceptableTitle(s string, minLen int) bool {
	return s != "" && !isDigitsOnly(s) && utf8.RuneCountInString(s) > minLen
}

// stripPromoPrefixes removes the promotional prefixes from the front of a title.
func stripPromoPrefixes(title string) string {
	for _, re := range promoPrefixRes {
		title = re.ReplaceAllString(title, "")
	}
	return normalizeSpace(title)
}

// findCurrencyPrice returns the first currency-prefixed amount in s.
func findCurrencyPrice(s string) string {
	return strings.TrimSpace(currencyPriceRe.FindString(s))
}

// isSingleBareDigit matches prices like "7" picked up from labels such as
// "Black-7".
func isSingleBareDigit(price string) bool {
	p := strings.TrimSpace(price)
	r, size := utf8.DecodeRuneInString(p)
	return size == len(p) && size > 0 && unicode.IsDigit(r)
}

// isWordRune treats letters in any script as word characters so a price
// glued to Hebrew text is not considered free-standing.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

// priceAtTokenBoundary finds the first currency-prefixed amount in title and
// returns it only when neither neighbour is a word character.
func priceAtTokenBoundary(title string) (string, bool) {
	loc := currencyPriceRe.FindStringIndex(title)
	if loc == nil {
		return "", false
	}
	if loc[0] > 0 {
		r, _ := utf8.DecodeLastRuneInString(title[:loc[0]])
		if isWordRune(r) {
			return "", false
		}
	}
	if loc[1] < len(title) {
		r, _ := utf8.DecodeRuneInString(title[loc[1]:])
		if isWordRune(r) {
			return "", false
		}
	}
	return strings.TrimSpace(title[loc[0]:loc[1]]), true
}

// stripPrices removes "<price> (<note>)" and then bare prices from title.
func stripPrices(title string) string {
	title = pricedParentheticalRe.ReplaceAllString(title, "")
	title = currencyPriceRe.ReplaceAllString(title, "")
	return normalizeSpace(title)
}

// backgroundImageURL extracts the first url(...) from an inline style.
func backgroundImageURL(style string) string {
	m := backgroundURLRe.FindStringSubmatch(style)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// firstSrcsetURL returns the first candidate URL of a srcset attribute.
func firstSrcsetURL(srcset string) string {
	m := srcsetFirstRe.FindStringSubmatch(strings.TrimSpace(srcset))
	if m == nil {
		return ""
	}
	return m[1]
}
