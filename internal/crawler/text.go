package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// visitText calls fn for every text node under the selection in document
// order. Script, style and template contents are not page text.
func visitText(s *goquery.Selection, fn func(string)) {
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			fn(n.Data)
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Template, atom.Noscript:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
}

// rawText concatenates the text nodes as they appear in the markup.
func rawText(s *goquery.Selection) string {
	var b strings.Builder
	visitText(s, func(t string) { b.WriteString(t) })
	return b.String()
}

// text returns the selection's text with whitespace normalized.
func text(s *goquery.Selection) string {
	return normalizeSpace(rawText(s))
}

// joinedText trims every text node and joins the non-empty ones with sep.
// With sep "" adjacent inline fragments are glued together.
func joinedText(s *goquery.Selection, sep string) string {
	var parts []string
	visitText(s, func(t string) {
		if t = strings.TrimSpace(t); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, sep)
}

// firstAttr returns the first non-blank value among attrs.
func firstAttr(s *goquery.Selection, attrs ...string) string {
	for _, a := range attrs {
		if v, ok := s.Attr(a); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// imageSource returns the first usable source attribute of an image,
// skipping inline data URIs so lazy-load attributes get their turn.
func imageSource(img *goquery.Selection, attrs ...string) string {
	if img.Length() == 0 {
		return ""
	}
	for _, a := range attrs {
		v, ok := img.Attr(a)
		v = strings.TrimSpace(v)
		if !ok || v == "" || strings.HasPrefix(v, "data:") {
			continue
		}
		return v
	}
	return ""
}
