// Package urlutil turns scraped hrefs into absolute URLs and keeps
// navigational links on the known deal sites.
package urlutil

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

// DefaultHosts are the hostnames of the registered deal sources.
var DefaultHosts = []string{
	"deal4real.co.il",
	"zuzu.deals",
	"buywithus.org",
	"il.bee.deals",
}

// Resolver resolves hrefs against a page URL and enforces a host allowlist.
// It is immutable after construction and safe for concurrent use.
type Resolver struct {
	allowed map[string]struct{}
}

// NewResolver registers every host both with and without a leading "www.".
func NewResolver(hosts ...string) *Resolver {
	r := &Resolver{allowed: make(map[string]struct{}, len(hosts)*2)}
	for _, h := range hosts {
		h = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(h)), "www.")
		if h == "" {
			continue
		}
		r.allowed[h] = struct{}{}
		r.allowed["www."+h] = struct{}{}
	}
	return r
}

// Allowed reports whether rawURL points at an allowlisted host.
func (r *Resolver) Allowed(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	_, ok := r.allowed[strings.ToLower(u.Host)]
	return ok
}

// Resolve returns the absolute form of href relative to base. Absolute hrefs
// pass through unchanged when allowExternal is set; otherwise the result must
// be an http(s) URL on an allowlisted host.
func (r *Resolver) Resolve(base, href string, allowExternal bool) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}

	if isAbsoluteHTTP(href) {
		if allowExternal || r.Allowed(href) {
			return href, true
		}
		return "", false
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	abs := baseURL.ResolveReference(ref)
	resolved := readableString(abs)

	if allowExternal {
		return resolved, true
	}
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	if !r.Allowed(resolved) {
		return "", false
	}
	return resolved, true
}

// Bind fixes the base URL so callers only pass hrefs.
func (r *Resolver) Bind(base string) BoundResolver {
	return BoundResolver{resolver: r, base: base}
}

// BoundResolver is a Resolver tied to one page URL.
type BoundResolver struct {
	resolver *Resolver
	base     string
}

// Base returns the page URL hrefs are resolved against.
func (b BoundResolver) Base() string { return b.base }

// Link resolves a navigational href. Only allowlisted hosts survive.
func (b BoundResolver) Link(href string) (string, bool) {
	return b.resolver.Resolve(b.base, href, false)
}

// Asset resolves an image or other asset href. Any host is accepted.
func (b BoundResolver) Asset(href string) (string, bool) {
	return b.resolver.Resolve(b.base, href, true)
}

func isAbsoluteHTTP(href string) bool {
	return strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://")
}

// readableString is u.String() with percent-encoded UTF-8 in the path
// written back as text, so /מוצר/x stays /מוצר/x after joining.
func readableString(u *url.URL) string {
	escaped := u.EscapedPath()
	path := unescapeNonASCII(escaped)
	if u.Opaque != "" || path == escaped {
		return u.String()
	}

	head := *u
	head.Path, head.RawPath = "", ""
	head.RawQuery, head.ForceQuery = "", false
	head.Fragment, head.RawFragment = "", ""

	var b strings.Builder
	b.WriteString(head.String())
	b.WriteString(path)
	if u.ForceQuery || u.RawQuery != "" {
		b.WriteByte('?')
		b.WriteString(u.RawQuery)
	}
	if u.Fragment != "" {
		b.WriteByte('#')
		b.WriteString(u.EscapedFragment())
	}
	return b.String()
}

// unescapeNonASCII decodes runs of %XX escapes that form valid multi-byte
// UTF-8 and leaves every other escape alone.
func unescapeNonASCII(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}

	var b strings.Builder
	for i := 0; i < len(s); {
		start := i
		var run []byte
		for i+2 < len(s) && s[i] == '%' {
			c, ok := unhex(s[i+1], s[i+2])
			if !ok || c < utf8.RuneSelf {
				break
			}
			run = append(run, c)
			i += 3
		}
		if len(run) > 0 {
			if utf8.Valid(run) {
				b.Write(run)
			} else {
				b.WriteString(s[start:i])
			}
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

func unhex(hi, lo byte) (byte, bool) {
	h, ok1 := hexValue(hi)
	l, ok2 := hexValue(lo)
	return h<<4 | l, ok1 && ok2
}

func hexValue(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
