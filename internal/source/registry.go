// Package source holds the fixed set of deal sites the service scrapes.
package source

import (
	"fmt"
	"net/url"
	"time"

	"github.com/andybalholm/cascadia"

	"sjsage522/dealaggregator/internal/crawler"
	"sjsage522/dealaggregator/internal/renderer"
	"sjsage522/dealaggregator/internal/urlutil"
	"sjsage522/dealaggregator/pkg/errors"
)

// Source describes one deal site. Sources are immutable after registration.
type Source struct {
	ID           string
	BaseURL      string
	ItemSelector string
	Readiness    renderer.ReadinessPolicy
	Variant      crawler.Variant
}

// Extractor returns an extractor bound to the source's page URL
func (s Source) Extractor(r *urlutil.Resolver) *crawler.Extractor {
	return crawler.NewExtractor(s.Variant, s.ItemSelector, r.Bind(s.BaseURL))
}

// Waits are the renderer timings applied to the default sources
type Waits struct {
	Navigation  time.Duration
	Selector    time.Duration
	NetworkIdle time.Duration
	Settle      time.Duration
}

// Defaults returns deal4real, zuzu, buywithus and beedeals. bee.deals is an
// AngularJS app and needs the network to go idle before the pins exist.
func Defaults(w Waits) []Source {
	domReady := func(selector string) renderer.ReadinessPolicy {
		return renderer.ReadinessPolicy{
			WaitUntil:         renderer.WaitDOMContentLoaded,
			Selector:          selector,
			SelectorTimeout:   w.Selector,
			NavigationTimeout: w.Navigation,
		}
	}

	return []Source{
		{
			ID:           crawler.Deal4RealName,
			BaseURL:      "https://deal4real.co.il/",
			ItemSelector: ".product-card-wrapper .product-card, .product-card",
			Readiness:    domReady(".product-card-wrapper .product-card, .product-card"),
			Variant:      crawler.Deal4Real{},
		},
		{
			ID:           crawler.ZuzuName,
			BaseURL:      "https://zuzu.deals/",
			ItemSelector: ".col_item",
			Readiness:    domReady(".col_item"),
			Variant:      crawler.Zuzu{},
		},
		{
			ID:           crawler.BuyWithUsName,
			BaseURL:      "https://buywithus.org/",
			ItemSelector: ".col_item",
			Readiness:    domReady(".col_item"),
			Variant:      crawler.BuyWithUs{},
		},
		{
			ID:           crawler.BeeDealsName,
			BaseURL:      "https://il.bee.deals/dashboard",
			ItemSelector: ".pin.nfDealItemsPin",
			Readiness: renderer.ReadinessPolicy{
				WaitUntil:         renderer.WaitNetworkIdle,
				Selector:          ".pin.nfDealItemsPin, .pin",
				SelectorTimeout:   w.NetworkIdle,
				Settle:            w.Settle,
				NavigationTimeout: w.Navigation,
			},
			Variant: crawler.BeeDeals{},
		},
	}
}

// Registry looks sources up by id
type Registry struct {
	sources  map[string]Source
	order    []string
	resolver *urlutil.Resolver
}

// NewRegistry validates the sources and builds the host allowlist from their
// base URLs.
func NewRegistry(sources []Source) (*Registry, error) {
	r := &Registry{sources: make(map[string]Source, len(sources))}
	hosts := make([]string, 0, len(sources))

	for _, s := range sources {
		if s.ID == "" {
			return nil, errors.NewConfiguration("source without id", nil)
		}
		if _, dup := r.sources[s.ID]; dup {
			return nil, errors.NewConfiguration(fmt.Sprintf("duplicate source %q", s.ID), nil)
		}
		u, err := url.Parse(s.BaseURL)
		if err != nil || u.Host == "" {
			return nil, errors.NewConfiguration(fmt.Sprintf("source %q has invalid base url %q", s.ID, s.BaseURL), err)
		}
		if err := validateSelector(s.ItemSelector); err != nil {
			return nil, errors.NewConfiguration(fmt.Sprintf("source %q has invalid item selector", s.ID), err)
		}
		if s.Readiness.Selector != "" {
			if err := validateSelector(s.Readiness.Selector); err != nil {
				return nil, errors.NewConfiguration(fmt.Sprintf("source %q has invalid readiness selector", s.ID), err)
			}
		}
		if s.Variant == nil {
			s.Variant = crawler.VariantFor(s.ID)
		}

		r.sources[s.ID] = s
		r.order = append(r.order, s.ID)
		hosts = append(hosts, u.Hostname())
	}

	r.resolver = urlutil.NewResolver(hosts...)
	return r, nil
}

// Lookup returns the source registered under id
func (r *Registry) Lookup(id string) (Source, error) {
	s, ok := r.sources[id]
	if !ok {
		return Source{}, errors.NewUnknownSource(id)
	}
	return s, nil
}

// Filter keeps the known ids in request order, dropping unknown and repeated
// ones.
func (r *Registry) Filter(ids []string) []string {
	known := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := r.sources[id]; !ok || seen[id] {
			continue
		}
		seen[id] = true
		known = append(known, id)
	}
	return known
}

// IDs returns every registered id in registration order
func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}

// Resolver returns the resolver whose allowlist holds the source hosts
func (r *Registry) Resolver() *urlutil.Resolver {
	return r.resolver
}

// validateSelector compiles a selector group the same way goquery will.
func validateSelector(sel string) error {
	if sel == "" {
		return fmt.Errorf("empty selector")
	}
	_, err := cascadia.ParseGroup(sel)
	return err
}
