// Package renderer returns the rendered markup of a source page.
package renderer

import (
	"context"
	"time"
)

// WaitUntil names the page lifecycle event navigation waits for
type WaitUntil string

const (
	// WaitDOMContentLoaded returns once the initial document is parsed
	WaitDOMContentLoaded WaitUntil = "domcontentloaded"
	// WaitNetworkIdle returns once the page stops issuing requests, which
	// client-side rendered pages need
	WaitNetworkIdle WaitUntil = "networkidle"
)

// ReadinessPolicy tells a renderer when a page is ready to be read.
type ReadinessPolicy struct {
	WaitUntil WaitUntil

	// Selector is waited for on a best-effort basis. Missing it is not an
	// error.
	Selector        string
	SelectorTimeout time.Duration

	// Settle is a fixed delay after the selector wait
	Settle time.Duration

	NavigationTimeout time.Duration
}

// PageRenderer renders a URL to HTML. Implementations must be safe for
// concurrent use and must release every per-call resource before returning.
type PageRenderer interface {
	Render(ctx context.Context, url string, policy ReadinessPolicy) (string, error)
}

// RenderFunc adapts a function to PageRenderer
type RenderFunc func(ctx context.Context, url string, policy ReadinessPolicy) (string, error)

// Render calls f
func (f RenderFunc) Render(ctx context.Context, url string, policy ReadinessPolicy) (string, error) {
	return f(ctx, url, policy)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
