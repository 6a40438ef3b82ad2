package renderer

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"sjsage522/dealaggregator/helpers"
)

// HTTPRenderer fetches pages without executing scripts. Readiness waits are
// meaningless without a browser and only the navigation timeout applies.
type HTTPRenderer struct {
	client  *http.Client
	headers helpers.BrowserHeaders
}

// NewHTTPRenderer creates a renderer backed by client, or a default client
// when nil.
func NewHTTPRenderer(client *http.Client, userAgent, acceptLanguage string) *HTTPRenderer {
	if client == nil {
		client = helpers.DefaultClient
	}
	return &HTTPRenderer{
		client: client,
		headers: helpers.BrowserHeaders{
			UserAgent:      userAgent,
			AcceptLanguage: acceptLanguage,
		},
	}
}

// Render performs a GET and returns the body decoded to UTF-8
func (r *HTTPRenderer) Render(ctx context.Context, url string, policy ReadinessPolicy) (string, error) {
	if policy.NavigationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, policy.NavigationTimeout)
		defer cancel()
	}

	body, err := helpers.FetchWithBrowserHeaders(ctx, r.client, url, r.headers)
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(data), nil
}
