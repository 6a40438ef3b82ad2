package renderer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPRendererRender(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "deals-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<div class="col_item"><h3>Kettle</h3></div>`))
	}))
	defer server.Close()

	r := NewHTTPRenderer(server.Client(), "deals-test", "he-IL")
	html, err := r.Render(context.Background(), server.URL, ReadinessPolicy{
		WaitUntil:         WaitNetworkIdle,
		Selector:          ".col_item",
		SelectorTimeout:   time.Second,
		Settle:            time.Hour,
		NavigationTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	assert.Contains(t, html, "Kettle")
}

func TestHTTPRendererNavigationTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	r := NewHTTPRenderer(nil, "deals-test", "he-IL")
	_, err := r.Render(context.Background(), server.URL, ReadinessPolicy{NavigationTimeout: 50 * time.Millisecond})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRenderFunc(t *testing.T) {
	var got ReadinessPolicy
	var r PageRenderer = RenderFunc(func(_ context.Context, url string, policy ReadinessPolicy) (string, error) {
		got = policy
		return "<html>" + url + "</html>", nil
	})

	html, err := r.Render(context.Background(), "https://zuzu.deals/", ReadinessPolicy{Selector: ".col_item"})
	require.NoError(t, err)
	assert.Equal(t, "<html>https://zuzu.deals/</html>", html)
	assert.Equal(t, ".col_item", got.Selector)
}

func TestSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := sleep(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)

	assert.NoError(t, sleep(context.Background(), 0))
}

func TestRodRendererRequiresStart(t *testing.T) {
	r := NewRodRenderer(BrowserConfig{})
	_, err := r.Render(context.Background(), "https://zuzu.deals/", ReadinessPolicy{})
	assert.ErrorContains(t, err, "not started")
	assert.NoError(t, r.Close())
}
