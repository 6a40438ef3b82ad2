package renderer

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"sjsage522/dealaggregator/logger"
	"sjsage522/dealaggregator/pkg/errors"
)

// BrowserConfig controls the Chromium process
type BrowserConfig struct {
	Bin            string
	Headless       bool
	NoSandbox      bool
	Stealth        bool
	UserAgent      string
	AcceptLanguage string
}

// RodRenderer renders pages in a shared headless Chromium. Every Render call
// gets its own tab which is closed before Render returns.
type RodRenderer struct {
	cfg      BrowserConfig
	launcher *launcher.Launcher
	browser  *rod.Browser
	mu       sync.RWMutex
}

// NewRodRenderer creates a renderer. Call Start before the first Render.
func NewRodRenderer(cfg BrowserConfig) *RodRenderer {
	return &RodRenderer{cfg: cfg}
}

// Start launches Chromium and connects to it
func (r *RodRenderer) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return nil
	}

	l := launcher.New().
		Headless(r.cfg.Headless).
		NoSandbox(r.cfg.NoSandbox)
	if r.cfg.Bin != "" {
		l = l.Bin(r.cfg.Bin)
	}
	l.Set(flags.Flag("disable-setuid-sandbox"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return errors.NewBrowser("failed to launch browser", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return errors.NewBrowser("failed to connect to browser", err)
	}

	r.launcher = l
	r.browser = browser
	logger.ForRenderer().Info().
		Str("control_url", controlURL).
		Bool("headless", r.cfg.Headless).
		Msg("Chromium launched")
	return nil
}

// Close stops the browser process
func (r *RodRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	r.launcher.Cleanup()
	r.browser = nil
	r.launcher = nil
	logger.ForRenderer().Info().Msg("Chromium shut down")
	return err
}

// Render opens a tab, navigates to url and returns the page HTML once the
// readiness policy is satisfied.
func (r *RodRenderer) Render(ctx context.Context, url string, policy ReadinessPolicy) (string, error) {
	r.mu.RLock()
	browser := r.browser
	r.mu.RUnlock()
	if browser == nil {
		return "", fmt.Errorf("renderer not started")
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("open tab: %w", err)
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			logger.ForRenderer().Warn().Err(closeErr).Str("url", url).Msg("Failed to close tab")
		}
	}()

	p := page.Context(ctx)

	if err := p.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      r.cfg.UserAgent,
		AcceptLanguage: r.cfg.AcceptLanguage,
	}); err != nil {
		return "", fmt.Errorf("set user agent: %w", err)
	}
	if headers, ok := extraHeaders(r.cfg); ok {
		if err := headers.Call(p); err != nil {
			logger.ForRenderer().Warn().Err(err).Str("url", url).Msg("Extra headers rejected, relying on the user agent override")
		}
	}
	if r.cfg.Stealth {
		if _, err := p.EvalOnNewDocument(stealth.JS); err != nil {
			logger.ForRenderer().Warn().Err(err).Msg("Stealth injection failed, proceeding without it")
		}
	}

	if err := r.navigate(p, url, policy); err != nil {
		return "", err
	}

	if policy.Selector != "" && policy.SelectorTimeout > 0 {
		waiter := p.Timeout(policy.SelectorTimeout)
		if _, err := waiter.Element(policy.Selector); err != nil {
			logger.ForRenderer().Debug().
				Str("url", url).
				Str("selector", policy.Selector).
				Msg("Selector did not appear, reading page anyway")
		}
		waiter.CancelTimeout()
	}

	if err := sleep(ctx, policy.Settle); err != nil {
		return "", err
	}

	html, err := p.HTML()
	if err != nil {
		return "", fmt.Errorf("read html: %w", err)
	}
	return html, nil
}

func (r *RodRenderer) navigate(p *rod.Page, url string, policy ReadinessPolicy) error {
	nav := p
	if policy.NavigationTimeout > 0 {
		nav = p.Timeout(policy.NavigationTimeout)
		defer nav.CancelTimeout()
	}

	event := proto.PageLifecycleEventNameDOMContentLoaded
	if policy.WaitUntil == WaitNetworkIdle {
		event = proto.PageLifecycleEventNameNetworkIdle
	}

	wait := nav.WaitNavigation(event)
	if err := nav.Navigate(url); err != nil {
		return fmt.Errorf("navigate: %w", err)
	}
	wait()

	if err := nav.GetContext().Err(); err != nil {
		return fmt.Errorf("waiting for %s: %w", policy.WaitUntil, err)
	}
	return nil
}

// extraHeaders sends Accept-Language as a plain header on every request of
// the tab.
func extraHeaders(cfg BrowserConfig) (proto.NetworkSetExtraHTTPHeaders, bool) {
	if cfg.AcceptLanguage == "" {
		return proto.NetworkSetExtraHTTPHeaders{}, false
	}
	return proto.NetworkSetExtraHTTPHeaders{
		Headers: proto.NetworkHeaders{"Accept-Language": gson.New(cfg.AcceptLanguage)},
	}, true
}
