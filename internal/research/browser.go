package research

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"mednerd/internal/logging"
)

// BrowserSource renders pages in headless Chromium. It is slower than
// HTTPSource but sees content inserted by scripts.
type BrowserSource struct {
	bin       string
	headless  bool
	userAgent string

	mu      sync.Mutex
	browser *rod.Browser
}

// NewBrowserSource creates a browser source. The browser is launched lazily on
// the first Get. An empty bin lets rod locate or download Chromium.
func NewBrowserSource(bin string, headless bool, userAgent string) *BrowserSource {
	return &BrowserSource{bin: bin, headless: headless, userAgent: userAgent}
}

func (s *BrowserSource) ensureStarted() (*rod.Browser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browser != nil {
		if _, err := s.browser.Version(); err == nil {
			return s.browser, nil
		}
		logging.ResearchWarn("Stale browser connection detected, relaunching")
		_ = s.browser.Close()
		s.browser = nil
	}

	l := launcher.New().Headless(s.headless)
	if s.bin != "" {
		l = l.Bin(s.bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	logging.Research("Headless browser started for live fetches")
	s.browser = browser
	return browser, nil
}

// Get navigates a fresh page to url and returns the rendered HTML together
// with the status of the main document response.
func (s *BrowserSource) Get(ctx context.Context, url string) (*Page, error) {
	browser, err := s.ensureStarted()
	if err != nil {
		return nil, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	defer page.Close()
	page = page.Context(ctx)

	if s.userAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: s.userAgent}); err != nil {
			return nil, fmt.Errorf("set user agent: %w", err)
		}
	}

	status := 0
	waitDocument := page.EachEvent(func(ev *proto.NetworkResponseReceived) bool {
		if ev.Type != proto.NetworkResourceTypeDocument || ev.Response == nil {
			return false
		}
		status = ev.Response.Status
		return true
	})

	if err := page.Navigate(url); err != nil {
		return nil, fmt.Errorf("navigate: %w", err)
	}
	waitDocument()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("read html: %w", err)
	}
	return &Page{URL: url, Status: status, Body: []byte(html)}, nil
}

// Close shuts the browser down if it was started.
func (s *BrowserSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.browser == nil {
		return nil
	}
	err := s.browser.Close()
	s.browser = nil
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
