package research

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Page is a fetched document.
type Page struct {
	URL    string
	Status int
	Body   []byte
}

// PageSource retrieves pages for the fetcher.
type PageSource interface {
	Get(ctx context.Context, url string) (*Page, error)
	Close() error
}

// HTTPSource fetches pages with a plain HTTP GET.
type HTTPSource struct {
	client       *http.Client
	userAgent    string
	maxBodyBytes int64
}

// NewHTTPSource creates an HTTP page source with its own transport.
func NewHTTPSource(userAgent string, maxBodyBytes int64) *HTTPSource {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 2 << 20 // 2MB
	}
	return &HTTPSource{
		client:       &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()},
		userAgent:    userAgent,
		maxBodyBytes: maxBodyBytes,
	}
}

// Get issues the request. Non-200 responses are returned with their status
// and an empty body; only transport failures are errors.
func (s *HTTPSource) Get(ctx context.Context, url string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	page := &Page{URL: url, Status: resp.StatusCode}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return page, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	page.Body = body
	return page, nil
}

// Close drops idle keep-alive connections.
func (s *HTTPSource) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
