// Package seed builds the initial knowledge base by crawling the NHS A-Z
// condition index. It runs offline; the runtime only reads what it writes.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"mednerd/internal/logging"
	"mednerd/internal/perception"
	"mednerd/internal/research"
	"mednerd/internal/store"
	"mednerd/internal/types"
)

const (
	minExplanationRunes = 40
	maxExplanationRunes = 300
	explanationKeywords = 5
	minKeywordRunes     = 5
)

// ErrIndexUnavailable is returned when the A-Z index cannot be read.
var ErrIndexUnavailable = errors.New("condition index unavailable")

var errNoMainContent = errors.New("page has no <main> element")

// Link is one condition entry in the A-Z index.
type Link struct {
	URL  string
	Name string
}

// Options tune a crawl.
type Options struct {
	IndexURL      string
	TargetCount   int
	RatePerSecond float64
	PageTimeout   time.Duration
}

// Crawler scrapes condition pages into seeded entries.
type Crawler struct {
	index   research.PageSource
	pages   research.PageSource
	opts    Options
	limiter *rate.Limiter
}

// NewCrawler creates a crawler. index fetches the A-Z listing and pages fetches
// the individual condition pages; they may be the same source.
func NewCrawler(index, pages research.PageSource, opts Options) *Crawler {
	if opts.TargetCount <= 0 {
		opts.TargetCount = 550
	}
	if opts.PageTimeout <= 0 {
		opts.PageTimeout = 5 * time.Second
	}
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	return &Crawler{
		index:   index,
		pages:   pages,
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Links returns the unique condition links in index order.
func (c *Crawler) Links(ctx context.Context) ([]Link, error) {
	logging.Seed("Fetching A-Z index from %s", c.opts.IndexURL)
	page, err := c.index.Get(ctx, c.opts.IndexURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
	}
	if page.Status != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrIndexUnavailable, page.Status)
	}

	base, err := url.Parse(c.opts.IndexURL)
	if err != nil {
		return nil, fmt.Errorf("invalid index url: %w", err)
	}
	doc, err := html.Parse(bytes.NewReader(page.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse index: %w", err)
	}

	root := perception.FindElement(doc, perception.Tag("main"))
	if root == nil {
		root = perception.FindElement(doc, func(n *html.Node) bool { return perception.HasClass(n, "nhsuk-a-to-z-list") })
	}
	if root == nil {
		root = doc
	}

	var links []Link
	seen := make(map[string]bool)
	perception.WalkElements(root, func(a *html.Node) bool {
		if a.Data != "a" {
			return true
		}
		href := perception.Attr(a, "href")
		if href == "" {
			return true
		}
		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		abs := base.ResolveReference(ref)
		if !strings.Contains(abs.Path, "/conditions/") || strings.TrimSuffix(abs.Path, "/") == "/conditions" {
			return true
		}
		name := strings.TrimSpace(perception.TextContent(a))
		if name == "" || seen[abs.String()] {
			return true
		}
		seen[abs.String()] = true
		links = append(links, Link{URL: abs.String(), Name: name})
		return true
	})

	logging.Seed("Found %d potential conditions in index", len(links))
	return links, nil
}

// Scrape turns one condition page into a seeded entry.
func (c *Crawler) Scrape(ctx context.Context, link Link) (*types.ConditionEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.PageTimeout)
	defer cancel()

	page, err := c.pages.Get(ctx, link.URL)
	if err != nil {
		return nil, err
	}
	if page.Status != http.StatusOK {
		return nil, fmt.Errorf("status %d", page.Status)
	}
	return ParsePage(page.Body, link.Name)
}

// ParsePage extracts a seeded entry named name from a condition page.
func ParsePage(body []byte, name string) (*types.ConditionEntry, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	main := perception.FindElement(doc, perception.Tag("main"))
	if main == nil {
		return nil, errNoMainContent
	}
	section := perception.FindElement(main, func(n *html.Node) bool {
		return n.Data == "section" && perception.HasClass(n, "nhsuk-section")
	})
	if section == nil {
		section = main
	}

	keywords := strings.Fields(strings.ToLower(name))
	explanation := types.LiveExplanationPlaceholder
	perception.WalkElements(section, func(p *html.Node) bool {
		if p.Data != "p" {
			return true
		}
		text := strings.TrimSpace(perception.TextContent(p))
		if utf8.RuneCountInString(text) <= minExplanationRunes {
			return true
		}
		explanation = text
		keywords = append(keywords, explanationWords(text)...)
		return false
	})

	entry := &types.ConditionEntry{
		Condition:   name,
		Keywords:    types.DedupeKeywords(keywords),
		Explanation: truncate(explanation, maxExplanationRunes),
	}
	types.SeedPlaceholders(entry)
	return entry, nil
}

// Run crawls until TargetCount entries are scraped or the index is exhausted.
// Pages that fail are skipped. Condition names are unique case-insensitively.
func (c *Crawler) Run(ctx context.Context) ([]types.ConditionEntry, error) {
	links, err := c.Links(ctx)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, fmt.Errorf("%w: no condition links found", ErrIndexUnavailable)
	}

	timer := logging.StartTimer(logging.CategorySeed, "crawl")
	defer timer.Stop()

	logging.Seed("Starting crawl, target %d", c.opts.TargetCount)
	entries := make([]types.ConditionEntry, 0, min(len(links), c.opts.TargetCount))
	names := make(map[string]bool)
	for _, link := range links {
		if len(entries) >= c.opts.TargetCount {
			break
		}
		if strings.Contains(link.URL, "advice") {
			continue
		}
		key := types.NameKey(link.Name)
		if names[key] {
			continue
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return entries, fmt.Errorf("crawl interrupted: %w", err)
		}

		entry, err := c.Scrape(ctx, link)
		if err != nil {
			if ctx.Err() != nil {
				return entries, fmt.Errorf("crawl interrupted: %w", ctx.Err())
			}
			logging.SeedDebug("Skipping %s: %v", link.URL, err)
			continue
		}
		names[key] = true
		entries = append(entries, *entry)
		if len(entries)%10 == 0 {
			logging.Seed("Scraped %d/%d: %s", len(entries), c.opts.TargetCount, link.Name)
		}
	}
	return entries, nil
}

// Build crawls and writes the result through persister, replacing its contents.
func Build(ctx context.Context, c *Crawler, persister store.Persister) (int, error) {
	entries, err := c.Run(ctx)
	if err != nil && len(entries) == 0 {
		return 0, err
	}
	if err != nil {
		logging.Get(logging.CategorySeed).Warn("Crawl stopped early, saving %d entries: %v", len(entries), err)
	}
	if saveErr := persister.Save(context.WithoutCancel(ctx), entries); saveErr != nil {
		return 0, fmt.Errorf("failed to save %s: %w", persister, saveErr)
	}
	logging.Seed("Built knowledge base with %d conditions at %s", len(entries), persister)
	return len(entries), err
}

func explanationWords(text string) []string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if utf8.RuneCountInString(w) < minKeywordRunes {
			continue
		}
		words = append(words, w)
		if len(words) == explanationKeywords {
			break
		}
	}
	return words
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
