package research

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"mednerd/internal/logging"
	"mednerd/internal/store"
	"mednerd/internal/types"
)

// ErrNoLiveResult is returned when every candidate URL missed.
var ErrNoLiveResult = errors.New("no live result")

// DefaultBaseURL is the NHS conditions index.
const DefaultBaseURL = "https://www.nhs.uk/conditions/"

var whitespaceRun = regexp.MustCompile(`\s+`)

// Variant is a spelling substitution tried as an additional candidate.
type Variant struct {
	From string
	To   string
}

// DefaultVariants maps US spellings to the UK spellings used by NHS slugs.
var DefaultVariants = []Variant{
	{From: "tumor", To: "tumour"},
	{From: "edema", To: "oedema"},
	{From: "anemia", To: "anaemia"},
}

// Learner records newly fetched entries.
type Learner interface {
	Learn(ctx context.Context, entry types.ConditionEntry) (bool, error)
}

// Options configures a Fetcher.
type Options struct {
	BaseURL          string
	CandidateTimeout time.Duration
	MaxConcurrent    int64
	Variants         []Variant
}

// Fetcher resolves queries against live condition pages.
type Fetcher struct {
	source  PageSource
	learner Learner
	opts    Options
	group   singleflight.Group
	sem     *semaphore.Weighted
}

// NewFetcher creates a fetcher. learner may be nil to fetch without learning.
func NewFetcher(source PageSource, learner Learner, opts Options) *Fetcher {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(opts.BaseURL, "/") {
		opts.BaseURL += "/"
	}
	if opts.CandidateTimeout <= 0 {
		opts.CandidateTimeout = 3 * time.Second
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 8
	}
	if opts.Variants == nil {
		opts.Variants = DefaultVariants
	}
	return &Fetcher{
		source:  source,
		learner: learner,
		opts:    opts,
		sem:     semaphore.NewWeighted(opts.MaxConcurrent),
	}
}

// Slug normalizes a query into a URL path token.
func Slug(query string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(strings.ToLower(query)), "-")
}

// Candidates returns the URLs tried for query, in order.
func (f *Fetcher) Candidates(query string) []string {
	slug := Slug(query)
	if slug == "" {
		return nil
	}

	slugs := []string{slug}
	for _, v := range f.opts.Variants {
		if v.From == "" || !strings.Contains(slug, v.From) || strings.Contains(slug, v.To) {
			continue
		}
		alt := strings.ReplaceAll(slug, v.From, v.To)
		if !slices.Contains(slugs, alt) {
			slugs = append(slugs, alt)
		}
	}

	urls := make([]string, len(slugs))
	for i, s := range slugs {
		urls[i] = f.opts.BaseURL + url.PathEscape(s) + "/"
	}
	return urls
}

// Fetch returns a live entry for query, learning it when the name is new.
// Identical in-flight queries share one fetch, which keeps running for its
// other waiters if this caller's ctx ends; its duration is bounded by the
// per-candidate timeout.
func (f *Fetcher) Fetch(ctx context.Context, query string) (*types.ConditionEntry, error) {
	slug := Slug(query)
	if slug == "" {
		return nil, ErrNoLiveResult
	}

	ch := f.group.DoChan(slug, func() (interface{}, error) {
		return f.fetch(context.WithoutCancel(ctx), query)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrNoLiveResult, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			logging.ResearchDebug("Shared in-flight fetch for %q", slug)
		}
		return res.Val.(*types.ConditionEntry).Clone(), nil
	}
}

// Close releases the page source.
func (f *Fetcher) Close() error {
	return f.source.Close()
}

func (f *Fetcher) fetch(ctx context.Context, query string) (*types.ConditionEntry, error) {
	start := time.Now()
	query = strings.ToLower(query)
	logging.ResearchDebug("Attempting live fetch for %q", query)

	for _, candidate := range f.Candidates(query) {
		entry, err := f.tryCandidate(ctx, candidate, query)
		if err != nil {
			logging.ResearchDebug("Candidate %s missed: %v", candidate, err)
			continue
		}

		logging.Research("Live fetch hit %s -> %q", candidate, entry.Condition)
		f.learn(ctx, entry)
		RecordFetch(true, time.Since(start).Seconds())
		return entry, nil
	}

	RecordFetch(false, time.Since(start).Seconds())
	logging.Research("Live fetch for %q exhausted all candidates", query)
	return nil, ErrNoLiveResult
}

func (f *Fetcher) tryCandidate(ctx context.Context, candidate, query string) (*types.ConditionEntry, error) {
	if err := f.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer f.sem.Release(1)

	cctx, cancel := context.WithTimeout(ctx, f.opts.CandidateTimeout)
	defer cancel()

	page, err := f.source.Get(cctx, candidate)
	if err != nil {
		RecordCandidate("transport")
		return nil, err
	}
	if page.Status != http.StatusOK {
		RecordCandidate("status")
		return nil, fmt.Errorf("HTTP %d", page.Status)
	}

	entry, err := ParseConditionPage(page.Body, query)
	if err != nil {
		RecordCandidate("parse")
		return nil, err
	}
	RecordCandidate("hit")
	return entry, nil
}

func (f *Fetcher) learn(ctx context.Context, entry *types.ConditionEntry) {
	if f.learner == nil {
		return
	}
	learned, err := f.learner.Learn(ctx, *entry)
	switch {
	case errors.Is(err, store.ErrDuplicate):
		RecordLearn("known")
		logging.ResearchDebug("Condition %q already known, returning fresh copy", entry.Condition)
	case err != nil && !learned:
		RecordLearn("failed")
		logging.ResearchWarn("Could not learn %q: %v", entry.Condition, err)
	case err != nil:
		RecordLearn("learned")
		logging.ResearchWarn("Learned %q but could not persist: %v", entry.Condition, err)
	default:
		RecordLearn("learned")
	}
}
