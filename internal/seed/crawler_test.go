package seed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mednerd/internal/research"
	"mednerd/internal/store"
	"mednerd/internal/types"
)

const indexPage = `<html><body>
<nav><a href="/conditions/not-in-main/">Ignored</a></nav>
<main>
  <ul>
    <li><a href="/conditions/">All conditions</a></li>
    <li><a href="/conditions/acne/">Acne</a></li>
    <li><a href="/conditions/acne/">Acne</a></li>
    <li><a href="/conditions/asthma/">Asthma</a></li>
    <li><a href="/conditions/broken/">Broken page</a></li>
    <li><a href="/conditions/travel-advice/">Travel advice</a></li>
    <li><a href="bronchitis/">Bronchitis</a></li>
    <li><a href="/medicines/ibuprofen/">Ibuprofen</a></li>
    <li><a href="/conditions/bronchitis/">Bronchitis</a></li>
    <li><a href="/conditions/empty/"> </a></li>
  </ul>
</main></body></html>`

func conditionPage(para string) string {
	return `<html><body><main><section class="nhsuk-section">
<p>Short.</p>
<p>` + para + `</p>
<p>A second paragraph that is also long enough to count but is never used.</p>
</section></main></body></html>`
}

type indexStub struct {
	mu       sync.Mutex
	pages    map[string]string
	requests []string
}

func (s *indexStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, r.URL.Path)
	body, ok := s.pages[r.URL.Path]
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write([]byte(body))
}

func (s *indexStub) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func newStub(t *testing.T) (*indexStub, *httptest.Server) {
	t.Helper()
	stub := &indexStub{pages: map[string]string{
		"/conditions/":            indexPage,
		"/conditions/acne/":       conditionPage("Acne is a common skin condition that causes spots and oily skin."),
		"/conditions/asthma/":     conditionPage("Asthma is a common lung condition that causes occasional breathing difficulties."),
		"/conditions/bronchitis/": conditionPage("Bronchitis is an infection of the main airways of the lungs, causing them to become irritated."),
	}}
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)
	return stub, srv
}

func newCrawler(srv *httptest.Server, target int) *Crawler {
	src := research.NewHTTPSource("Mozilla/5.0", 0)
	return NewCrawler(src, src, Options{
		IndexURL:    srv.URL + "/conditions/",
		TargetCount: target,
		PageTimeout: time.Second,
	})
}

func TestLinks(t *testing.T) {
	_, srv := newStub(t)

	links, err := newCrawler(srv, 10).Links(context.Background())
	require.NoError(t, err)

	var names []string
	for _, l := range links {
		names = append(names, l.Name)
	}
	assert.Equal(t, []string{"Acne", "Asthma", "Broken page", "Travel advice", "Bronchitis"}, names)
	assert.Equal(t, srv.URL+"/conditions/acne/", links[0].URL)
	assert.Equal(t, srv.URL+"/conditions/bronchitis/", links[4].URL)
}

func TestLinksIndexUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := newCrawler(srv, 10).Links(context.Background())
	assert.True(t, errors.Is(err, ErrIndexUnavailable))
}

func TestParsePage(t *testing.T) {
	entry, err := ParsePage([]byte(conditionPage("Asthma is a common lung condition that causes occasional breathing difficulties.")), "Asthma")
	require.NoError(t, err)

	assert.Equal(t, "Asthma", entry.Condition)
	assert.Equal(t, types.StageClinicalPresentation, entry.Stage)
	assert.Equal(t, "Asthma is a common lung condition that causes occasional breathing difficulties.", entry.Explanation)
	assert.Equal(t, []string{"asthma", "common", "condition", "causes", "occasional"}, entry.Keywords)
	assert.Equal(t, types.SeedTreatmentPlaceholder, entry.TreatmentGuidance)
	assert.Equal(t, types.SeedReferralPlaceholder, entry.Referral)
	assert.Equal(t, []string{"Consult Doctor"}, entry.Medications)
}

func TestParsePageTruncatesExplanation(t *testing.T) {
	long := strings.Repeat("word ", 100)
	entry, err := ParsePage([]byte(conditionPage(long)), "Long")
	require.NoError(t, err)

	assert.Equal(t, 303, len([]rune(entry.Explanation)))
	assert.True(t, strings.HasSuffix(entry.Explanation, "..."))
}

func TestParsePageWithoutParagraph(t *testing.T) {
	entry, err := ParsePage([]byte(`<main><p>tiny</p></main>`), "Gout")
	require.NoError(t, err)
	assert.Equal(t, types.LiveExplanationPlaceholder, entry.Explanation)
	assert.Equal(t, []string{"gout"}, entry.Keywords)
}

func TestParsePageWithoutMain(t *testing.T) {
	_, err := ParsePage([]byte(`<html><body><p>No main here at all, just a long enough paragraph.</p></body></html>`), "X")
	assert.Error(t, err)
}

func TestRunSkipsAdviceAndFailures(t *testing.T) {
	stub, srv := newStub(t)

	entries, err := newCrawler(srv, 10).Run(context.Background())
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Condition)
	}
	assert.Equal(t, []string{"Acne", "Asthma", "Bronchitis"}, names)
	for _, path := range stub.Requests() {
		assert.NotContains(t, path, "advice")
	}
}

func TestRunStopsAtTarget(t *testing.T) {
	_, srv := newStub(t)

	entries, err := newCrawler(srv, 2).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRunHonoursCancellation(t *testing.T) {
	_, srv := newStub(t)
	src := research.NewHTTPSource("Mozilla/5.0", 0)
	c := NewCrawler(src, src, Options{IndexURL: srv.URL + "/conditions/", RatePerSecond: 0.001})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	entries, err := c.Run(ctx)
	require.Error(t, err)
	// The first page passes the limiter immediately; the second must wait.
	assert.Len(t, entries, 1)
}

func TestBuildWritesKnowledgeBase(t *testing.T) {
	_, srv := newStub(t)
	path := filepath.Join(t.TempDir(), "kb.json")
	persister := store.NewJSONFile(path)

	n, err := Build(context.Background(), newCrawler(srv, 10), persister)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	kb := store.Open(context.Background(), persister)
	assert.Equal(t, 3, kb.Len())
	found, ok := kb.Find("asthma")
	require.True(t, ok)
	assert.Equal(t, types.StageClinicalPresentation, found.Stage)
}

func TestBuildFailsWithoutIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, fmt.Sprintf("down for %s", r.URL.Path), http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	path := filepath.Join(t.TempDir(), "kb.json")

	_, err := Build(context.Background(), newCrawler(srv, 10), store.NewJSONFile(path))
	assert.ErrorIs(t, err, ErrIndexUnavailable)
	assert.NoFileExists(t, path)
}
