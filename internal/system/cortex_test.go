package system

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mednerd/internal/articulation"
	"mednerd/internal/config"
	"mednerd/internal/research"
	"mednerd/internal/store"
	"mednerd/internal/types"
)

const sinusitisPage = `<html><body><main>
<h1>Sinusitis (sinus infection)</h1>
<section class="nhsuk-section">
<p>Sinusitis is swelling of the sinuses, usually caused by an infection.</p>
</section></main></body></html>`

// nhsServer serves the given pages and 404s everything else.
func nhsServer(t *testing.T, pages map[string]string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func bootTestCortex(t *testing.T, entries []types.ConditionEntry, baseURL string) (*Cortex, string) {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "medical_data.json")
	if entries != nil {
		require.NoError(t, store.NewJSONFile(path).Save(ctx, entries))
	}

	cfg := config.DefaultConfig()
	cfg.Knowledge.Path = path
	cfg.Fetch.BaseURL = baseURL + "/conditions/"
	cfg.Fetch.CandidateTimeout = "2s"

	c, err := BootCortex(ctx, cfg)
	require.NoError(t, err)
	c.Synthesizer = articulation.NewSynthesizer(articulation.Fixed(0))
	t.Cleanup(func() { _ = c.Close(ctx) })
	return c, path
}

func knowledgeBase() []types.ConditionEntry {
	eczema := types.ConditionEntry{
		Condition:   "Eczema",
		Keywords:    []string{"itch", "red"},
		Explanation: "Skin becomes itchy.",
	}
	types.SeedPlaceholders(&eczema)
	diabetes := types.ConditionEntry{Condition: "Diabetes", Explanation: "High blood sugar."}
	types.SeedPlaceholders(&diabetes)
	t2 := types.ConditionEntry{Condition: "Type 2 Diabetes", Explanation: "Insulin resistance."}
	types.SeedPlaceholders(&t2)
	anaemia := types.ConditionEntry{Condition: "Anaemia", Keywords: []string{"anemia", "tired"}, Explanation: "Low haemoglobin."}
	types.SeedPlaceholders(&anaemia)
	return []types.ConditionEntry{eczema, diabetes, t2, anaemia}
}

func TestResolveByQuery_EmptyKnowledgeBaseAndFailedFetchIsUnknown(t *testing.T) {
	srv, hits := nhsServer(t, nil)
	c, _ := bootTestCortex(t, nil, srv.URL)

	got := c.ResolveByQuery(context.Background(), "mystery illness")

	assert.Equal(t, articulation.Unknown(), got)
	assert.Equal(t, int32(1), hits.Load())
}

func TestResolveByQuery_ExactNameSkipsFetch(t *testing.T) {
	srv, hits := nhsServer(t, nil)
	c, _ := bootTestCortex(t, knowledgeBase(), srv.URL)

	got := c.ResolveByQuery(context.Background(), "eczema")

	assert.Equal(t, "Eczema", got.ProbableCondition)
	assert.Equal(t, "Based on the clinical presentation of 'eczema', the symptoms align closely with Eczema. Skin becomes itchy.", got.DetailedExplanation)
	assert.Equal(t, int32(0), hits.Load())
}

func TestResolveByQuery_LearnsLiveResult(t *testing.T) {
	srv, _ := nhsServer(t, map[string]string{"/conditions/sinusitis/": sinusitisPage})
	c, path := bootTestCortex(t, knowledgeBase(), srv.URL)

	got := c.ResolveByQuery(context.Background(), "Sinusitis")

	assert.Equal(t, "Sinusitis (sinus infection)", got.ProbableCondition)
	assert.Equal(t, "LIVE WEB RESULT: Sinusitis is swelling of the sinuses, usually caused by an infection.", got.DetailedExplanation)
	assert.Equal(t, "Live Web Result", got.DiseaseStage)

	persisted, err := store.NewJSONFile(path).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, persisted, 5)

	// Asking again must not grow the knowledge base.
	c.ResolveByQuery(context.Background(), "sinusitis")
	assert.Equal(t, 5, c.Store.Len())
}

func TestResolveByQuery_KeywordHitSurvivesFailedFetch(t *testing.T) {
	srv, hits := nhsServer(t, nil)
	c, _ := bootTestCortex(t, knowledgeBase(), srv.URL)

	got := c.ResolveByQuery(context.Background(), "red itchy patch")

	assert.Equal(t, "Eczema", got.ProbableCondition)
	assert.Equal(t, "Low to Moderate Risk", got.RiskLevel)
	assert.Equal(t, int32(1), hits.Load(), "keyword hits still try the live fallback")
}

func TestResolveByDocument_ScannerPrefersLongerName(t *testing.T) {
	srv, hits := nhsServer(t, nil)
	c, _ := bootTestCortex(t, knowledgeBase(), srv.URL)

	got := c.ResolveByDocument(context.Background(), "report.pdf", "Assessment: Type 2 Diabetes, diet controlled.")

	assert.Equal(t, "Type 2 Diabetes", got.ProbableCondition)
	assert.Contains(t, got.DetailedExplanation, "'type 2 diabetes'")
	assert.Equal(t, int32(0), hits.Load())
}

func TestResolveByDocument_FallsBackToFilename(t *testing.T) {
	srv, _ := nhsServer(t, nil)
	c, _ := bootTestCortex(t, knowledgeBase(), srv.URL)

	got := c.ResolveByDocument(context.Background(), "uploads/Eczema_Followup.PDF", "")
	assert.Equal(t, "Eczema", got.ProbableCondition)
}

func TestResolveByDocument_BloodReportTriesAnemia(t *testing.T) {
	srv, _ := nhsServer(t, nil)
	c, _ := bootTestCortex(t, knowledgeBase(), srv.URL)

	got := c.ResolveByDocument(context.Background(), "blood_report.pdf", "unremarkable text")

	assert.Equal(t, "Anaemia", got.ProbableCondition)
	assert.Contains(t, got.DetailedExplanation, "'blood_report'")
	assert.Equal(t, "High Risk / Emergency", got.RiskLevel)
}

func TestResolveByDocument_NothingMatches(t *testing.T) {
	srv, _ := nhsServer(t, nil)
	c, _ := bootTestCortex(t, nil, srv.URL)

	got := c.ResolveByDocument(context.Background(), "scan.pdf", "nothing")
	assert.Equal(t, articulation.Unknown(), got)
}

func TestResolveByFilename(t *testing.T) {
	srv, hits := nhsServer(t, nil)
	c, _ := bootTestCortex(t, knowledgeBase(), srv.URL)

	got := c.ResolveByFilename(context.Background(), "ECZEMA.jpg")
	assert.Equal(t, "Eczema", got.ProbableCondition)
	assert.Equal(t, int32(0), hits.Load())
}

func TestResolve_RequestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	kb := store.New(store.NewJSONFile(filepath.Join(t.TempDir(), "kb.json")))
	fetcher := research.NewFetcher(research.NewHTTPSource("Mozilla/5.0", 0), kb, research.Options{
		BaseURL:          srv.URL + "/conditions/",
		CandidateTimeout: 5 * time.Second,
	})
	c := New(kb, fetcher, nil, 50*time.Millisecond)
	t.Cleanup(func() { _ = c.Close(context.Background()) })

	start := time.Now()
	got := c.ResolveByQuery(context.Background(), "anything")
	assert.Equal(t, articulation.Unknown(), got)
	assert.Less(t, time.Since(start), time.Second)
}

func TestBootCortex_FetchDisabled(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Knowledge.Path = filepath.Join(t.TempDir(), "kb.json")
	cfg.Fetch.Enabled = false

	c, err := BootCortex(context.Background(), cfg)
	require.NoError(t, err)
	defer c.Close(context.Background())

	assert.Equal(t, articulation.Unknown(), c.ResolveByQuery(context.Background(), "flu"))
}

func TestBootCortex_SQLiteBackend(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kb.db")
	p, err := store.OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, p.Save(ctx, knowledgeBase()))
	require.NoError(t, p.Close())

	cfg := config.DefaultConfig()
	cfg.Knowledge.Backend = "sqlite"
	cfg.Knowledge.Path = path
	cfg.Fetch.Enabled = false

	c, err := BootCortex(ctx, cfg)
	require.NoError(t, err)
	defer c.Close(ctx)

	assert.Equal(t, 4, c.Store.Len())
	assert.Equal(t, "Eczema", c.ResolveByQuery(ctx, "eczema flare").ProbableCondition)
}

func TestBootCortex_InvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Knowledge.Backend = "postgres"
	_, err := BootCortex(context.Background(), cfg)
	assert.Error(t, err)
}

func TestStem(t *testing.T) {
	tests := map[string]string{
		"Eczema.JPG":             "eczema",
		"blood_report.pdf":       "blood_report",
		`C:\scans\Psoriasis.png`: "psoriasis",
		"archive.tar.gz":         "archive.tar",
		"noext":                  "noext",
		"":                       "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Stem(in), "Stem(%q)", in)
	}
}

func TestRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "abc")
	assert.Equal(t, "abc", RequestID(ctx))
	assert.Equal(t, "", RequestID(context.Background()))
}
