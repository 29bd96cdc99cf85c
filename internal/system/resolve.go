package system

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"mednerd/internal/articulation"
	"mednerd/internal/logging"
	"mednerd/internal/matching"
	"mednerd/internal/types"
)

// secondaryBloodQuery is tried for report filenames mentioning blood when
// nothing else matched.
const secondaryBloodQuery = "anemia"

type requestIDKey struct{}

// WithRequestID attaches a request ID to ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request ID carried by ctx, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// ResolveByQuery answers a free-text symptom description.
func (c *Cortex) ResolveByQuery(ctx context.Context, text string) types.AnalysisResponse {
	ctx, done := c.begin(ctx, "query", text)
	res := c.Engine.Resolve(ctx, text)
	return done(text, res.Entry, res.Tier.String())
}

// ResolveByDocument answers an uploaded report. The document text is scanned
// first; the filename stem and then, for blood reports, a secondary query are
// used when the text names no known condition.
func (c *Cortex) ResolveByDocument(ctx context.Context, filename, text string) types.AnalysisResponse {
	stem := Stem(filename)
	ctx, done := c.begin(ctx, "document", filename)

	if entry := c.Engine.ScanDocument(text); entry != nil {
		return done(entry.Condition, entry, "document")
	}

	res := c.Engine.Resolve(ctx, stem)
	if !res.Matched() && strings.Contains(stem, "blood") {
		logging.MatchingDebug("No match for %q, trying %q", stem, secondaryBloodQuery)
		res = c.Engine.Resolve(ctx, secondaryBloodQuery)
	}
	return done(stem, res.Entry, res.Tier.String())
}

// ResolveByFilename answers an upload using only its filename stem.
func (c *Cortex) ResolveByFilename(ctx context.Context, filename string) types.AnalysisResponse {
	stem := Stem(filename)
	ctx, done := c.begin(ctx, "filename", filename)
	res := c.Engine.Resolve(ctx, stem)
	return done(stem, res.Entry, res.Tier.String())
}

// Stem lower-cases a filename and strips its directory and extension.
func Stem(filename string) string {
	name := strings.ToLower(filepath.Base(strings.ReplaceAll(filename, "\\", "/")))
	if name == "." || name == "/" {
		return ""
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

type finishFunc func(query string, entry *types.ConditionEntry, tier string) types.AnalysisResponse

// begin applies the request timeout and tags the request. The returned finish
// func renders the response, records metrics and releases the timeout.
func (c *Cortex) begin(ctx context.Context, op, input string) (context.Context, finishFunc) {
	id := RequestID(ctx)
	if id == "" {
		id = uuid.NewString()
		ctx = WithRequestID(ctx, id)
	}

	cancel := func() {}
	if c.requestTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
	}

	log := logging.Get(logging.CategoryMatching).With("request_id", id, "op", op)
	log.Debug("resolving %q", input)
	start := time.Now()

	return ctx, func(query string, entry *types.ConditionEntry, tier string) types.AnalysisResponse {
		defer cancel()

		var resp types.AnalysisResponse
		if entry == nil {
			tier = matching.TierNone.String()
			resp = articulation.Unknown()
		} else {
			resp = c.Synthesizer.Synthesize(query, entry)
		}

		RecordResolution(op, tier, time.Since(start).Seconds())
		log.Info("resolved %q as %q via %s in %v", input, resp.ProbableCondition, tier, time.Since(start))
		return resp
	}
}
