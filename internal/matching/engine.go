// Package matching resolves free text to a knowledge base entry through three
// ordered local tiers (exact containment, keyword scoring, name similarity)
// followed by an optional live fallback.
package matching

import (
	"context"
	"strings"

	"mednerd/internal/logging"
	"mednerd/internal/types"
)

// Source provides the entries to match against.
type Source interface {
	Entries() []types.ConditionEntry
}

// Fallback retrieves an entry from outside the knowledge base.
type Fallback interface {
	Fetch(ctx context.Context, query string) (*types.ConditionEntry, error)
}

// MatchResult is the outcome of a resolution. Confidence is 1.0 for exact and
// live matches, the raw keyword hit count for keyword matches, 0.8 for
// similarity matches and 0 when nothing matched.
type MatchResult struct {
	Entry      *types.ConditionEntry
	Confidence float64
	Tier       Tier
	State      State
	Trace      []State
}

// Matched reports whether the result carries an entry.
func (r MatchResult) Matched() bool {
	return r.Entry != nil
}

func (r *MatchResult) advance(next State) {
	if !r.State.CanTransition(next) {
		logging.Get(logging.CategoryMatching).Error("illegal transition %s -> %s", r.State, next)
		return
	}
	r.State = next
	r.Trace = append(r.Trace, next)
}

// Engine runs the tiered match state machine.
type Engine struct {
	source   Source
	fallback Fallback
}

// NewEngine creates an engine. fallback may be nil, in which case every
// fallback attempt ends StillUnresolved.
func NewEngine(source Source, fallback Fallback) *Engine {
	return &Engine{source: source, fallback: fallback}
}

// Entries exposes the engine's current source snapshot.
func (e *Engine) Entries() []types.ConditionEntry {
	return e.source.Entries()
}

// MatchLocal runs only the local tiers.
func (e *Engine) MatchLocal(query string) MatchResult {
	q := strings.ToLower(query)
	entries := e.source.Entries()

	res := MatchResult{State: Unresolved, Trace: []State{Unresolved}}

	if entry := exactMatch(entries, q); entry != nil {
		res.Entry, res.Confidence, res.Tier = entry, 1.0, TierExact
		res.advance(Tier1Hit)
		return res
	}

	if entry, hits := keywordMatch(entries, q); entry != nil {
		res.Entry, res.Confidence, res.Tier = entry, float64(hits), TierKeyword
		res.advance(Tier2Hit)
		return res
	}

	if entry := similarityMatch(entries, q); entry != nil {
		res.Entry, res.Confidence, res.Tier = entry, 0.8, TierSimilarity
		res.advance(Tier3Hit)
		return res
	}

	res.advance(NoHit)
	return res
}

// Resolve runs the local tiers and, unless the exact tier matched, the live
// fallback. A fallback hit supersedes any local result.
func (e *Engine) Resolve(ctx context.Context, query string) MatchResult {
	res := e.MatchLocal(query)
	logging.MatchingDebug("local match for %q: state=%s tier=%s confidence=%v", query, res.State, res.Tier, res.Confidence)

	if !res.State.NeedsFallback() {
		return res
	}

	res.advance(FallbackAttempted)
	if e.fallback == nil {
		res.advance(StillUnresolved)
		return res
	}

	entry, err := e.fallback.Fetch(ctx, query)
	if err != nil || entry == nil {
		logging.MatchingDebug("live fallback for %q found nothing: %v", query, err)
		res.advance(StillUnresolved)
		return res
	}

	res.Entry, res.Confidence, res.Tier = entry, 1.0, TierLive
	res.advance(Resolved)
	logging.Matching("resolved %q via live fallback as %q", query, entry.Condition)
	return res
}

// ScanDocument scans text against the engine's source.
func (e *Engine) ScanDocument(text string) *types.ConditionEntry {
	return ScanDocument(e.source.Entries(), text)
}

// exactMatch returns the first entry whose name is contained in q.
func exactMatch(entries []types.ConditionEntry, q string) *types.ConditionEntry {
	for i := range entries {
		name := strings.ToLower(entries[i].Condition)
		if name != "" && strings.Contains(q, name) {
			return entries[i].Clone()
		}
	}
	return nil
}

// keywordMatch returns the earliest entry with the most keywords contained in q.
func keywordMatch(entries []types.ConditionEntry, q string) (*types.ConditionEntry, int) {
	best := -1
	bestHits := 0
	for i := range entries {
		hits := 0
		for _, kw := range entries[i].Keywords {
			kw = strings.ToLower(kw)
			if strings.TrimSpace(kw) != "" && strings.Contains(q, kw) {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = i, hits
		}
	}
	if best < 0 {
		return nil, 0
	}
	return entries[best].Clone(), bestHits
}

// similarityMatch returns the entry whose name is closest to q.
func similarityMatch(entries []types.ConditionEntry, q string) *types.ConditionEntry {
	names := make([]string, 0, len(entries))
	for i := range entries {
		names = append(names, entries[i].Condition)
	}
	name, ratio, ok := closestName(q, names, SimilarityCutoff)
	if !ok {
		return nil
	}
	for i := range entries {
		if entries[i].Condition == name {
			logging.MatchingDebug("similarity match %q for %q (ratio %.3f)", name, q, ratio)
			return entries[i].Clone()
		}
	}
	return nil
}
