// Package system provides the initialization and wiring logic for the Cortex.
// It connects the knowledge store, live fetcher, match engine and synthesizer
// so the CLI and the HTTP server share one assembly path.
package system

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"mednerd/internal/articulation"
	"mednerd/internal/config"
	"mednerd/internal/logging"
	"mednerd/internal/matching"
	"mednerd/internal/research"
	"mednerd/internal/store"
)

// Cortex represents a fully initialized system instance.
type Cortex struct {
	Store       *store.KnowledgeStore
	Engine      *matching.Engine
	Synthesizer *articulation.Synthesizer

	fallback       matching.Fallback
	requestTimeout time.Duration
}

// New assembles a Cortex from already built parts. fallback may be nil.
func New(kb *store.KnowledgeStore, fallback matching.Fallback, synth *articulation.Synthesizer, requestTimeout time.Duration) *Cortex {
	if synth == nil {
		synth = articulation.NewSynthesizer(nil)
	}
	return &Cortex{
		Store:          kb,
		Engine:         matching.NewEngine(kb, fallback),
		Synthesizer:    synth,
		fallback:       fallback,
		requestTimeout: requestTimeout,
	}
}

// BootCortex loads the knowledge base and wires every component from cfg.
func BootCortex(ctx context.Context, cfg *config.Config) (*Cortex, error) {
	timer := logging.StartTimer(logging.CategoryBoot, "BootCortex")
	defer timer.Stop()

	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// 1. Knowledge store
	persister, err := store.OpenPersister(cfg.Knowledge.Backend, cfg.Knowledge.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge base: %w", err)
	}
	kb := store.Open(ctx, persister)

	// 2. Live fallback
	var fallback matching.Fallback
	if cfg.Fetch.Enabled {
		fallback = research.NewFetcher(newPageSource(cfg), kb, research.Options{
			BaseURL:          cfg.Fetch.BaseURL,
			CandidateTimeout: cfg.GetCandidateTimeout(),
			MaxConcurrent:    cfg.Fetch.MaxConcurrent,
			Variants:         variants(cfg.Fetch.SpellingVariants),
		})
	} else {
		logging.Boot("Live fallback disabled")
	}

	// 3. Engine and synthesizer
	c := New(kb, fallback, articulation.NewSynthesizer(nil), cfg.GetRequestTimeout())

	logging.Boot("Cortex ready: %d conditions, backend=%s, fetch=%v (%s)",
		kb.Len(), cfg.Knowledge.Backend, cfg.Fetch.Enabled, cfg.Fetch.Source)
	return c, nil
}

func newPageSource(cfg *config.Config) research.PageSource {
	if cfg.Fetch.Source == "browser" {
		return research.NewBrowserSource(cfg.Fetch.Browser.Bin, cfg.Fetch.Browser.Headless, cfg.Fetch.UserAgent)
	}
	return research.NewHTTPSource(cfg.Fetch.UserAgent, cfg.Fetch.MaxBodyBytes)
}

func variants(in []config.SpellingVariant) []research.Variant {
	if in == nil {
		return nil
	}
	out := make([]research.Variant, 0, len(in))
	for _, v := range in {
		out = append(out, research.Variant{From: v.From, To: v.To})
	}
	return out
}

// Close flushes the knowledge base and releases the fetcher.
func (c *Cortex) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}

	var errs []error
	if closer, ok := c.fallback.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Store != nil {
		if err := c.Store.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Conditions returns the known condition names in knowledge base order.
func (c *Cortex) Conditions() []string {
	entries := c.Store.Entries()
	names := make([]string, len(entries))
	for i := range entries {
		names[i] = entries[i].Condition
	}
	return names
}
