// Package store holds the condition knowledge base: an ordered, append-only
// sequence of entries loaded once at boot and extended by live learning.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"mednerd/internal/logging"
	"mednerd/internal/types"
)

var (
	// ErrDuplicate is returned by Learn when an entry with the same name already exists.
	ErrDuplicate = errors.New("condition already known")
	// ErrInvalidEntry is returned by Learn for entries without a condition name.
	ErrInvalidEntry = errors.New("entry has no condition name")
)

// Persister reads and fully rewrites the backing storage of a KnowledgeStore.
type Persister interface {
	Load(ctx context.Context) ([]types.ConditionEntry, error)
	Save(ctx context.Context, entries []types.ConditionEntry) error
	Close() error
	String() string
}

// KnowledgeStore is the in-memory knowledge base shared by all requests.
// Readers work on snapshots; a single writer lock covers the dedup check,
// the append and the rewrite of storage.
type KnowledgeStore struct {
	mu        sync.RWMutex
	entries   []types.ConditionEntry
	index     map[string]int
	persister Persister
	dirty     bool
}

// New returns an empty store backed by p. Call Load to populate it.
func New(p Persister) *KnowledgeStore {
	return &KnowledgeStore{
		index:     make(map[string]int),
		persister: p,
	}
}

// Open creates a store and loads it from p.
func Open(ctx context.Context, p Persister) *KnowledgeStore {
	s := New(p)
	s.Load(ctx)
	return s
}

// Load replaces the in-memory sequence with the persisted one.
// Any read or parse failure is logged and yields an empty store.
func (s *KnowledgeStore) Load(ctx context.Context) []types.ConditionEntry {
	timer := logging.StartTimer(logging.CategoryStore, "Load")
	defer timer.Stop()

	loaded, err := s.persister.Load(ctx)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to load knowledge base from %s: %v", s.persister, err)
		loaded = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make([]types.ConditionEntry, 0, len(loaded))
	s.index = make(map[string]int, len(loaded))
	for _, e := range loaded {
		key := e.Key()
		if _, exists := s.index[key]; exists {
			logging.Get(logging.CategoryStore).Warn("Skipping duplicate condition %q in %s", e.Condition, s.persister)
			continue
		}
		s.index[key] = len(s.entries)
		s.entries = append(s.entries, e)
	}
	s.dirty = false

	logging.Store("Loaded %d conditions from %s", len(s.entries), s.persister)
	return s.entries[:len(s.entries):len(s.entries)]
}

// Learn appends entry when its name is new and rewrites storage.
// A duplicate name returns ErrDuplicate without writing. A persist failure is
// returned with learned=true: the entry stays in memory and is retried on Flush.
func (s *KnowledgeStore) Learn(ctx context.Context, entry types.ConditionEntry) (bool, error) {
	if strings.TrimSpace(entry.Condition) == "" {
		return false, ErrInvalidEntry
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := entry.Key()
	if _, exists := s.index[key]; exists {
		logging.StoreDebug("Condition %q already known, not learning", entry.Condition)
		return false, fmt.Errorf("%w: %s", ErrDuplicate, entry.Condition)
	}

	s.index[key] = len(s.entries)
	s.entries = append(s.entries, *entry.Clone())
	s.dirty = true
	logging.Store("Learned new condition %q (%d total)", entry.Condition, len(s.entries))

	if err := s.persistLocked(ctx); err != nil {
		return true, err
	}
	return true, nil
}

// Entries returns a read-only snapshot in insertion order.
// Later Learn calls never modify the returned slice.
func (s *KnowledgeStore) Entries() []types.ConditionEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.entries)
	return s.entries[:n:n]
}

// Find looks up an entry by name, case-insensitively.
func (s *KnowledgeStore) Find(name string) (*types.ConditionEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[types.NameKey(name)]
	if !ok {
		return nil, false
	}
	return s.entries[i].Clone(), true
}

// Len returns the number of entries.
func (s *KnowledgeStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Flush rewrites storage if a previous persist failed.
func (s *KnowledgeStore) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}
	return s.persistLocked(ctx)
}

// Close flushes pending changes and releases the persister.
func (s *KnowledgeStore) Close(ctx context.Context) error {
	flushErr := s.Flush(ctx)
	if err := s.persister.Close(); err != nil {
		return errors.Join(flushErr, fmt.Errorf("failed to close persister: %w", err))
	}
	return flushErr
}

func (s *KnowledgeStore) persistLocked(ctx context.Context) error {
	timer := logging.StartTimer(logging.CategoryStore, "persist")
	defer timer.StopWithThreshold(500 * time.Millisecond)

	if err := s.persister.Save(ctx, s.entries); err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to persist knowledge base to %s: %v", s.persister, err)
		return fmt.Errorf("failed to persist knowledge base: %w", err)
	}
	s.dirty = false
	return nil
}
