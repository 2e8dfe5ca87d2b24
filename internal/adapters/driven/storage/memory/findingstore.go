package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/shinyobjectz/beans/internal/core/domain"
	"github.com/shinyobjectz/beans/internal/core/ports/driven"
)

// Ensure FindingStore implements the interface.
var _ driven.FindingStore = (*FindingStore)(nil)

// FindingStore is an in-memory implementation of driven.FindingStore.
// Full-text search runs on an explicit inverted index ranked with BM25.
type FindingStore struct {
	mu       sync.RWMutex
	findings []domain.Finding
	byID     map[string]int
	byKey    map[[3]string]int
	index    *invertedIndex
	now      func() time.Time
}

// Option configures a FindingStore.
type Option func(*FindingStore)

// WithClock overrides the clock used to stamp CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *FindingStore) {
		s.now = now
	}
}

// NewFindingStore creates a new in-memory finding store.
func NewFindingStore(opts ...Option) *FindingStore {
	s := &FindingStore{
		byID:  make(map[string]int),
		byKey: make(map[[3]string]int),
		index: newInvertedIndex(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Insert stores a finding. The record and its index entries are written
// under one lock after every check has passed.
func (s *FindingStore) Insert(_ context.Context, finding domain.Finding) (string, error) {
	if err := finding.Validate(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := finding.DedupKey()
	if _, ok := s.byKey[key]; ok {
		return "", fmt.Errorf("%w: work item %q, url %q, title %q",
			domain.ErrDuplicateFinding, finding.WorkItemID, finding.URL, finding.Title)
	}
	if _, ok := s.byID[finding.ID]; ok {
		return "", fmt.Errorf("%w: finding %q", domain.ErrAlreadyExists, finding.ID)
	}

	if finding.CreatedAt.IsZero() {
		finding.CreatedAt = s.now()
	}
	finding.CreatedAt = finding.CreatedAt.UTC().Truncate(time.Millisecond)
	finding.Metadata = cloneMetadata(finding.Metadata)

	doc := len(s.findings)
	s.findings = append(s.findings, finding)
	s.byID[finding.ID] = doc
	s.byKey[key] = doc
	s.index.add(doc, finding.Title, finding.Content, finding.Query)

	return finding.ID, nil
}

// Get retrieves a finding by ID. Returns nil, nil if not found.
func (s *FindingStore) Get(_ context.Context, id string) (*domain.Finding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	f := s.copyAt(doc)
	return &f, nil
}

// List returns findings matching the filter, most recent first.
// A non-positive limit returns every match.
func (s *FindingStore) List(_ context.Context, filter domain.ListFilter, limit int) ([]domain.Finding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []int
	for doc := range s.findings {
		if filter.Matches(&s.findings[doc]) {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool {
		a, b := s.findings[docs[i]].CreatedAt, s.findings[docs[j]].CreatedAt
		if !a.Equal(b) {
			return a.After(b)
		}
		return docs[i] > docs[j]
	})
	return s.collect(docs, limit), nil
}

// Search returns findings matching the query, best match first.
func (s *FindingStore) Search(_ context.Context, query domain.SearchQuery, limit int) ([]domain.Finding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ranked := s.index.evaluate(query)
	docs := make([]int, len(ranked))
	for i, r := range ranked {
		docs[i] = r.doc
	}
	return s.collect(docs, limit), nil
}

// ForWorkItem returns findings for a work item, highest relevance first.
func (s *FindingStore) ForWorkItem(_ context.Context, workItemID string) ([]domain.Finding, error) {
	if workItemID == "" {
		return []domain.Finding{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []int
	for doc := range s.findings {
		if s.findings[doc].WorkItemID == workItemID {
			docs = append(docs, doc)
		}
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return s.findings[docs[i]].Relevance > s.findings[docs[j]].Relevance
	})
	return s.collect(docs, 0), nil
}

// All returns every finding, oldest first.
func (s *FindingStore) All(_ context.Context) ([]domain.Finding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]int, len(s.findings))
	for i := range docs {
		docs[i] = i
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return s.findings[docs[i]].CreatedAt.Before(s.findings[docs[j]].CreatedAt)
	})
	return s.collect(docs, 0), nil
}

// Stats summarises the stored findings.
func (s *FindingStore) Stats(_ context.Context) (*domain.ResearchStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &domain.ResearchStats{
		Total:    len(s.findings),
		BySource: make(map[domain.FindingSource]int),
	}
	items := make(map[string]struct{})
	for i := range s.findings {
		f := &s.findings[i]
		stats.BySource[f.Source]++
		if f.WorkItemID != "" {
			items[f.WorkItemID] = struct{}{}
		}
	}
	stats.WorkItems = len(items)
	return stats, nil
}

// CheckIntegrity verifies that every finding is reachable by ID, by its
// uniqueness key, and through the index.
func (s *FindingStore) CheckIntegrity(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n := s.index.docCount(); n != len(s.findings) {
		return fmt.Errorf("%w: index holds %d documents, store holds %d findings",
			domain.ErrStorage, n, len(s.findings))
	}
	for doc := range s.findings {
		f := &s.findings[doc]
		if s.byID[f.ID] != doc || s.byKey[f.DedupKey()] != doc {
			return fmt.Errorf("%w: finding %q is not addressable", domain.ErrStorage, f.ID)
		}
	}
	return nil
}

// RebuildIndex regenerates the inverted index from the stored findings.
func (s *FindingStore) RebuildIndex(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.index = newInvertedIndex()
	for doc := range s.findings {
		f := &s.findings[doc]
		s.index.add(doc, f.Title, f.Content, f.Query)
	}
	return nil
}

// collect copies the findings at docs, up to limit when positive.
// Must be called with the lock held.
func (s *FindingStore) collect(docs []int, limit int) []domain.Finding {
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	out := make([]domain.Finding, 0, len(docs))
	for _, doc := range docs {
		out = append(out, s.copyAt(doc))
	}
	return out
}

func (s *FindingStore) copyAt(doc int) domain.Finding {
	f := s.findings[doc]
	f.Metadata = cloneMetadata(f.Metadata)
	return f
}

func cloneMetadata(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return maps.Clone(m)
}
