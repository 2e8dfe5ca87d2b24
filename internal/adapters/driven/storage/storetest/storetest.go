// Package storetest provides a conformance suite for driven.FindingStore
// implementations. Each storage adapter runs it from its own tests.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinyobjectz/beans/internal/core/domain"
	"github.com/shinyobjectz/beans/internal/core/ports/driven"
)

// Factory creates an empty store whose CreatedAt stamps come from now.
type Factory func(t *testing.T, now func() time.Time) driven.FindingStore

// Clock returns a clock that advances one second per call.
func Clock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

// RateLimiting is the reference finding used across the suite.
func RateLimiting() domain.Finding {
	return domain.Finding{
		ID:         "f1",
		WorkItemID: "issue-1",
		Query:      "rate limiting strategies",
		Source:     domain.SourceWeb,
		Title:      "Rate limiting",
		Content:    "Token bucket algorithms...",
		URL:        "http://example.com/a",
		Relevance:  0.8,
	}
}

// Run executes the conformance suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("Scenario", func(t *testing.T) { testScenario(t, newStore) })
	t.Run("InsertAndGet", func(t *testing.T) { testInsertAndGet(t, newStore) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, newStore) })
	t.Run("Validation", func(t *testing.T) { testValidation(t, newStore) })
	t.Run("Uniqueness", func(t *testing.T) { testUniqueness(t, newStore) })
	t.Run("IDCollision", func(t *testing.T) { testIDCollision(t, newStore) })
	t.Run("IndexConsistency", func(t *testing.T) { testIndexConsistency(t, newStore) })
	t.Run("FilterCorrectness", func(t *testing.T) { testFilterCorrectness(t, newStore) })
	t.Run("ListOrdering", func(t *testing.T) { testListOrdering(t, newStore) })
	t.Run("ForWorkItemOrdering", func(t *testing.T) { testForWorkItemOrdering(t, newStore) })
	t.Run("SearchSyntax", func(t *testing.T) { testSearchSyntax(t, newStore) })
	t.Run("SearchRanking", func(t *testing.T) { testSearchRanking(t, newStore) })
	t.Run("SearchEmpty", func(t *testing.T) { testSearchEmpty(t, newStore) })
	t.Run("SearchLimit", func(t *testing.T) { testSearchLimit(t, newStore) })
	t.Run("AllAndStats", func(t *testing.T) { testAllAndStats(t, newStore) })
	t.Run("Integrity", func(t *testing.T) { testIntegrity(t, newStore) })
}

func ids(findings []domain.Finding) []string {
	out := make([]string, len(findings))
	for i := range findings {
		out[i] = findings[i].ID
	}
	return out
}

func mustInsert(t *testing.T, store driven.FindingStore, f domain.Finding) {
	t.Helper()
	_, err := store.Insert(context.Background(), f)
	require.NoError(t, err)
}

func finding(id, workItem string, source domain.FindingSource, title, content string) domain.Finding {
	return domain.Finding{
		ID:         id,
		WorkItemID: workItem,
		Source:     source,
		Title:      title,
		Content:    content,
		Relevance:  domain.DefaultRelevance,
	}
}

func testScenario(t *testing.T, newStore Factory) {
	store := newStore(t, Clock())
	ctx := context.Background()

	id, err := store.Insert(ctx, RateLimiting())
	require.NoError(t, err)
	assert.Equal(t, "f1", id)

	dup := RateLimiting()
	dup.ID = "f2"
	dup.Content = "Leaky bucket is different"
	_, err = store.Insert(ctx, dup)
	assert.True(t, errors.Is(err, domain.ErrDuplicateFinding), "got %v", err)

	forItem, err := store.ForWorkItem(ctx, "issue-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"f1"}, ids(forItem))

	found, err := store.Search(ctx, domain.ParseSearchQuery("token bucket"), 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"f1"}, ids(found))

	codebase, err := store.List(ctx, domain.ListFilter{Source: domain.SourceCodebase}, 20)
	require.NoError(t, err)
	assert.Empty(t, codebase)
	assert.NotNil(t, codebase)
}

func testInsertAndGet(t *testing.T, newStore Factory) {
	now := Clock()
	store := newStore(t, now)
	ctx := context.Background()

	f := RateLimiting()
	f.Metadata = map[string]any{"provider": "valyu", "rank": float64(2)}
	_, err := store.Insert(ctx, f)
	require.NoError(t, err)

	got, err := store.Get(ctx, "f1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "issue-1", got.WorkItemID)
	assert.Equal(t, "rate limiting strategies", got.Query)
	assert.Equal(t, domain.SourceWeb, got.Source)
	assert.Equal(t, "Rate limiting", got.Title)
	assert.Equal(t, "Token bucket algorithms...", got.Content)
	assert.Equal(t, "http://example.com/a", got.URL)
	assert.InDelta(t, 0.8, got.Relevance, 1e-9)
	assert.Equal(t, map[string]any{"provider": "valyu", "rank": float64(2)}, got.Metadata)
	assert.False(t, got.CreatedAt.IsZero())

	explicit := finding("f2", "", domain.SourceCodebase, "Explicit time", "content")
	explicit.CreatedAt = time.Date(2025, 12, 24, 18, 30, 0, 123_000_000, time.UTC)
	_, err = store.Insert(ctx, explicit)
	require.NoError(t, err)

	got, err = store.Get(ctx, "f2")
	require.NoError(t, err)
	assert.True(t, explicit.CreatedAt.Equal(got.CreatedAt), "got %v", got.CreatedAt)
	assert.Equal(t, map[string]any{}, got.Metadata)
}

func testGetMissing(t *testing.T, newStore Factory) {
	store := newStore(t, Clock())

	got, err := store.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func testValidation(t *testing.T, newStore Factory) {
	store := newStore(t, Clock())
	ctx := context.Background()

	bad := RateLimiting()
	bad.Source = "valyu"
	_, err := store.Insert(ctx, bad)
	assert.True(t, errors.Is(err, domain.ErrInvalidSource), "got %v", err)

	noTitle := RateLimiting()
	noTitle.Title = ""
	_, err = store.Insert(ctx, noTitle)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "got %v", err)

	badMeta := RateLimiting()
	badMeta.Metadata = map[string]any{"score": math.NaN()}
	_, err = store.Insert(ctx, badMeta)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "got %v", err)

	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all, "rejected findings must not be written")
}

func testUniqueness(t *testing.T, newStore Factory) {
	store := newStore(t, Clock())
	ctx := context.Background()

	unlinked := finding("a", "", domain.SourceCodebase, "Same title", "first")
	mustInsert(t, store, unlinked)

	second := finding("b", "", domain.SourceCodebase, "Same title", "second")
	_, err := store.Insert(ctx, second)
	assert.True(t, errors.Is(err, domain.ErrDuplicateFinding), "unlinked findings share the empty work item: %v", err)

	otherItem := finding("c", "issue-9", domain.SourceCodebase, "Same title", "third")
	mustInsert(t, store, otherItem)

	otherURL := finding("d", "", domain.SourceWeb, "Same title", "fourth")
	otherURL.URL = "http://example.com/d"
	mustInsert(t, store, otherURL)

	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "d"}, ids(all))

	found, err := store.Search(ctx, domain.ParseSearchQuery("second"), 20)
	require.NoError(t, err)
	assert.Empty(t, found, "rejected duplicate must not reach the index")

	// The triple wins over the id when both collide.
	again := unlinked
	again.Content = "changed content"
	_, err = store.Insert(ctx, again)
	assert.True(t, errors.Is(err, domain.ErrDuplicateFinding), "got %v", err)
	assert.False(t, errors.Is(err, domain.ErrAlreadyExists), "got %v", err)

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "first", got.Content)
}

func testIDCollision(t *testing.T, newStore Factory) {
	store := newStore(t, Clock())
	ctx := context.Background()

	mustInsert(t, store, RateLimiting())

	other := finding("f1", "issue-2", domain.SourceCodebase, "Other", "other content")
	_, err := store.Insert(ctx, other)
	assert.True(t, errors.Is(err, domain.ErrAlreadyExists), "got %v", err)

	got, err := store.Get(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, "Rate limiting", got.Title)
}

func testIndexConsistency(t *testing.T, newStore Factory) {
	store := newStore(t, Clock())
	ctx := context.Background()

	corpus := []domain.Finding{
		finding("n1", "issue-1", domain.SourceWeb, "Circuit breakers", "Hystrix style fallbacks for flaky services"),
		finding("n2", "issue-1", domain.SourceExternalAPI, "Retry budgets", "Exponential backoff with jitter"),
		finding("n3", "", domain.SourceCodebase, "Connection pooling", "The pgx pool is configured in db.go"),
		finding("n4", "issue-2", domain.SourceWeb, "Café résumé", "Diacritics should fold in the index"),
	}
	corpus[2].Query = "where is pooling configured"
	for _, f := range corpus {
		mustInsert(t, store, f)
	}

	for _, f := range corpus {
		words := append(append(domain.Tokenize(f.Title), domain.Tokenize(f.Content)...), domain.Tokenize(f.Query)...)
		for _, word := range words {
			found, err := store.Search(ctx, domain.ParseSearchQuery(word), 20)
			require.NoError(t, err)
			assert.Contains(t, ids(found), f.ID, "word %q", word)
		}
	}

	found, err := store.Search(ctx, domain.ParseSearchQuery("cafe resume"), 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"n4"}, ids(found))
}

func testFilterCorrectness(t *testing.T, newStore Factory) {
	store := newStore(t, Clock())
	ctx := context.Background()

	sources := domain.AllSources()
	want := map[string][]string{}
	for i := 0; i < 12; i++ {
		item := fmt.Sprintf("issue-%d", i%3)
		f := finding(fmt.Sprintf("f%02d", i), item, sources[i%len(sources)], fmt.Sprintf("Title %d", i), "content")
		mustInsert(t, store, f)
		want[item] = append(want[item], f.ID)
	}

	for item, expected := range want {
		got, err := store.List(ctx, domain.ListFilter{WorkItemID: item}, 100)
		require.NoError(t, err)
		assert.ElementsMatch(t, expected, ids(got), item)
	}

	got, err := store.List(ctx, domain.ListFilter{WorkItemID: "issue-1", Source: domain.SourceWeb}, 100)
	require.NoError(t, err)
	for _, f := range got {
		assert.Equal(t, "issue-1", f.WorkItemID)
		assert.Equal(t, domain.SourceWeb, f.Source)
	}
	assert.Equal(t, []string{"f10", "f07", "f04", "f01"}, ids(got))

	none, err := store.List(ctx, domain.ListFilter{WorkItemID: "issue-404"}, 100)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testListOrdering(t *testing.T, newStore Factory) {
	store := newStore(t, Clock())
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		mustInsert(t, store, finding(fmt.Sprintf("f%02d", i), "", domain.SourceWeb, fmt.Sprintf("T%d", i), "c"))
	}

	got, err := store.List(ctx, domain.ListFilter{}, 20)
	require.NoError(t, err)
	require.Len(t, got, 20)
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i-1].CreatedAt.Before(got[i].CreatedAt), "index %d", i)
	}
	assert.Equal(t, "f29", got[0].ID)
	assert.Equal(t, "f10", got[19].ID)

	// Same timestamp falls back to most recently inserted first.
	same := newStore(t, func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) })
	for _, id := range []string{"x", "y", "z"} {
		mustInsert(t, same, finding(id, "", domain.SourceWeb, id, "c"))
	}
	got, err = same.List(ctx, domain.ListFilter{}, 0)
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"z", "y", "x"}, ids(got)); diff != "" {
		t.Errorf("list order mismatch (-want +got):\n%s", diff)
	}
}

func testForWorkItemOrdering(t *testing.T, newStore Factory) {
	store := newStore(t, Clock())
	ctx := context.Background()

	relevance := map[string]float64{"a": 0.2, "b": 0.9, "c": 0.5, "d": 0.9, "e": 0.5}
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		f := finding(id, "issue-7", domain.SourceWeb, "Title "+id, "c")
		f.Relevance = relevance[id]
		mustInsert(t, store, f)
	}
	mustInsert(t, store, finding("other", "issue-8", domain.SourceWeb, "Other", "c"))

	got, err := store.ForWorkItem(ctx, "issue-7")
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"b", "d", "c", "e", "a"}, ids(got)); diff != "" {
		t.Errorf("for work item order mismatch (-want +got):\n%s", diff)
	}
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Relevance, got[i].Relevance)
	}

	empty, err := store.ForWorkItem(ctx, "issue-404")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func testSearchSyntax(t *testing.T, newStore Factory) {
	store := newStore(t, Clock())
	ctx := context.Background()

	mustInsert(t, store, finding("tb", "", domain.SourceWeb, "Token bucket", "Refill tokens at a fixed rate"))
	mustInsert(t, store, finding("lb", "", domain.SourceWeb, "Leaky bucket", "Queue drains at a constant rate"))
	mustInsert(t, store, finding("sw", "", domain.SourceCodebase, "Sliding window", "Redis sorted sets count requests"))
	mustInsert(t, store, finding("sp", "", domain.SourceWeb, "Split fields", "token"))

	tests := []struct {
		query string
		want  []string
	}{
		{"bucket", []string{"lb", "tb"}},
		{`"token bucket"`, []string{"tb"}},
		{`"bucket token"`, nil},
		{"buck*", []string{"lb", "tb"}},
		{`"token buck"*`, []string{"tb"}},
		{"redis OR queue", []string{"lb", "sw"}},
		{"bucket -leaky", []string{"tb"}},
		{"bucket NOT token", []string{"lb"}},
		{"rate", []string{"lb", "tb"}},
		{"rate sorted", nil},
		{"TOKEN", []string{"sp", "tb"}},
		{`"fields token"`, nil},
		{`"(unbalanced`, []string{}},
		{"AND OR NOT", []string{}},
		{"zeppelin", nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := store.Search(ctx, domain.ParseSearchQuery(tt.query), 20)
			require.NoError(t, err)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.ElementsMatch(t, tt.want, ids(got))
		})
	}
}

func testSearchRanking(t *testing.T, newStore Factory) {
	store := newStore(t, Clock())
	ctx := context.Background()

	mustInsert(t, store, finding("weak", "", domain.SourceWeb,
		"Deployment notes", "A long write-up on deployments that mentions caching only once among many other topics"))
	mustInsert(t, store, finding("strong", "", domain.SourceWeb,
		"Caching", "Caching caching caching"))
	mustInsert(t, store, finding("unrelated", "", domain.SourceWeb,
		"Queues", "Message brokers"))

	got, err := store.Search(ctx, domain.ParseSearchQuery("caching"), 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"strong", "weak"}, ids(got))
}

func testSearchEmpty(t *testing.T, newStore Factory) {
	store := newStore(t, Clock())
	ctx := context.Background()

	mustInsert(t, store, RateLimiting())

	for _, q := range []string{"", "   ", "-token", `""`, "*"} {
		got, err := store.Search(ctx, domain.ParseSearchQuery(q), 20)
		require.NoError(t, err, q)
		assert.Empty(t, got, q)
	}
}

func testSearchLimit(t *testing.T, newStore Factory) {
	store := newStore(t, Clock())
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		mustInsert(t, store, finding(fmt.Sprintf("f%02d", i), "", domain.SourceWeb,
			fmt.Sprintf("Bucket %d", i), strings.Repeat("bucket ", i+1)))
	}

	got, err := store.Search(ctx, domain.ParseSearchQuery("bucket"), 5)
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func testAllAndStats(t *testing.T, newStore Factory) {
	store := newStore(t, Clock())
	ctx := context.Background()

	mustInsert(t, store, finding("a", "issue-1", domain.SourceWeb, "A", "c"))
	mustInsert(t, store, finding("b", "issue-1", domain.SourceCodebase, "B", "c"))
	mustInsert(t, store, finding("c", "issue-2", domain.SourceWeb, "C", "c"))
	mustInsert(t, store, finding("d", "", domain.SourceExternalAPI, "D", strings.Repeat("é", 500)))

	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(all))
	assert.Equal(t, 500, utf8.RuneCountInString(all[3].Content), "stored content is never truncated")

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.WorkItems)
	assert.Equal(t, map[domain.FindingSource]int{
		domain.SourceWeb:         2,
		domain.SourceCodebase:    1,
		domain.SourceExternalAPI: 1,
	}, stats.BySource)
}

func testIntegrity(t *testing.T, newStore Factory) {
	store := newStore(t, Clock())
	ctx := context.Background()

	require.NoError(t, store.CheckIntegrity(ctx))
	mustInsert(t, store, RateLimiting())
	mustInsert(t, store, finding("f2", "", domain.SourceCodebase, "Other", "c"))
	assert.NoError(t, store.CheckIntegrity(ctx))

	require.NoError(t, store.RebuildIndex(ctx))
	assert.NoError(t, store.CheckIntegrity(ctx))

	found, err := store.Search(ctx, domain.ParseSearchQuery("token bucket"), 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"f1"}, ids(found))
}
