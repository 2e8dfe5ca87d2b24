package inbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/shinyobjectz/beans/internal/core/domain"
	"github.com/shinyobjectz/beans/internal/core/ports/driving"
)

// brokenResearch fails every write as if the database had gone away.
type brokenResearch struct {
	driving.ResearchService
}

func (brokenResearch) Add(context.Context, domain.Finding) (string, error) {
	return "", fmt.Errorf("%w: disk I/O error", domain.ErrStorage)
}

type imported struct {
	path   string
	report Report
}

func waitImport(t *testing.T, ch <-chan imported) imported {
	t.Helper()
	select {
	case got := <-ch:
		return got
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for import")
		return imported{}
	}
}

func TestWatcher_ImportsExistingAndNewFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	im, svc := newTestImporter(t)
	dir := filepath.Join(t.TempDir(), "inbox")
	require.NoError(t, os.MkdirAll(dir, 0700))
	writeFile(t, dir, "existing.json", `{"source": "web", "title": "Existing", "content": "already here"}`)
	writeFile(t, dir, "ignored.txt", "not a finding")

	events := make(chan imported, 10)
	w := NewWatcher(im, dir,
		WithDebounce(20*time.Millisecond),
		WithOnImport(func(path string, r Report) { events <- imported{path, r} }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	first := waitImport(t, events)
	assert.Equal(t, filepath.Join(dir, "existing.json"), first.path)
	assert.Len(t, first.report.Inserted, 1)

	writeFile(t, dir, "new.yaml", "source: codebase\ntitle: New\ncontent: dropped later\n")
	second := waitImport(t, events)
	assert.Equal(t, filepath.Join(dir, "new.yaml"), second.path)
	assert.Len(t, second.report.Inserted, 1)

	cancel()
	require.NoError(t, <-done)

	found, err := svc.Search(context.Background(), "dropped", 0)
	require.NoError(t, err)
	assert.Len(t, found, 1)

	all, err := svc.List(context.Background(), domain.ListFilter{}, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestWatcher_CreatesDirectory(t *testing.T) {
	defer goleak.VerifyNone(t)

	im, _ := newTestImporter(t)
	dir := filepath.Join(t.TempDir(), "missing", "inbox")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, NewWatcher(im, dir).Run(ctx))
	_, err := os.Stat(dir)
	assert.NoError(t, err)
}

func TestWatcher_Due(t *testing.T) {
	w := NewWatcher(nil, t.TempDir(), WithDebounce(time.Second))
	now := time.Now()
	w.pending["b.json"] = now.Add(-2 * time.Second)
	w.pending["a.json"] = now.Add(-3 * time.Second)
	w.pending["c.json"] = now

	assert.Equal(t, []string{"a.json", "b.json"}, w.due(now))
	assert.Len(t, w.pending, 1)
}

func TestWatcher_StopsOnStorageFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	writeFile(t, dir, "existing.json", `{"source": "web", "title": "Existing", "content": "c"}`)

	var got []Report
	w := NewWatcher(NewImporter(brokenResearch{}), dir,
		WithOnImport(func(_ string, r Report) { got = append(got, r) }),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := w.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStorage)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Inserted)
}

func TestWatcher_StopsOnStorageFailureForNewFile(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	w := NewWatcher(NewImporter(brokenResearch{}), dir, WithDebounce(20*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Run may not be watching yet; keep writing until it reacts.
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case err := <-done:
			assert.ErrorIs(t, err, domain.ErrStorage)
			return
		case <-tick.C:
			writeFile(t, dir, "new.json", `{"source": "codebase", "title": "New", "content": "c"}`)
		case <-ctx.Done():
			t.Fatal("watcher did not stop on storage failure")
		}
	}
}
