package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/shinyobjectz/beans/internal/core/domain"
)

func TestResearchImport(t *testing.T) {
	svc := setupTestServices(t)
	dir := t.TempDir()

	good := filepath.Join(dir, "good.json")
	require.NoError(t, os.WriteFile(good, []byte(`[
		{"id": "f1", "source": "web", "title": "A", "content": "a"},
		{"id": "f2", "source": "codebase", "title": "B", "content": "b"}
	]`), 0600))

	out, err := execute(t, "research", "import", good)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 findings from 1 files (0 duplicates, 0 rejected)")

	out, err = execute(t, "research", "import", good)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 0 findings from 1 files (2 duplicates, 0 rejected)")

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
}

func TestResearchImport_Rejections(t *testing.T) {
	setupTestServices(t)
	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("source: rss\ntitle: T\ncontent: C\n"), 0600))

	out, err := execute(t, "research", "import", bad)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, out, "1 rejected")
	assert.Contains(t, out, "rejected "+bad+"[0]")
}

func TestResearchImport_RequiresInput(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "research", "import")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--watch")
}

func TestResearchExport(t *testing.T) {
	setupTestServices(t)
	addRateLimiting(t)
	addFinding(t, "--id", "f2", "--source", "codebase", "--title", "Pool", "--content", "pgx")

	out, err := execute(t, "research", "export")
	require.NoError(t, err)
	var findings []domain.Finding
	require.NoError(t, json.Unmarshal([]byte(out), &findings))
	require.Len(t, findings, 2)
	assert.Equal(t, "f1", findings[0].ID)
	assert.Equal(t, "f2", findings[1].ID)

	out, err = execute(t, "research", "export", "--format", "yaml")
	require.NoError(t, err)
	var docs []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &docs))
	require.Len(t, docs, 2)
	assert.Equal(t, "Rate limiting", docs[0]["title"])
}

func TestResearchExport_ToFile(t *testing.T) {
	setupTestServices(t)
	addRateLimiting(t)
	path := filepath.Join(t.TempDir(), "export.json")

	out, err := execute(t, "research", "export", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 1 findings to "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"id": "f1"`)
}

func TestResearchExport_RoundTripsThroughImport(t *testing.T) {
	setupTestServices(t)
	addRateLimiting(t)
	path := filepath.Join(t.TempDir(), "export.yaml")

	_, err := execute(t, "research", "export", "--format", "yaml", "-o", path)
	require.NoError(t, err)

	svc := setupTestServices(t)
	_, err = execute(t, "research", "import", path)
	require.NoError(t, err)

	f, err := svc.Show(context.Background(), "f1")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, "issue-1", f.WorkItemID)
	assert.Equal(t, 0.8, f.Relevance)
}

func TestResearchExport_UnknownFormat(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "research", "export", "--format", "xml")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestResearchStats(t *testing.T) {
	setupTestServices(t)
	addRateLimiting(t)
	addFinding(t, "--id", "f2", "--work-item", "issue-2", "--source", "codebase", "--title", "Pool", "--content", "pgx")
	addFinding(t, "--id", "f3", "--work-item", "issue-2", "--source", "codebase", "--title", "Tx", "--content", "pgx")

	out, err := execute(t, "research", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Findings:   3")
	assert.Contains(t, out, "Work items: 2")
	assert.Contains(t, out, "[codebase]")
}

func TestResearchDoctor(t *testing.T) {
	setupTestServices(t)
	addRateLimiting(t)

	out, err := execute(t, "research", "doctor")
	require.NoError(t, err)
	assert.Contains(t, out, "Search index is consistent.")

	out, err = execute(t, "research", "doctor", "--repair")
	require.NoError(t, err)
	assert.Contains(t, out, "Search index is consistent.")
}
