package list

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinyobjectz/beans/internal/adapters/driving/tui/styles"
	"github.com/shinyobjectz/beans/internal/core/domain"
)

func sampleFindings() []domain.FindingPreview {
	return []domain.FindingPreview{
		{ID: "f1", WorkItemID: "issue-1", Source: domain.SourceWeb, Title: "Token bucket", Content: "Refill at a fixed rate", Relevance: 0.9},
		{ID: "f2", Source: domain.SourceCodebase, Title: "Existing limiter", Content: "internal/limit", Relevance: 0.5, Truncated: true},
		{ID: "f3", Source: domain.SourceExternalAPI, Title: "", Content: "", Relevance: 0.25},
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestNewFindingList(t *testing.T) {
	l := NewFindingList(styles.DefaultStyles())

	require.NotNil(t, l)
	assert.Equal(t, 0, l.Selected())
	assert.True(t, l.IsEmpty())
	assert.Nil(t, l.SelectedFinding())
	assert.Nil(t, l.Init())
}

func TestNewFindingList_NilStyles(t *testing.T) {
	l := NewFindingList(nil)

	require.NotNil(t, l)
	assert.NotNil(t, l.styles)
}

func TestFindingList_SetFindingsResetsSelection(t *testing.T) {
	l := NewFindingList(nil)
	l.SetFindings("Recent", sampleFindings())
	l.SetSelected(2)

	l.SetFindings("Results", sampleFindings()[:1])

	assert.Equal(t, "Results", l.Title())
	assert.Equal(t, 1, l.Count())
	assert.Equal(t, 0, l.Selected())
}

func TestFindingList_Navigation(t *testing.T) {
	l := NewFindingList(nil)
	l.SetFindings("Recent", sampleFindings())

	l.Update(key("down"))
	assert.Equal(t, 1, l.Selected())

	l.Update(key("j"))
	l.Update(key("j"))
	assert.Equal(t, 2, l.Selected(), "selection stops at the last finding")

	l.Update(key("k"))
	assert.Equal(t, 1, l.Selected())

	l.Update(key("up"))
	l.Update(key("up"))
	assert.Equal(t, 0, l.Selected(), "selection stops at the first finding")

	l.Update(key("G"))
	assert.Equal(t, 2, l.Selected())
	l.Update(key("g"))
	assert.Equal(t, 0, l.Selected())
}

func TestFindingList_SetSelectedOutOfRange(t *testing.T) {
	l := NewFindingList(nil)
	l.SetFindings("Recent", sampleFindings())

	l.SetSelected(5)
	l.SetSelected(-1)

	assert.Equal(t, 0, l.Selected())
}

func TestFindingList_SelectedFinding(t *testing.T) {
	l := NewFindingList(nil)
	l.SetFindings("Recent", sampleFindings())
	l.MoveDown()

	f := l.SelectedFinding()

	require.NotNil(t, f)
	assert.Equal(t, "f2", f.ID)
}

func TestFindingList_View(t *testing.T) {
	l := NewFindingList(nil)
	l.SetDimensions(100, 20)
	l.SetFindings("Recent findings", sampleFindings())

	view := l.View()

	assert.Contains(t, view, "Recent findings (3)")
	assert.Contains(t, view, "> Token bucket")
	assert.Contains(t, view, "[web]")
	assert.Contains(t, view, "90%")
	assert.Contains(t, view, "issue-1: Refill at a fixed rate")
	assert.Contains(t, view, "internal/limit...")
	assert.Contains(t, view, "(untitled)")
}

func TestFindingList_View_Empty(t *testing.T) {
	l := NewFindingList(nil)

	assert.Contains(t, l.View(), "No findings")
}

func TestFindingList_View_ScrollsToSelection(t *testing.T) {
	l := NewFindingList(nil)
	l.SetDimensions(80, 6) // two rows visible
	l.SetFindings("Recent", sampleFindings())
	l.SetSelected(2)

	view := l.View()

	assert.NotContains(t, view, "Token bucket")
	assert.Contains(t, view, "(untitled)")
	assert.Equal(t, 2+2*linesPerFinding, len(strings.Split(view, "\n")))
}
