package detail

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinyobjectz/beans/internal/adapters/driving/tui/messages"
	"github.com/shinyobjectz/beans/internal/core/domain"
)

func testFinding() *domain.Finding {
	return &domain.Finding{
		ID:         "f1",
		WorkItemID: "issue-1",
		Query:      "how do others rate limit",
		Source:     domain.SourceExternalAPI,
		Title:      "Token bucket",
		Content:    "Refill tokens at a fixed rate.",
		URL:        "https://example.com/a",
		Relevance:  0.75,
		Metadata:   map[string]any{"model": "x"},
		CreatedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestNewView(t *testing.T) {
	v := NewView(nil, nil)

	require.NotNil(t, v)
	assert.Nil(t, v.Init())
	assert.Nil(t, v.Finding())
	assert.Contains(t, v.View(), "No finding selected")
}

func TestView_RendersFinding(t *testing.T) {
	v := NewView(nil, nil)
	v.SetDimensions(100, 30)

	v.SetFinding(testFinding())
	view := v.View()

	for _, want := range []string{
		"Token bucket",
		"f1",
		"[external_api]",
		"75%",
		"issue-1",
		"how do others rate limit",
		"https://example.com/a",
		`{"model":"x"}`,
		"Refill tokens at a fixed rate.",
		"esc back",
	} {
		assert.Contains(t, view, want)
	}
}

func TestView_OmitsEmptyFields(t *testing.T) {
	v := NewView(nil, nil)
	v.SetDimensions(100, 30)
	f := testFinding()
	f.URL = ""
	f.Metadata = nil

	v.SetFinding(f)

	assert.NotContains(t, v.View(), "URL")
	assert.NotContains(t, v.View(), "Metadata")
}

func TestView_Scrolls(t *testing.T) {
	v := NewView(nil, nil)
	v.SetDimensions(80, 10)
	f := testFinding()
	f.Content = strings.Repeat("line\n", 50)
	v.SetFinding(f)
	require.True(t, v.AtTop())

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	assert.False(t, v.AtTop())

	v.SetFinding(f)
	assert.True(t, v.AtTop(), "a new finding starts at the top")
}

func TestView_Back(t *testing.T) {
	v := NewView(nil, nil)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)

	assert.Equal(t, messages.ViewChanged{View: messages.ViewSearch}, cmd())
}

func TestView_Quit(t *testing.T) {
	v := NewView(nil, nil)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)

	assert.Equal(t, messages.Quit{}, cmd())
}
