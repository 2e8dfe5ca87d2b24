// Package detail provides the full finding view for the TUI.
package detail

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/shinyobjectz/beans/internal/adapters/driving/tui/keymap"
	"github.com/shinyobjectz/beans/internal/adapters/driving/tui/messages"
	"github.com/shinyobjectz/beans/internal/adapters/driving/tui/styles"
	"github.com/shinyobjectz/beans/internal/core/domain"
)

// reservedLines covers the title, separator and help footer.
const reservedLines = 5

// View shows one complete finding in a scrollable viewport.
type View struct {
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	viewport viewport.Model
	finding  *domain.Finding
	width    int
	height   int
}

// NewView creates a new detail view.
func NewView(s *styles.Styles, km *keymap.KeyMap) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:   s,
		keymap:   km,
		viewport: viewport.New(80, 24-reservedLines),
		width:    80,
		height:   24,
	}
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// SetFinding shows f and scrolls to the top.
func (v *View) SetFinding(f *domain.Finding) {
	v.finding = f
	v.refresh()
	v.viewport.GotoTop()
}

// Update handles scrolling and leaving the view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		if keymap.Matches(msg.String(), v.keymap.Back) {
			return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewSearch} }
		}
		if msg.String() == "q" {
			return v, func() tea.Msg { return messages.Quit{} }
		}
	}

	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

// View renders the finding.
func (v *View) View() string {
	if v.finding == nil {
		return v.styles.Muted.Render("No finding selected") + "\n\n" + v.renderHelp()
	}

	title := v.styles.Title.Render(v.finding.Title)
	sep := v.styles.Muted.Render(strings.Repeat("─", max(1, min(v.width-2, 72))))
	scroll := v.styles.Muted.Render(fmt.Sprintf(" %3.0f%%", v.viewport.ScrollPercent()*100))

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		sep,
		v.viewport.View(),
		sep,
		v.renderHelp()+scroll,
	)
}

func (v *View) renderHelp() string {
	return v.styles.Help.Render(helpLine(v.keymap.DetailHelp()))
}

func helpLine(bindings []key.Binding) string {
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, h.Key+" "+h.Desc)
	}
	return strings.Join(hints, " • ")
}

// refresh re-renders the finding into the viewport at the current width.
func (v *View) refresh() {
	if v.finding == nil {
		v.viewport.SetContent("")
		return
	}
	v.viewport.SetContent(v.render(v.finding))
}

func (v *View) render(f *domain.Finding) string {
	var b strings.Builder

	field := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(v.styles.Label.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}

	field("ID", f.ID)
	b.WriteString(v.styles.Label.Render("Source"))
	b.WriteString(v.styles.Source(f.Source))
	b.WriteString("\n")
	field("Relevance", fmt.Sprintf("%.0f%%", f.Relevance*100))
	field("Work item", f.WorkItemID)
	field("Query", f.Query)
	field("URL", f.URL)
	field("Created", f.CreatedAt.Local().Format(time.DateTime))
	if len(f.Metadata) > 0 {
		if data, err := json.Marshal(f.Metadata); err == nil {
			field("Metadata", string(data))
		}
	}

	b.WriteString("\n")
	width := max(20, v.width-2)
	b.WriteString(lipgloss.NewStyle().Width(width).Render(f.Content))
	return b.String()
}

// SetDimensions sets the view dimensions and rewraps the content.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.viewport.Width = width
	v.viewport.Height = max(1, height-reservedLines)
	v.refresh()
}

// Finding returns the finding being shown.
func (v *View) Finding() *domain.Finding {
	return v.finding
}

// AtTop reports whether the viewport is scrolled to the top.
func (v *View) AtTop() bool {
	return v.viewport.AtTop()
}
