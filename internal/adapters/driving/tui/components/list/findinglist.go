// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/shinyobjectz/beans/internal/adapters/driving/tui/styles"
	"github.com/shinyobjectz/beans/internal/core/domain"
)

// linesPerFinding is the height of one rendered row: title line plus preview.
const linesPerFinding = 2

// FindingList displays finding previews in a navigable list.
type FindingList struct {
	findings []domain.FindingPreview
	title    string
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewFindingList creates a new finding list component.
func NewFindingList(s *styles.Styles) *FindingList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &FindingList{
		title:  "Findings",
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the list.
func (l *FindingList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation keys.
func (l *FindingList) Update(msg tea.Msg) (*FindingList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		case "home", "g":
			l.selected = 0
		case "end", "G":
			if len(l.findings) > 0 {
				l.selected = len(l.findings) - 1
			}
		}
	}
	return l, nil
}

// View renders the list.
func (l *FindingList) View() string {
	header := l.styles.Subtitle.Render(fmt.Sprintf("%s (%d)", l.title, len(l.findings)))
	if len(l.findings) == 0 {
		return header + "\n\n" + l.styles.Muted.Render("No findings")
	}

	visible := (l.height - 2) / linesPerFinding
	if visible < 1 {
		visible = 1
	}
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := start + visible
	if end > len(l.findings) {
		end = len(l.findings)
	}

	lines := make([]string, 0, 2+(end-start))
	lines = append(lines, header, "")
	for i := start; i < end; i++ {
		lines = append(lines, l.renderFinding(i, &l.findings[i]))
	}
	return strings.Join(lines, "\n")
}

func (l *FindingList) renderFinding(index int, f *domain.FindingPreview) string {
	indicator := "  "
	if index == l.selected {
		indicator = "> "
	}

	title := f.Title
	if title == "" {
		title = "(untitled)"
	}
	maxTitle := l.width - 30
	if maxTitle < 10 {
		maxTitle = 10
	}
	if cut, truncated := domain.TruncateRunes(title, maxTitle-3); truncated {
		title = cut + "..."
	}

	relevance := fmt.Sprintf("%3.0f%%", f.Relevance*100)
	var titleLine string
	if index == l.selected {
		titleLine = l.styles.Selected.Render(indicator+title) + " " + l.styles.Source(f.Source) +
			" " + l.styles.Muted.Render(relevance)
	} else {
		titleLine = l.styles.Normal.Render(indicator+title) + " " + l.styles.Source(f.Source) +
			" " + l.styles.Muted.Render(relevance)
	}

	preview := strings.Join(strings.Fields(f.Content), " ")
	maxPreview := l.width - 8
	if maxPreview < 20 {
		maxPreview = 20
	}
	cut, truncated := domain.TruncateRunes(preview, maxPreview-3)
	if truncated || f.Truncated {
		cut += "..."
	}
	if f.WorkItemID != "" {
		cut = f.WorkItemID + ": " + cut
	}

	return titleLine + "\n" + l.styles.Muted.Render("    "+cut)
}

// SetFindings replaces the list contents and resets the selection.
func (l *FindingList) SetFindings(title string, findings []domain.FindingPreview) {
	l.title = title
	l.findings = findings
	l.selected = 0
}

// Findings returns the current findings.
func (l *FindingList) Findings() []domain.FindingPreview {
	return l.findings
}

// Title returns the list heading.
func (l *FindingList) Title() string {
	return l.title
}

// Selected returns the index of the selected finding.
func (l *FindingList) Selected() int {
	return l.selected
}

// SetSelected sets the selected index.
func (l *FindingList) SetSelected(index int) {
	if index >= 0 && index < len(l.findings) {
		l.selected = index
	}
}

// SelectedFinding returns the selected finding, or nil if the list is empty.
func (l *FindingList) SelectedFinding() *domain.FindingPreview {
	if l.selected < 0 || l.selected >= len(l.findings) {
		return nil
	}
	return &l.findings[l.selected]
}

// MoveUp moves the selection up.
func (l *FindingList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves the selection down.
func (l *FindingList) MoveDown() {
	if l.selected < len(l.findings)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *FindingList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of findings.
func (l *FindingList) Count() int {
	return len(l.findings)
}

// IsEmpty returns whether the list is empty.
func (l *FindingList) IsEmpty() bool {
	return len(l.findings) == 0
}
