// Package search provides the main finding list and search view for the TUI.
package search

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/shinyobjectz/beans/internal/adapters/driving/tui/components/input"
	"github.com/shinyobjectz/beans/internal/adapters/driving/tui/components/list"
	"github.com/shinyobjectz/beans/internal/adapters/driving/tui/components/status"
	"github.com/shinyobjectz/beans/internal/adapters/driving/tui/keymap"
	"github.com/shinyobjectz/beans/internal/adapters/driving/tui/messages"
	"github.com/shinyobjectz/beans/internal/adapters/driving/tui/styles"
	"github.com/shinyobjectz/beans/internal/core/domain"
	"github.com/shinyobjectz/beans/internal/core/ports/driving"
)

const recentTitle = "Recent findings"

// View is the search view: a query input above a list of findings and a
// status bar. It opens on the most recent findings.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QueryInput
	list      *list.FindingList
	statusbar *status.Bar

	research driving.ResearchService
	ctx      context.Context

	width  int
	height int
	ready  bool
	err    error
	// query is the query behind the current list; empty for recent findings.
	query      string
	focusInput bool
}

// NewView creates a new search view.
func NewView(s *styles.Styles, km *keymap.KeyMap, research driving.ResearchService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:    s,
		keymap:    km,
		input:     input.NewQueryInput(s),
		list:      list.NewFindingList(s),
		statusbar: status.NewBar(s, km),
		research:  research,
		ctx:       context.Background(),
		width:     80,
		height:    24,
	}
	v.list.SetFindings(recentTitle, nil)
	v.blurInput()
	return v
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the most recent findings.
func (v *View) Init() tea.Cmd {
	v.statusbar.SetState(status.StateLoading)
	return v.loadRecent()
}

// Update handles messages for the search view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.FindingsLoaded:
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		v.showFindings("", recentTitle, msg.Findings)
		return v, nil

	case messages.SearchCompleted:
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		v.showFindings(msg.Query, fmt.Sprintf("Results for %q", msg.Query), msg.Findings)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	if v.focusInput {
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if v.focusInput {
		return v.handleInputKey(msg)
	}

	km := v.keymap
	switch {
	case keymap.Matches(msg.String(), km.Quit):
		return v, func() tea.Msg { return messages.Quit{} }

	case keymap.Matches(msg.String(), km.Help):
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewHelp} }

	case keymap.Matches(msg.String(), km.NewSearch):
		v.input.SetValue("")
		return v, v.focus()

	case keymap.Matches(msg.String(), km.Select):
		f := v.list.SelectedFinding()
		if f == nil {
			return v, nil
		}
		id := f.ID
		return v, func() tea.Msg { return messages.FindingSelected{ID: id} }

	case keymap.Matches(msg.String(), km.Back):
		// Leaving search results returns to the recent list.
		if v.query != "" {
			v.statusbar.SetState(status.StateLoading)
			return v, v.loadRecent()
		}
		return v, nil
	}

	v.list, _ = v.list.Update(msg)
	return v, nil
}

func (v *View) handleInputKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	//nolint:exhaustive // only submit and cancel are special while typing
	switch msg.Type {
	case tea.KeyEnter:
		query := v.input.Value()
		v.blurInput()
		if query == "" {
			v.statusbar.SetState(status.StateLoading)
			return v, v.loadRecent()
		}
		v.statusbar.SetState(status.StateSearching)
		return v, v.performSearch(query)

	case tea.KeyEsc:
		v.input.SetValue(v.query)
		v.blurInput()
		v.statusbar.SetState(status.StateResults)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) focus() tea.Cmd {
	v.focusInput = true
	v.statusbar.SetState(status.StateInput)
	return v.input.Focus()
}

func (v *View) blurInput() {
	v.focusInput = false
	v.input.Blur()
}

// loadRecent lists the most recent findings using the configured limit.
func (v *View) loadRecent() tea.Cmd {
	research, ctx := v.research, v.ctx
	return func() tea.Msg {
		if research == nil {
			return messages.ErrorOccurred{Err: ErrNoResearchService}
		}
		findings, err := research.List(ctx, domain.ListFilter{}, 0)
		return messages.FindingsLoaded{Findings: findings, Err: err}
	}
}

func (v *View) performSearch(query string) tea.Cmd {
	research, ctx := v.research, v.ctx
	return func() tea.Msg {
		if research == nil {
			return messages.ErrorOccurred{Err: ErrNoResearchService}
		}
		findings, err := research.Search(ctx, query, 0)
		return messages.SearchCompleted{Query: query, Findings: findings, Err: err}
	}
}

func (v *View) showFindings(query, title string, findings []domain.FindingPreview) {
	v.err = nil
	v.query = query
	v.input.SetValue(query)
	v.list.SetFindings(title, findings)
	v.statusbar.SetState(status.StateResults)
	v.statusbar.SetMessage("")
	v.statusbar.SetCount(len(findings))
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// View renders the search view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 8)
	sections = append(sections, v.styles.Title.Render("beans research"), "", v.input.View(), "")
	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}
	sections = append(sections, v.list.View(), "", v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	// Title, input box, spacing and status bar take ten lines.
	v.list.SetDimensions(width, height-10)
	v.statusbar.SetWidth(width)
}

// Width returns the current width.
func (v *View) Width() int {
	return v.width
}

// Height returns the current height.
func (v *View) Height() int {
	return v.height
}

// Ready returns whether the view has been sized.
func (v *View) Ready() bool {
	return v.ready
}

// Query returns the query behind the current list, empty for recent findings.
func (v *View) Query() string {
	return v.query
}

// Findings returns the findings currently listed.
func (v *View) Findings() []domain.FindingPreview {
	return v.list.Findings()
}

// SelectedIndex returns the index of the selected finding.
func (v *View) SelectedIndex() int {
	return v.list.Selected()
}

// SelectedFinding returns the selected finding, or nil.
func (v *View) SelectedFinding() *domain.FindingPreview {
	return v.list.SelectedFinding()
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// InputFocused returns whether the query input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}
