package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/shinyobjectz/beans/internal/adapters/driving/tui/keymap"
	"github.com/shinyobjectz/beans/internal/adapters/driving/tui/messages"
	"github.com/shinyobjectz/beans/internal/adapters/driving/tui/styles"
	"github.com/shinyobjectz/beans/internal/adapters/driving/tui/views/detail"
	"github.com/shinyobjectz/beans/internal/adapters/driving/tui/views/search"
	"github.com/shinyobjectz/beans/internal/core/domain"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports *Ports
	ctx   context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap

	searchView *search.View
	detailView *detail.View

	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		keymap:      km,
		searchView:  search.NewView(s, km, ports.Research),
		detailView:  detail.NewView(s, km),
		currentView: messages.ViewSearch,
	}, nil
}

// WithContext sets the context used for service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.searchView.WithContext(ctx)
	return a
}

// Init implements tea.Model. It loads the most recent findings.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("beans research"),
		a.searchView.Init(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		switch a.currentView {
		case messages.ViewSearch:
			a.searchView, cmd = a.searchView.Update(msg)
		case messages.ViewDetail:
			a.detailView, cmd = a.detailView.Update(msg)
		case messages.ViewHelp:
			if keymap.Matches(msg.String(), a.keymap.Quit) {
				return a, tea.Quit
			}
			a.currentView = messages.ViewSearch
		}
		return a, cmd

	case messages.FindingsLoaded, messages.SearchCompleted:
		a.searchView, cmd = a.searchView.Update(msg)
		a.err = a.searchView.Err()
		return a, cmd

	case messages.FindingSelected:
		return a, a.loadFinding(msg.ID)

	case messages.FindingLoaded:
		if msg.Err != nil {
			return a.Update(messages.ErrorOccurred{Err: msg.Err})
		}
		a.err = nil
		a.detailView.SetFinding(msg.Finding)
		a.currentView = messages.ViewDetail
		return a, nil

	case messages.ViewChanged:
		a.currentView = msg.View
		return a, nil

	case messages.ErrorOccurred:
		a.err = msg.Err
		// Errors are reported on the search view's status bar.
		a.currentView = messages.ViewSearch
		a.searchView, cmd = a.searchView.Update(msg)
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	switch a.currentView {
	case messages.ViewSearch:
		a.searchView, cmd = a.searchView.Update(msg)
	case messages.ViewDetail:
		a.detailView, cmd = a.detailView.Update(msg)
	case messages.ViewHelp:
	}
	return a, cmd
}

func (a *App) loadFinding(id string) tea.Cmd {
	research, ctx := a.ports.Research, a.ctx
	return func() tea.Msg {
		f, err := research.Show(ctx, id)
		if err != nil {
			return messages.FindingLoaded{Err: err}
		}
		if f == nil {
			return messages.FindingLoaded{Err: fmt.Errorf("research %s %w", id, domain.ErrNotFound)}
		}
		return messages.FindingLoaded{Finding: f}
	}
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewDetail:
		return a.detailView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	case messages.ViewSearch:
		return a.searchView.View()
	default:
		return a.searchView.View()
	}
}

func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")
	for _, group := range a.keymap.FullHelp() {
		for _, k := range group {
			h := k.Help()
			fmt.Fprintf(&b, "  %-10s %s\n", h.Key, h.Desc)
		}
		b.WriteString("\n")
	}
	b.WriteString(a.styles.Subtitle.Render("Query syntax"))
	b.WriteString(`
  rate limit        both words
  "token bucket"    exact phrase
  limit*            prefix
  redis OR memcache either word
  -redis            exclude a word

`)
	b.WriteString(a.styles.Help.Render("press any key to return"))
	return b.String()
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Findings returns the findings listed in the search view.
func (a *App) Findings() []domain.FindingPreview {
	return a.searchView.Findings()
}

// Query returns the query behind the listed findings.
func (a *App) Query() string {
	return a.searchView.Query()
}

// Finding returns the finding shown in the detail view.
func (a *App) Finding() *domain.Finding {
	return a.detailView.Finding()
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been sized.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.searchView.SetDimensions(width, height)
	a.detailView.SetDimensions(width, height)
}
