package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"casedesk/internal/store"
)

// AppConfig wires the App to its environment. Commands are injected so the
// App never touches the store or backend directly.
type AppConfig struct {
	// LoadMatters returns a Cmd that reads recent matters from the cache.
	LoadMatters func() tea.Cmd

	// OpenMatter returns a Cmd that resolves a search commit or list pick
	// into a MatterOpened message. source names where the id came from.
	OpenMatter func(source, id string) tea.Cmd

	// Overlay is the pre-built global search overlay.
	Overlay Overlay
}

// App is the root Bubble Tea model: the recent-matters list, the detail
// pane, and the global search overlay stacked on top.
// IMPORTANT: App does NOT hold *store.Store. It receives data via messages.
type App struct {
	loadMatters func() tea.Cmd
	openMatter  func(source, id string) tea.Cmd

	overlay Overlay

	matters    []store.Matter
	cursor     int
	detail     *store.Matter
	err        error
	width      int
	height     int
	ready      bool
	refreshing bool
}

// NewApp creates the root model from its wiring config.
func NewApp(cfg AppConfig) App {
	return App{
		loadMatters: cfg.LoadMatters,
		openMatter:  cfg.OpenMatter,
		overlay:     cfg.Overlay,
	}
}

// Init initializes the App by loading the cached matter list.
func (a App) Init() tea.Cmd {
	if a.loadMatters != nil {
		return a.loadMatters()
	}
	return nil
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// While the overlay is open it consumes key input before any app-level
	// binding; search results and debounce ticks are its messages in any
	// state.
	switch msg.(type) {
	case tea.KeyMsg:
		if a.overlay.IsActive() {
			return a.updateOverlay(msg)
		}
	case SearchResult, searchDebounceMsg:
		return a.updateOverlay(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.overlay.SetWidth(msg.Width)
		a.ready = true
		return a, nil

	case MattersLoaded:
		if msg.Err != nil {
			a.err = msg.Err
		} else {
			a.matters = msg.Matters
			a.err = nil
			// Clamp cursor against the refreshed list
			if a.cursor >= len(a.matters) && len(a.matters) > 0 {
				a.cursor = len(a.matters) - 1
			}
		}
		return a, nil

	case MatterOpened:
		if msg.Err != nil {
			a.err = msg.Err
			return a, nil
		}
		m := msg.Matter
		a.detail = &m
		return a, nil

	case CacheRefreshed:
		a.refreshing = false
		if msg.Err != nil {
			a.err = msg.Err
		} else if msg.Count > 0 && a.loadMatters != nil {
			// Reload the list so fresh matters show up
			return a, a.loadMatters()
		}
		return a, nil
	}

	// Remaining messages (spinner ticks, input blink) belong to the overlay.
	if a.overlay.IsActive() {
		return a.updateOverlay(msg)
	}

	return a, nil
}

// updateOverlay routes a message through the overlay and executes any
// resulting commit.
func (a App) updateOverlay(msg tea.Msg) (tea.Model, tea.Cmd) {
	overlay, cmd, commit := a.overlay.Update(msg)
	a.overlay = overlay

	if commit != nil && a.openMatter != nil {
		return a, tea.Batch(cmd, a.openMatter(commit.Source, commit.ID))
	}
	return a, cmd
}

// handleKeyMsg processes keyboard input with the overlay closed.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Clear any existing error on key press
	if a.err != nil {
		a.err = nil
	}

	// Detail pane swallows navigation until dismissed
	if a.detail != nil {
		switch msg.String() {
		case "esc", "q":
			a.detail = nil
			return a, nil
		case "ctrl+c":
			return a, tea.Quit
		}
		return a, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit

	case "j", "down":
		if a.cursor < len(a.matters)-1 {
			a.cursor++
		}
		return a, nil

	case "k", "up":
		if a.cursor > 0 {
			a.cursor--
		}
		return a, nil

	case "g", "home":
		a.cursor = 0
		return a, nil

	case "G", "end":
		if len(a.matters) > 0 {
			a.cursor = len(a.matters) - 1
		}
		return a, nil

	case "enter":
		if len(a.matters) > 0 && a.cursor < len(a.matters) {
			m := a.matters[a.cursor]
			if a.openMatter != nil {
				return a, a.openMatter("matters", m.ID)
			}
		}
		return a, nil

	case "r":
		if a.loadMatters != nil {
			return a, a.loadMatters()
		}
		return a, nil

	case "ctrl+k", "/":
		return a, a.overlay.Activate()
	}

	return a, nil
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	if a.overlay.IsActive() {
		return a.overlay.View()
	}

	if a.detail != nil {
		return RenderDetail(*a.detail, a.width)
	}

	contentHeight := a.height - 1
	if a.err != nil {
		contentHeight--
	}

	list := RenderMatters(a.matters, a.cursor, a.width, contentHeight)

	errorBar := ""
	if a.err != nil {
		errorBar = ErrorStyle.Width(a.width).Render("Error: " + a.err.Error() + " (press any key to dismiss)")
	}

	statusBar := RenderStatusBar(a.cursor, len(a.matters), a.width, a.refreshing)

	return list + errorBar + statusBar
}

// Cursor returns the current cursor position (for testing).
func (a App) Cursor() int {
	return a.cursor
}

// Matters returns the current matter list (for testing).
func (a App) Matters() []store.Matter {
	return a.matters
}

// Detail returns the open detail pane, nil when closed (for testing).
func (a App) Detail() *store.Matter {
	return a.detail
}

// SearchActive reports whether the overlay is open (for testing).
func (a App) SearchActive() bool {
	return a.overlay.IsActive()
}
