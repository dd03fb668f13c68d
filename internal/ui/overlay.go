package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"casedesk/internal/logging"
	"casedesk/internal/search"
	"casedesk/internal/source"
)

// maxVisibleResults caps the overlay's result viewport.
const maxVisibleResults = 12

// OverlayOptions tune the search overlay's behavior.
type OverlayOptions struct {
	Debounce      time.Duration // quiescence window before dispatch
	MinQueryLen   int           // queries shorter than this never dispatch
	MaxPerSource  int           // result cap per source
	SourceTimeout time.Duration // per-source search timeout
}

// Overlay is the global search overlay: a text input over a generation-fenced
// result session. It owns debounce timing and dispatch; the session owns
// result state.
type Overlay struct {
	input   textinput.Model
	spinner spinner.Model
	session *search.Session
	sources []source.Source

	debounceSeq int // bumped on every input change; stale timers carry old values
	opts        OverlayOptions
	width       int
}

// NewOverlay creates an inactive overlay over the given sources. Source
// order fixes display order and selection linearization.
func NewOverlay(sources []source.Source, opts OverlayOptions) Overlay {
	ti := textinput.New()
	ti.Placeholder = "Search clients and matters..."
	ti.Prompt = "/ "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(colorHighlight).Bold(true)
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(colorHighlight)
	ti.CharLimit = 64

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorHighlight)

	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.Name()
	}

	return Overlay{
		input:   ti,
		spinner: sp,
		session: search.NewSession(names, opts.MaxPerSource),
		sources: sources,
		opts:    opts,
	}
}

// Activate opens the overlay with a pristine session and a focused input.
func (o *Overlay) Activate() tea.Cmd {
	o.session.Open()
	o.input.SetValue("")
	o.input.Focus()
	o.debounceSeq++
	return textinput.Blink
}

// Deactivate closes the overlay and discards the session. Pending debounce
// timers are superseded; in-flight requests die at the fence.
func (o *Overlay) Deactivate() {
	o.session.Close()
	o.input.Blur()
	o.debounceSeq++
}

// IsActive returns whether the overlay is showing.
func (o Overlay) IsActive() bool {
	return o.session.IsOpen()
}

// SetWidth sets the overlay width.
func (o *Overlay) SetWidth(w int) {
	o.width = w
	o.input.Width = w - 10
}

// Session exposes the result session (for rendering and tests).
func (o Overlay) Session() *search.Session {
	return o.session
}

// Update handles input while the overlay is active. The returned commit is
// non-nil exactly when the user accepted a selection; the overlay has
// already closed itself in that case.
func (o Overlay) Update(msg tea.Msg) (Overlay, tea.Cmd, *search.Commit) {
	if !o.IsActive() {
		// A closed overlay still fences late search results so they are
		// consumed here rather than leaking to the app.
		if res, ok := msg.(SearchResult); ok {
			o.acceptResult(res)
		}
		return o, nil, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			o.Deactivate()
			return o, nil, nil

		case "enter":
			commit, ok := o.session.CommitSelection()
			if !ok {
				return o, nil, nil
			}
			o.Deactivate()
			return o, nil, &commit

		case "up", "ctrl+p":
			o.session.MoveUp()
			return o, nil, nil

		case "down", "ctrl+n":
			o.session.MoveDown()
			return o, nil, nil
		}

	case searchDebounceMsg:
		if msg.Seq != o.debounceSeq {
			// Superseded by further typing, clearing, or close.
			return o, nil, nil
		}
		return o, o.dispatch(), nil

	case SearchResult:
		o.acceptResult(msg)
		return o, nil, nil

	case spinner.TickMsg:
		if !o.session.Searching() {
			return o, nil, nil
		}
		var cmd tea.Cmd
		o.spinner, cmd = o.spinner.Update(msg)
		return o, cmd, nil
	}

	// Everything else flows to the text input.
	oldValue := o.input.Value()

	var cmd tea.Cmd
	o.input, cmd = o.input.Update(msg)

	if o.input.Value() != oldValue {
		return o, tea.Batch(cmd, o.queryChanged()), nil
	}

	return o, cmd, nil
}

// queryChanged reacts to an edited query: below the minimum length results
// clear synchronously with no timer; at or above it a fresh debounce window
// starts, superseding any pending one.
func (o *Overlay) queryChanged() tea.Cmd {
	o.debounceSeq++

	if len([]rune(strings.TrimSpace(o.input.Value()))) < o.opts.MinQueryLen {
		o.session.Clear()
		return nil
	}

	return debounceSearch(o.debounceSeq, o.opts.Debounce)
}

// debounceSearch arms the quiescence timer for the given sequence number.
func debounceSearch(seq int, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return searchDebounceMsg{Seq: seq}
	})
}

// dispatch starts a new search generation: every source gets its own command
// stamped with the generation, fired in parallel and awaited independently.
func (o *Overlay) dispatch() tea.Cmd {
	query := strings.TrimSpace(o.input.Value())
	if len([]rune(query)) < o.opts.MinQueryLen {
		return nil
	}

	gen := o.session.Begin(query)
	logging.Debug("search dispatch", "gen", gen, "query", query)

	cmds := make([]tea.Cmd, 0, len(o.sources)+1)
	for _, src := range o.sources {
		cmds = append(cmds, o.searchCmd(gen, src, query))
	}
	cmds = append(cmds, o.spinner.Tick)
	return tea.Batch(cmds...)
}

// searchCmd runs one source's search off the update loop. The command holds
// its own timeout context; nothing aborts it early, the fence handles
// whatever it eventually returns.
func (o Overlay) searchCmd(gen uint64, src source.Source, query string) tea.Cmd {
	timeout := o.opts.SourceTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		items, err := src.Search(ctx, query)
		return SearchResult{Gen: gen, Source: src.Name(), Items: items, Err: err}
	}
}

// acceptResult feeds one source result through the session fence.
func (o *Overlay) acceptResult(res SearchResult) {
	accepted := o.session.Accept(res.Gen, res.Source, res.Items, res.Err)
	if !accepted {
		// Stale or post-close delivery. Expected during fast typing, so
		// debug only.
		logging.Debug("search result discarded", "gen", res.Gen, "source", res.Source)
		return
	}
	if res.Err != nil {
		logging.Warn("search source failed", "source", res.Source, "err", res.Err)
	}
}

// View renders the overlay.
func (o Overlay) View() string {
	if !o.IsActive() {
		return ""
	}

	var b strings.Builder

	b.WriteString(o.input.View())
	if o.session.Searching() {
		b.WriteString(" ")
		b.WriteString(o.spinner.View())
	}
	b.WriteString("\n")

	dividerWidth := o.width - 8
	if dividerWidth < 0 {
		dividerWidth = 0
	}
	b.WriteString(OverlayDivider.Render(strings.Repeat("─", dividerWidth)))
	b.WriteString("\n")

	o.renderResults(&b)

	b.WriteString(OverlayHint.Render("↑↓ navigate  enter open  esc cancel"))

	return OverlayContainer.Width(o.width - 4).Render(b.String())
}

// renderResults writes the merged result list grouped under source headers.
// Entries appear strictly in source order; the selection index runs across
// groups.
func (o Overlay) renderResults(b *strings.Builder) {
	merged := o.session.Merged()

	if len(merged) == 0 {
		switch {
		case o.session.Searching():
			b.WriteString(HelpStyle.Render("Searching..."))
		case o.session.Query() == "":
			b.WriteString(HelpStyle.Render("Type at least 2 characters to search"))
		default:
			b.WriteString(HelpStyle.Render("No matches for \"" + o.session.Query() + "\""))
		}
		b.WriteString("\n")
		return
	}

	selected := o.session.SelectedIndex()
	rendered := 0
	idx := 0
	for _, name := range o.session.Sources() {
		items := o.session.SourceItems(name)
		if len(items) == 0 {
			continue
		}
		if rendered >= maxVisibleResults {
			break
		}

		b.WriteString(SourceHeader.Render(name))
		b.WriteString("\n")

		for _, c := range items {
			if rendered >= maxVisibleResults {
				break
			}
			line := o.renderEntry(c, idx == selected)
			b.WriteString(line)
			b.WriteString("\n")
			idx++
			rendered++
		}
	}
}

// renderEntry renders a single candidate row.
func (o Overlay) renderEntry(c search.Candidate, selected bool) string {
	title := c.Title
	if selected {
		title = SelectedItem.Render("› " + title)
	} else {
		title = NormalItem.Render("  " + title)
	}
	if c.Subtitle == "" {
		return title
	}
	return title + MetaItem.Render(" "+c.Subtitle)
}
