package ui

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"casedesk/internal/store"
)

// RenderMatters renders the recent-matters list.
// Returns the rendered string for display.
func RenderMatters(matters []store.Matter, cursor int, width, height int) string {
	if len(matters) == 0 {
		return HelpStyle.Render("No matters cached yet. The list fills in after the first refresh.")
	}

	var b strings.Builder
	renderedLines := 0

	// Reserve 1 line for the status bar
	availableHeight := height - 1
	if availableHeight < 1 {
		availableHeight = 1
	}

	// Scroll offset keeps the cursor visible
	scrollOffset := 0
	if cursor >= availableHeight {
		scrollOffset = cursor - availableHeight + 1
	}

	for i, m := range matters {
		if i < scrollOffset {
			continue
		}
		if renderedLines >= availableHeight {
			break
		}

		b.WriteString(renderMatterLine(m, i == cursor, width))
		b.WriteString("\n")
		renderedLines++
	}

	return b.String()
}

// renderMatterLine renders a single matter row: ref, title, client, age.
func renderMatterLine(m store.Matter, selected bool, width int) string {
	refColWidth := 14
	ref := m.Ref
	if utf8.RuneCountInString(ref) > refColWidth {
		runes := []rune(ref)
		ref = string(runes[:refColWidth-1]) + "…"
	}
	refPad := refColWidth - utf8.RuneCountInString(ref)
	if refPad < 0 {
		refPad = 0
	}
	refField := ref + strings.Repeat(" ", refPad)

	age := formatAge(m.OpenedAt)
	ageWidth := 8

	// Truncate title to fit between ref column and age column
	titleWidth := width - refColWidth - ageWidth - len(m.ClientName) - 8
	if titleWidth < 20 {
		titleWidth = 20
	}
	title := m.Title
	if utf8.RuneCountInString(title) > titleWidth {
		runes := []rune(title)
		title = string(runes[:titleWidth-3]) + "..."
	}

	var style lipgloss.Style
	if selected {
		style = SelectedItem
	} else {
		style = NormalItem
	}

	left := MetaItem.Render(refField) + style.Render(title) + MetaItem.Render(" · "+m.ClientName)
	leftWidth := lipgloss.Width(left)
	padding := width - leftWidth - ageWidth - 1
	if padding < 0 {
		padding = 0
	}

	return left + strings.Repeat(" ", padding) + MetaItem.Render(age)
}

// RenderDetail renders the matter detail pane.
func RenderDetail(m store.Matter, width int) string {
	var b strings.Builder

	b.WriteString(DetailTitle.Render(m.Ref + "  " + m.Title))
	b.WriteString("\n\n")
	b.WriteString(DetailLabel.Render("Client:") + " " + m.ClientName + "\n")
	b.WriteString(DetailLabel.Render("Status:") + " " + m.Status + "\n")
	b.WriteString(DetailLabel.Render("Opened:") + " " + m.OpenedAt.Format("2006-01-02") + " (" + formatAge(m.OpenedAt) + ")\n")
	b.WriteString("\n")
	b.WriteString(OverlayHint.Render("esc back"))

	return lipgloss.NewStyle().Width(width).Render(b.String())
}

// formatAge formats elapsed time compactly.
func formatAge(t time.Time) string {
	age := time.Since(t)
	switch {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(age.Hours()/24))
	}
}

// RenderStatusBar renders the bottom status bar with key hints and position.
func RenderStatusBar(cursor, total int, width int, refreshing bool) string {
	var position string
	if refreshing {
		position = " Refreshing... "
	} else {
		position = fmt.Sprintf(" %d/%d ", cursor+1, total)
	}

	keys := []string{
		StatusBarKey.Render("j/k") + StatusBarText.Render(":nav"),
		StatusBarKey.Render("Enter") + StatusBarText.Render(":open"),
		StatusBarKey.Render("ctrl+k") + StatusBarText.Render(":search"),
		StatusBarKey.Render("q") + StatusBarText.Render(":quit"),
	}
	keyHints := strings.Join(keys, " ")

	leftWidth := lipgloss.Width(position)
	rightWidth := lipgloss.Width(keyHints)
	padding := width - leftWidth - rightWidth
	if padding < 0 {
		padding = 0
	}

	bar := position + strings.Repeat(" ", padding) + keyHints
	return StatusBar.Width(width).Render(bar)
}
