package ui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"casedesk/internal/search"
	"casedesk/internal/source"
)

// fakeSource implements source.Source with canned results.
type fakeSource struct {
	name    string
	results []search.Candidate
	err     error
	calls   int
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Search(ctx context.Context, query string) ([]search.Candidate, error) {
	f.calls++
	return f.results, f.err
}

func testOpts() OverlayOptions {
	return OverlayOptions{
		Debounce:      300 * time.Millisecond,
		MinQueryLen:   2,
		MaxPerSource:  5,
		SourceTimeout: time.Second,
	}
}

func newTestOverlay(sources ...source.Source) Overlay {
	ov := NewOverlay(sources, testOpts())
	ov.SetWidth(80)
	ov.Activate()
	return ov
}

func typeString(t *testing.T, ov Overlay, s string) Overlay {
	t.Helper()
	for _, r := range s {
		ov, _, _ = ov.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return ov
}

func TestTypingArmsDebounceWithoutDispatch(t *testing.T) {
	clients := &fakeSource{name: "clients"}
	ov := newTestOverlay(clients)

	ov = typeString(t, ov, "sm")

	if clients.calls != 0 {
		t.Errorf("source searched %d times before debounce fired, want 0", clients.calls)
	}
	if ov.Session().Searching() {
		t.Error("session searching before debounce fired")
	}
}

func TestStaleDebounceTimerIgnored(t *testing.T) {
	clients := &fakeSource{name: "clients"}
	ov := newTestOverlay(clients)

	ov = typeString(t, ov, "sm")
	staleSeq := ov.debounceSeq
	ov = typeString(t, ov, "i") // supersedes the pending timer

	ov, cmd, _ := ov.Update(searchDebounceMsg{Seq: staleSeq})
	if cmd != nil {
		t.Error("stale debounce timer produced a dispatch command")
	}
	if ov.Session().Searching() {
		t.Error("stale debounce timer started a search")
	}
}

func TestDebounceFireDispatchesAllSources(t *testing.T) {
	clients := &fakeSource{name: "clients"}
	matters := &fakeSource{name: "matters"}
	ov := newTestOverlay(clients, matters)

	ov = typeString(t, ov, "smith")

	ov, cmd, _ := ov.Update(searchDebounceMsg{Seq: ov.debounceSeq})
	if cmd == nil {
		t.Fatal("current debounce timer produced no dispatch")
	}
	if !ov.Session().Searching() {
		t.Error("session not searching after dispatch")
	}
	if got := ov.Session().SourceStatus("clients"); got != search.StatusPending {
		t.Errorf("clients status = %v after dispatch, want pending", got)
	}
	if got := ov.Session().SourceStatus("matters"); got != search.StatusPending {
		t.Errorf("matters status = %v after dispatch, want pending", got)
	}
	if ov.Session().Query() != "smith" {
		t.Errorf("session query = %q, want smith", ov.Session().Query())
	}
}

func TestSearchCmdProducesStampedResult(t *testing.T) {
	clients := &fakeSource{name: "clients", results: []search.Candidate{{ID: "cl-1", Title: "Ana Smith"}}}
	ov := newTestOverlay(clients)

	cmd := ov.searchCmd(7, clients, "smith")
	msg := cmd()

	res, ok := msg.(SearchResult)
	if !ok {
		t.Fatalf("searchCmd produced %T, want SearchResult", msg)
	}
	if res.Gen != 7 || res.Source != "clients" {
		t.Errorf("result = gen %d source %q, want gen 7 clients", res.Gen, res.Source)
	}
	if len(res.Items) != 1 || res.Items[0].ID != "cl-1" {
		t.Errorf("result items = %+v", res.Items)
	}
}

func TestSearchCmdCarriesSourceError(t *testing.T) {
	wantErr := errors.New("backend down")
	clients := &fakeSource{name: "clients", err: wantErr}
	ov := newTestOverlay(clients)

	msg := ov.searchCmd(1, clients, "smith")()
	res := msg.(SearchResult)
	if !errors.Is(res.Err, wantErr) {
		t.Errorf("result err = %v, want source error", res.Err)
	}
}

func TestBelowMinimumClearsSynchronously(t *testing.T) {
	clients := &fakeSource{name: "clients"}
	ov := newTestOverlay(clients)

	ov = typeString(t, ov, "sm")
	ov, _, _ = ov.Update(searchDebounceMsg{Seq: ov.debounceSeq})
	gen := ov.Session().Generation()
	ov.acceptResult(SearchResult{Gen: gen, Source: "clients", Items: []search.Candidate{{ID: "cl-1", Title: "Ana"}}})

	if ov.Session().Len() != 1 {
		t.Fatal("setup: expected one result")
	}

	// Backspace down to one character: clear with no timer.
	ov, cmd, _ := ov.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	if ov.Session().Len() != 0 {
		t.Errorf("results not cleared on drop below minimum: %d entries", ov.Session().Len())
	}
	// The returned batch may carry input cursor commands but must not arm a
	// timer; the in-flight fence is the generation bump, checked below.
	_ = cmd
	if ov.Session().Accept(gen, "clients", []search.Candidate{{ID: "late"}}, nil) {
		t.Error("in-flight result accepted after below-minimum clear")
	}
}

func TestLateResultAfterRetypeDiscarded(t *testing.T) {
	clients := &fakeSource{name: "clients"}
	ov := newTestOverlay(clients)

	ov = typeString(t, ov, "sm")
	ov, _, _ = ov.Update(searchDebounceMsg{Seq: ov.debounceSeq})
	oldGen := ov.Session().Generation()

	ov = typeString(t, ov, "ith")
	ov, _, _ = ov.Update(searchDebounceMsg{Seq: ov.debounceSeq})

	// The slow response for the old query lands now.
	ov, _, _ = ov.Update(SearchResult{Gen: oldGen, Source: "clients", Items: []search.Candidate{{ID: "stale"}}})
	if ov.Session().Len() != 0 {
		t.Errorf("stale result populated the session: %d entries", ov.Session().Len())
	}

	// The current response still lands fine.
	curGen := ov.Session().Generation()
	ov, _, _ = ov.Update(SearchResult{Gen: curGen, Source: "clients", Items: []search.Candidate{{ID: "fresh", Title: "Ana"}}})
	merged := ov.Session().Merged()
	if len(merged) != 1 || merged[0].ID != "fresh" {
		t.Errorf("merged = %+v, want single fresh entry", merged)
	}
}

func TestEscapeClosesAndDiscards(t *testing.T) {
	clients := &fakeSource{name: "clients"}
	ov := newTestOverlay(clients)

	ov = typeString(t, ov, "smith")
	ov, _, _ = ov.Update(searchDebounceMsg{Seq: ov.debounceSeq})
	gen := ov.Session().Generation()

	ov, _, commit := ov.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if commit != nil {
		t.Error("escape produced a commit")
	}
	if ov.IsActive() {
		t.Error("overlay still active after escape")
	}

	// The in-flight result arrives after close and must vanish quietly.
	ov, _, _ = ov.Update(SearchResult{Gen: gen, Source: "clients", Items: []search.Candidate{{ID: "late"}}})
	if ov.Session().Len() != 0 {
		t.Error("post-close result leaked into the session")
	}
}

func TestEnterCommitsSelectionAndCloses(t *testing.T) {
	clients := &fakeSource{name: "clients"}
	matters := &fakeSource{name: "matters"}
	ov := newTestOverlay(clients, matters)

	ov = typeString(t, ov, "smith")
	ov, _, _ = ov.Update(searchDebounceMsg{Seq: ov.debounceSeq})
	gen := ov.Session().Generation()
	ov, _, _ = ov.Update(SearchResult{Gen: gen, Source: "clients", Items: []search.Candidate{{ID: "cl-1", Title: "Ana Smith"}}})
	ov, _, _ = ov.Update(SearchResult{Gen: gen, Source: "matters", Items: []search.Candidate{{ID: "m-1", Title: "Smith v. Jones"}}})

	// Move onto the matters entry, then commit.
	ov, _, _ = ov.Update(tea.KeyMsg{Type: tea.KeyDown})
	ov, _, commit := ov.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if commit == nil {
		t.Fatal("enter on a selection produced no commit")
	}
	if commit.Source != "matters" || commit.ID != "m-1" {
		t.Errorf("commit = %+v, want {matters m-1}", *commit)
	}
	if ov.IsActive() {
		t.Error("overlay still active after commit")
	}
}

func TestEnterWithNoResultsIsNoop(t *testing.T) {
	clients := &fakeSource{name: "clients"}
	ov := newTestOverlay(clients)

	ov = typeString(t, ov, "smith")
	ov, _, commit := ov.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if commit != nil {
		t.Error("enter with empty merge produced a commit")
	}
	if !ov.IsActive() {
		t.Error("overlay closed on a no-op commit")
	}
}

func TestArrowKeysMoveSelection(t *testing.T) {
	clients := &fakeSource{name: "clients"}
	ov := newTestOverlay(clients)

	ov = typeString(t, ov, "smith")
	ov, _, _ = ov.Update(searchDebounceMsg{Seq: ov.debounceSeq})
	gen := ov.Session().Generation()
	ov, _, _ = ov.Update(SearchResult{Gen: gen, Source: "clients", Items: []search.Candidate{
		{ID: "a", Title: "A"}, {ID: "b", Title: "B"},
	}})

	ov, _, _ = ov.Update(tea.KeyMsg{Type: tea.KeyDown})
	if ov.Session().SelectedIndex() != 1 {
		t.Errorf("cursor = %d after down, want 1", ov.Session().SelectedIndex())
	}
	ov, _, _ = ov.Update(tea.KeyMsg{Type: tea.KeyDown}) // clamp at last
	if ov.Session().SelectedIndex() != 1 {
		t.Errorf("cursor = %d after down at bottom, want clamp at 1", ov.Session().SelectedIndex())
	}
	ov, _, _ = ov.Update(tea.KeyMsg{Type: tea.KeyUp})
	if ov.Session().SelectedIndex() != 0 {
		t.Errorf("cursor = %d after up, want 0", ov.Session().SelectedIndex())
	}
}

func TestPartialFailureStillRendersHealthySource(t *testing.T) {
	clients := &fakeSource{name: "clients"}
	matters := &fakeSource{name: "matters"}
	ov := newTestOverlay(clients, matters)

	ov = typeString(t, ov, "smith")
	ov, _, _ = ov.Update(searchDebounceMsg{Seq: ov.debounceSeq})
	gen := ov.Session().Generation()
	ov, _, _ = ov.Update(SearchResult{Gen: gen, Source: "clients", Err: errors.New("upstream 500")})
	ov, _, _ = ov.Update(SearchResult{Gen: gen, Source: "matters", Items: []search.Candidate{{ID: "m-1", Title: "Smith v. Jones"}}})

	merged := ov.Session().Merged()
	if len(merged) != 1 || merged[0].Source != "matters" {
		t.Errorf("merged = %+v, want only the matters entry", merged)
	}
	if _, ok := ov.Session().Selected(); !ok {
		t.Error("no selection despite a healthy source having results")
	}
}
