// Package search implements the global search session: a generation-fenced
// accumulator for results arriving asynchronously from multiple sources.
package search

// Candidate is a single result row offered by a source. The session treats
// it as opaque display data plus an identifier.
type Candidate struct {
	ID       string
	Title    string
	Subtitle string
}

// Entry is a candidate tagged with the source it came from, as it appears
// in the merged result list.
type Entry struct {
	Source string
	Candidate
}

// Commit is the payload produced when the user accepts a selection.
type Commit struct {
	Source string
	ID     string
}

// Status tracks a single source's progress within the current generation.
type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusFulfilled
	StatusFailed
)

// slot holds per-source state. Slot order is fixed at construction and
// determines both display order and selection linearization.
type slot struct {
	name   string
	status Status
	items  []Candidate
	err    error
}

// Session is the state of one open search overlay. It is not safe for
// concurrent use: all mutation happens on the Bubble Tea update loop, and
// out-of-order result delivery is handled by the generation fence, not locks.
type Session struct {
	open         bool
	query        string
	generation   uint64
	slots        []slot
	selected     int
	maxPerSource int
}

// NewSession creates a closed session over the given source names.
// maxPerSource caps the items retained per source on accept.
func NewSession(sources []string, maxPerSource int) *Session {
	slots := make([]slot, len(sources))
	for i, name := range sources {
		slots[i] = slot{name: name}
	}
	return &Session{slots: slots, maxPerSource: maxPerSource}
}

// Open resets the session to a pristine open state.
func (s *Session) Open() {
	s.open = true
	s.query = ""
	s.selected = 0
	s.resetSlots()
}

// Close discards the session. The generation bump invalidates any in-flight
// results so a reopened session never sees leftovers.
func (s *Session) Close() {
	s.open = false
	s.query = ""
	s.selected = 0
	s.generation++
	s.resetSlots()
}

// IsOpen reports whether the overlay session is active.
func (s *Session) IsOpen() bool {
	return s.open
}

// Query returns the query of the current generation.
func (s *Session) Query() string {
	return s.query
}

// Generation returns the current generation counter.
func (s *Session) Generation() uint64 {
	return s.generation
}

// Begin starts a new search generation for query: every source becomes
// pending and the returned generation must be stamped onto each source's
// eventual result so Accept can fence stale deliveries.
func (s *Session) Begin(query string) uint64 {
	s.generation++
	s.query = query
	s.selected = 0
	for i := range s.slots {
		s.slots[i].status = StatusPending
		s.slots[i].items = nil
		s.slots[i].err = nil
	}
	return s.generation
}

// Clear empties results and selection without closing. The generation bump
// makes any in-flight responses stale, so a query that dropped below the
// dispatch minimum can never be repopulated by a late arrival.
func (s *Session) Clear() {
	s.query = ""
	s.selected = 0
	s.generation++
	s.resetSlots()
}

// Accept records one source's outcome for generation gen. Results from a
// closed session or a superseded generation are discarded; the caller only
// needs the return value for logging. On every accepted delivery the
// selection resets to the top of the merged list.
func (s *Session) Accept(gen uint64, source string, items []Candidate, err error) bool {
	if !s.open || gen != s.generation {
		return false
	}

	sl := s.slotFor(source)
	if sl == nil {
		return false
	}

	if err != nil {
		sl.status = StatusFailed
		sl.items = nil
		sl.err = err
	} else {
		sl.status = StatusFulfilled
		if len(items) > s.maxPerSource {
			items = items[:s.maxPerSource]
		}
		sl.items = items
		sl.err = nil
	}

	s.selected = 0
	return true
}

// Searching reports whether any source of the current generation is still
// pending.
func (s *Session) Searching() bool {
	if !s.open {
		return false
	}
	for i := range s.slots {
		if s.slots[i].status == StatusPending {
			return true
		}
	}
	return false
}

// Merged returns the flat result list: each source's items concatenated in
// slot order. Failed and pending sources contribute nothing; there is no
// interleaving or re-ranking across sources.
func (s *Session) Merged() []Entry {
	var entries []Entry
	for i := range s.slots {
		for _, c := range s.slots[i].items {
			entries = append(entries, Entry{Source: s.slots[i].name, Candidate: c})
		}
	}
	return entries
}

// Len returns the size of the merged list.
func (s *Session) Len() int {
	n := 0
	for i := range s.slots {
		n += len(s.slots[i].items)
	}
	return n
}

// SelectedIndex returns the selection cursor into the merged list.
func (s *Session) SelectedIndex() int {
	return s.selected
}

// Selected returns the highlighted entry, or ok=false when the merged list
// is empty. A selection cannot exist without items.
func (s *Session) Selected() (Entry, bool) {
	merged := s.Merged()
	if len(merged) == 0 {
		return Entry{}, false
	}
	if s.selected >= len(merged) {
		return merged[len(merged)-1], true
	}
	return merged[s.selected], true
}

// MoveDown advances the selection, clamping at the last entry. No wraparound.
func (s *Session) MoveDown() {
	if s.selected < s.Len()-1 {
		s.selected++
	}
}

// MoveUp retreats the selection, clamping at the first entry. No wraparound.
func (s *Session) MoveUp() {
	if s.selected > 0 {
		s.selected--
	}
}

// CommitSelection resolves the highlighted entry into a Commit payload.
// Returns ok=false on an empty merged list; committing nothing is a no-op.
func (s *Session) CommitSelection() (Commit, bool) {
	entry, ok := s.Selected()
	if !ok {
		return Commit{}, false
	}
	return Commit{Source: entry.Source, ID: entry.ID}, true
}

// SourceStatus returns the status of the named source, StatusIdle for
// unknown names.
func (s *Session) SourceStatus(name string) Status {
	if sl := s.slotFor(name); sl != nil {
		return sl.status
	}
	return StatusIdle
}

// SourceErr returns the recorded error for a failed source, nil otherwise.
func (s *Session) SourceErr(name string) error {
	if sl := s.slotFor(name); sl != nil {
		return sl.err
	}
	return nil
}

// Sources returns the configured source names in slot order.
func (s *Session) Sources() []string {
	names := make([]string, len(s.slots))
	for i := range s.slots {
		names[i] = s.slots[i].name
	}
	return names
}

// SourceItems returns the accepted items for the named source.
func (s *Session) SourceItems(name string) []Candidate {
	if sl := s.slotFor(name); sl != nil {
		return sl.items
	}
	return nil
}

func (s *Session) slotFor(name string) *slot {
	for i := range s.slots {
		if s.slots[i].name == name {
			return &s.slots[i]
		}
	}
	return nil
}

func (s *Session) resetSlots() {
	for i := range s.slots {
		s.slots[i].status = StatusIdle
		s.slots[i].items = nil
		s.slots[i].err = nil
	}
}
