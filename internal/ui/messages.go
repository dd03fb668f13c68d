// Package ui provides the Bubble Tea TUI for casedesk.
package ui

import (
	"casedesk/internal/search"
	"casedesk/internal/store"
)

// MattersLoaded is sent when recent matters are read from the cache.
type MattersLoaded struct {
	Matters []store.Matter
	Err     error
}

// MatterOpened is sent when a matter's detail has been loaded after a
// search commit or a list selection.
type MatterOpened struct {
	Matter store.Matter
	Err    error
}

// CacheRefreshed is sent when a background cache warmer finishes.
type CacheRefreshed struct {
	Name  string
	Count int
	Err   error
}

// SearchResult is one source's outcome for one search generation.
// Gen is the fence: the session discards results whose generation no longer
// matches.
type SearchResult struct {
	Gen    uint64
	Source string
	Items  []search.Candidate
	Err    error
}

// searchDebounceMsg fires when a debounce timer expires. A stale Seq means
// the timer was superseded by further typing and the message is ignored.
type searchDebounceMsg struct {
	Seq int
}
