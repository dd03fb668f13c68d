// Package source defines the pluggable search sources feeding the global
// search overlay. Each source resolves a query independently; the session
// layer owns merging, capping, and staleness.
package source

import (
	"context"

	"casedesk/internal/search"
)

// Source is one search strategy. Implementations must honor ctx and return
// promptly on cancellation; a failed source never affects its peers.
type Source interface {
	Name() string
	Search(ctx context.Context, query string) ([]search.Candidate, error)
}
