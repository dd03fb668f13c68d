package source

import (
	"context"
	"strings"

	"casedesk/internal/search"
	"casedesk/internal/store"
)

// defaultPoolSize bounds how many recent matters are considered per query.
const defaultPoolSize = 200

// Lister supplies the bounded matter pool the filter runs over.
// Interface for dependency injection: production wires the SQLite cache,
// and a future server-side matter search only has to swap the Source.
type Lister interface {
	RecentMatters(limit int) ([]store.Matter, error)
}

// Matters searches matters client-side: a substring filter over a bounded
// pool of recent matters. Deliberately simpler than the clients source -
// the backend has no matter search endpoint yet.
type Matters struct {
	lister Lister
	pool   int
}

// NewMatters creates the matter source over the given pool supplier.
// poolSize <= 0 uses the default bound.
func NewMatters(lister Lister, poolSize int) *Matters {
	if poolSize <= 0 {
		poolSize = defaultPoolSize
	}
	return &Matters{lister: lister, pool: poolSize}
}

// Name implements Source.
func (m *Matters) Name() string { return "matters" }

// Search implements Source with a case-insensitive substring match against
// two fields: the matter's ref/title and its client name.
func (m *Matters) Search(ctx context.Context, query string) ([]search.Candidate, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	pool, err := m.lister.RecentMatters(m.pool)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	var candidates []search.Candidate
	for _, matter := range pool {
		if !matches(matter, needle) {
			continue
		}
		candidates = append(candidates, search.Candidate{
			ID:       matter.ID,
			Title:    matter.Ref + " " + matter.Title,
			Subtitle: matter.ClientName,
		})
	}
	return candidates, nil
}

// matches checks the two searched fields. Ref and title form one logical
// field the way they are displayed together.
func matches(m store.Matter, needle string) bool {
	if strings.Contains(strings.ToLower(m.Ref+" "+m.Title), needle) {
		return true
	}
	return strings.Contains(strings.ToLower(m.ClientName), needle)
}
