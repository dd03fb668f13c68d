package source

import (
	"context"

	"casedesk/internal/api"
	"casedesk/internal/search"
)

// clientSearcher is the slice of the API client this source needs.
// Interface for dependency injection (testing).
type clientSearcher interface {
	SearchClients(ctx context.Context, query string) ([]api.ClientRecord, error)
}

// Clients searches the server-side client directory. This is the primary
// source: the backend owns matching, we just relay the query.
type Clients struct {
	api clientSearcher
}

// NewClients creates the client-directory source backed by the given API client.
func NewClients(c *api.Client) *Clients {
	return NewClientsWithSearcher(c)
}

// NewClientsWithSearcher allows injecting a custom searcher (for testing).
func NewClientsWithSearcher(c clientSearcher) *Clients {
	return &Clients{api: c}
}

// Name implements Source.
func (c *Clients) Name() string { return "clients" }

// Search implements Source by delegating to the backend.
func (c *Clients) Search(ctx context.Context, query string) ([]search.Candidate, error) {
	records, err := c.api.SearchClients(ctx, query)
	if err != nil {
		return nil, err
	}

	candidates := make([]search.Candidate, 0, len(records))
	for _, r := range records {
		candidates = append(candidates, search.Candidate{
			ID:       r.ID,
			Title:    r.Name,
			Subtitle: r.Email,
		})
	}
	return candidates, nil
}
