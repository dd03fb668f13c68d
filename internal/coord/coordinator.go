// Package coord provides background cache refresh coordination for casedesk.
package coord

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"casedesk/internal/store"
	"casedesk/internal/ui"
)

// defaultRefreshInterval is the time between refresh cycles.
const defaultRefreshInterval = 5 * time.Minute

// refreshTimeout is the timeout for each individual warmer.
const refreshTimeout = 30 * time.Second

// maxConcurrentRefreshes limits parallel warmer runs.
const maxConcurrentRefreshes = 4

// Warmer is one refreshable cache slice. Warm fetches from the backend,
// writes to the local store, and returns the number of rows written.
type Warmer interface {
	Name() string
	Warm(ctx context.Context) (int, error)
}

// Coordinator manages background cache refreshing.
// Uses context cancellation as the ONLY stop mechanism.
type Coordinator struct {
	warmers  []Warmer // IMMUTABLE: set at construction, never modified
	interval time.Duration
	wg       sync.WaitGroup
}

// NewCoordinator creates a Coordinator over the given warmers.
// interval <= 0 uses the default refresh interval.
func NewCoordinator(warmers []Warmer, interval time.Duration) *Coordinator {
	if interval <= 0 {
		interval = defaultRefreshInterval
	}

	// Copy warmers slice to ensure immutability
	warmersCopy := make([]Warmer, len(warmers))
	copy(warmersCopy, warmers)

	return &Coordinator{
		warmers:  warmersCopy,
		interval: interval,
	}
}

// Start begins background refreshing. Call with a cancellable context.
// Performs an initial refresh immediately, then on every interval tick.
func (c *Coordinator) Start(ctx context.Context, program *tea.Program) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		// Warm the cache immediately so the matter source has a pool
		// before the user's first search.
		c.refreshAll(ctx, program)

		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.refreshAll(ctx, program)
			}
		}
	}()
}

// Wait blocks until the background goroutine exits.
// Call after canceling the context passed to Start.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// refreshAll runs all warmers in parallel.
// Sends ui.CacheRefreshed messages to the program (order non-deterministic).
func (c *Coordinator) refreshAll(ctx context.Context, program *tea.Program) {
	var g errgroup.Group
	g.SetLimit(maxConcurrentRefreshes)

	for _, w := range c.warmers {
		g.Go(func() error {
			// Early exit if context cancelled
			if ctx.Err() != nil {
				return nil
			}
			c.refreshOne(ctx, w, program)
			return nil // never fail the group - errors reported per-warmer
		})
	}

	_ = g.Wait()
}

// refreshOne runs a single warmer with timeout.
// Sends a ui.CacheRefreshed message when done.
func (c *Coordinator) refreshOne(ctx context.Context, w Warmer, program *tea.Program) {
	warmCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	count, err := w.Warm(warmCtx)

	// Send completion message (handle nil program gracefully for testing)
	if program != nil {
		program.Send(ui.CacheRefreshed{
			Name:  w.Name(),
			Count: count,
			Err:   err,
		})
	}
}

// matterLister is the slice of the API client the matter warmer needs.
// Interface for dependency injection (testing).
type matterLister interface {
	ListMatters(ctx context.Context, limit int) ([]store.Matter, error)
}

// MatterWarmer refreshes the recent-matters cache from the backend.
type MatterWarmer struct {
	store  *store.Store
	lister matterLister
	limit  int
}

// NewMatterWarmer creates a warmer that pulls up to limit recent matters
// into the given store.
func NewMatterWarmer(s *store.Store, lister matterLister, limit int) *MatterWarmer {
	return &MatterWarmer{store: s, lister: lister, limit: limit}
}

// Name implements Warmer.
func (m *MatterWarmer) Name() string { return "matters" }

// Warm implements Warmer.
func (m *MatterWarmer) Warm(ctx context.Context) (int, error) {
	matters, err := m.lister.ListMatters(ctx, m.limit)
	if err != nil {
		return 0, err
	}
	return m.store.SaveMatters(matters)
}
