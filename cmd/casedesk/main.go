package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"casedesk/internal/api"
	"casedesk/internal/config"
	"casedesk/internal/coord"
	"casedesk/internal/logging"
	"casedesk/internal/source"
	"casedesk/internal/store"
	"casedesk/internal/ui"
)

func main() {
	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logging.Init(); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Close()

	// Data directory: ~/.casedesk/
	homeDir, err := os.UserHomeDir()
	if err != nil {
		logging.Error("failed to get home directory", "err", err)
		os.Exit(1)
	}
	dataDir := filepath.Join(homeDir, ".casedesk")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		logging.Error("failed to create data directory", "err", err)
		os.Exit(1)
	}
	dbPath := filepath.Join(dataDir, "casedesk.db")

	// Open the matter cache
	st, err := store.Open(dbPath)
	if err != nil {
		logging.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	defer st.Close()

	// Backend client
	client := api.New(cfg.Server.URL, cfg.Server.Token, time.Duration(cfg.Server.TimeoutMs)*time.Millisecond)

	// Search sources, in configured order
	sources := buildSources(cfg, client, st)

	overlay := ui.NewOverlay(sources, ui.OverlayOptions{
		Debounce:      time.Duration(cfg.Search.DebounceMs) * time.Millisecond,
		MinQueryLen:   cfg.Search.MinQueryLen,
		MaxPerSource:  cfg.Search.MaxPerSource,
		SourceTimeout: time.Duration(cfg.Search.SourceTimeoutMs) * time.Millisecond,
	})

	// Create UI app with dependency injection
	appCfg := ui.AppConfig{
		Overlay: overlay,

		// loadMatters: read the recent list from the cache
		LoadMatters: func() tea.Cmd {
			return func() tea.Msg {
				matters, err := st.RecentMatters(cfg.Cache.RecentMatters)
				return ui.MattersLoaded{Matters: matters, Err: err}
			}
		},

		// openMatter: resolve a commit into a detail view. Client commits
		// have no local record yet; show what the cache knows.
		OpenMatter: func(src, id string) tea.Cmd {
			return func() tea.Msg {
				logging.Info("open", "source", src, "id", id)
				if src == "clients" {
					// No client-detail endpoint yet; show a directory stub.
					// TODO: wire GET /v1/clients/{id} when the backend ships it.
					return ui.MatterOpened{Matter: store.Matter{ID: id, Ref: "client", Title: "Client " + id, Status: "directory"}}
				}
				m, err := st.MatterByID(id)
				return ui.MatterOpened{Matter: m, Err: err}
			}
		},
	}

	app := ui.NewApp(appCfg)

	// Create program
	program := tea.NewProgram(app, tea.WithAltScreen())

	// Create and start background cache refresher
	warmer := coord.NewMatterWarmer(st, client, cfg.Cache.RecentMatters)
	coordinator := coord.NewCoordinator(
		[]coord.Warmer{warmer},
		time.Duration(cfg.Cache.RefreshIntervalMin)*time.Minute,
	)
	coordinator.Start(ctx, program)

	// Run UI (blocks until quit)
	if _, err := program.Run(); err != nil {
		logging.Error("error running program", "err", err)
	}

	// Graceful shutdown
	cancel()
	coordinator.Wait()
}

// buildSources instantiates search sources in the order config names them.
// Unknown names are skipped with a warning rather than failing startup.
func buildSources(cfg *config.Config, client *api.Client, st *store.Store) []source.Source {
	var sources []source.Source
	for _, name := range cfg.Search.Sources {
		switch name {
		case "clients":
			sources = append(sources, source.NewClients(client))
		case "matters":
			sources = append(sources, source.NewMatters(st, cfg.Cache.RecentMatters))
		default:
			logging.Warn("unknown search source in config", "name", name)
		}
	}
	return sources
}
