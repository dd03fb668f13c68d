package e2e

import (
	"os"
	"path/filepath"
	"time"

	"casedesk/internal/store"
)

func seedFixtureDB(homeDir string) error {
	dataDir := filepath.Join(homeDir, ".casedesk")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return err
	}
	dbPath := filepath.Join(dataDir, "casedesk.db")
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	now := time.Now().UTC()
	matters := []store.Matter{
		{
			ID:         "m-1",
			Ref:        "2026-CV-0142",
			Title:      "Fixture Matter One",
			ClientName: "Ana Smith",
			Status:     "open",
			OpenedAt:   now.Add(-10 * time.Minute),
			CachedAt:   now,
		},
		{
			ID:         "m-2",
			Ref:        "2026-PR-0007",
			Title:      "Estate of Garcia",
			ClientName: "Luis Garcia",
			Status:     "open",
			OpenedAt:   now.Add(-2 * time.Hour),
			CachedAt:   now,
		},
	}
	if _, err := st.SaveMatters(matters); err != nil {
		return err
	}
	return nil
}
