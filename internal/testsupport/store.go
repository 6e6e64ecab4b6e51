package testsupport

import (
	"context"
	"testing"

	"fewshot/internal/config"
	"fewshot/internal/split"
)

// MustOpenSplitStore opens the split store configured in cfg and registers
// cleanup.
func MustOpenSplitStore(t testing.TB, cfg *config.Config) split.Store {
	t.Helper()

	switch cfg.Split.Backend {
	case config.BackendSQLite:
		store, err := split.OpenSQLite(context.Background(), cfg.SplitDatabasePath(), nil)
		if err != nil {
			t.Fatalf("split.OpenSQLite: %v", err)
		}
		t.Cleanup(func() {
			store.Close()
		})
		return store
	default:
		return split.NewFileStore(cfg.Paths.StateDir, nil)
	}
}
