package testsupport

import (
	"context"
	"testing"

	"clientdedup/internal/config"
	"clientdedup/internal/resultdb"
)

// MustOpenResultDB opens the configured results database for tests and
// registers cleanup.
func MustOpenResultDB(t testing.TB, cfg *config.Config) *resultdb.Store {
	t.Helper()

	store, err := resultdb.Open(context.Background(), cfg.Output.ResultsDBPath)
	if err != nil {
		t.Fatalf("resultdb.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
