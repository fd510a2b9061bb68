package testsupport

import (
	"testing"

	"github.com/nodo1014/indexer/internal/config"
	"github.com/nodo1014/indexer/internal/session"
)

// MustOpenSession opens a session.Store for tests and registers cleanup.
func MustOpenSession(t testing.TB, cfg *config.Config) *session.Store {
	t.Helper()

	store, err := session.Open(cfg)
	if err != nil {
		t.Fatalf("session.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
