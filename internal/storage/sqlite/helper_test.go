package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/common"
)

// setupTestStore opens a store against a temp-dir database
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	config := &common.SQLiteConfig{
		Path:          filepath.Join(t.TempDir(), "venari_test.db"),
		CacheSizeMB:   16,
		BusyTimeoutMS: 1000,
		WALMode:       true,
	}

	store, err := NewStore(arbor.NewLogger(), config)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}
