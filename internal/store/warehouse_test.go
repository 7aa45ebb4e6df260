package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobscout-engine/internal/domain"
)

func tempWarehouse(t *testing.T) *Warehouse {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "scout.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	w := NewWarehouse(db, DialectSQLite)
	require.NoError(t, w.Migrate(context.Background()))
	return w
}

func TestWarehouseMerge_Idempotent(t *testing.T) {
	w := tempWarehouse(t)
	ctx := context.Background()

	recs := []*domain.Posting{
		posting("1", "Acme", "2024-01-01"),
		posting("2", "Beta", "2024-02-01"),
	}
	added, err := w.Merge(ctx, testKey, recs)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	added, err = w.Merge(ctx, testKey, []*domain.Posting{
		posting("1", "Acme", "2024-01-01"),
		posting("2", "Beta", "2024-02-01"),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	ids, err := w.loadIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, ids.Cardinality())
}

func TestWarehouseMerge_GlobalUniquenessAcrossPartitions(t *testing.T) {
	w := tempWarehouse(t)
	ctx := context.Background()

	_, err := w.Merge(ctx, testKey, []*domain.Posting{posting("1", "Acme", "2024-01-01")})
	require.NoError(t, err)

	otherKey := PartitionKey{Keyword: "ML Eng", Country: "France", WorkType: "Remote"}
	added, err := w.Merge(ctx, otherKey, []*domain.Posting{posting("1", "Acme", "2024-01-01")})
	require.NoError(t, err)
	assert.Equal(t, 0, added, "warehouse dedupes globally, not per partition")
}

func TestWarehouse_ListIncompleteAndUpdate(t *testing.T) {
	w := tempWarehouse(t)
	ctx := context.Background()

	broken := &domain.Posting{Identity: "9", NeedsRetry: true}
	_, err := w.Merge(ctx, testKey, []*domain.Posting{broken, posting("1", "Acme", "2024-01-01")})
	require.NoError(t, err)

	incomplete, err := w.ListIncomplete(ctx)
	require.NoError(t, err)
	require.Len(t, incomplete, 1)
	assert.Equal(t, "9", incomplete[0].Identity)

	fixed := *incomplete[0]
	fixed.Title = "Platform Engineer"
	fixed.Org = "Delta"
	fixed.NeedsRetry = false
	require.NoError(t, w.Update(ctx, &fixed))

	incomplete, err = w.ListIncomplete(ctx)
	require.NoError(t, err)
	assert.Empty(t, incomplete)

	err = w.Update(ctx, &domain.Posting{Identity: "nope"})
	assert.Error(t, err)
}

func TestWarehouse_Rebuild(t *testing.T) {
	w := tempWarehouse(t)
	ctx := context.Background()

	_, err := w.Merge(ctx, testKey, []*domain.Posting{posting("1", "Acme", "2024-01-01")})
	require.NoError(t, err)

	require.NoError(t, w.Rebuild(ctx))

	ids, err := w.loadIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, ids.Cardinality())
}
