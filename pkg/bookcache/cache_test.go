package bookcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf-backend/internal/domains/book"
)

func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

func seed(t *testing.T, c *Cache, books ...book.Book) {
	t.Helper()
	tok, _ := c.BeginFetch(context.Background())
	require.True(t, c.ApplyList(tok, books))
}

func rating(t *testing.T, c *Cache, id string) float64 {
	t.Helper()
	b, ok := c.Get(id)
	require.True(t, ok)
	return b.Rating
}

func TestCache_OptimisticCommit(t *testing.T) {
	c := NewCache()
	seed(t, c, book.Book{ID: "b1", Title: "Dune", Rating: 1})

	tok := c.ApplyOptimistic("b1", book.Patch{Rating: floatPtr(3)})
	assert.Equal(t, StatePending, c.State("b1"))
	assert.Equal(t, 3.0, rating(t, c, "b1"))

	server := &book.Book{ID: "b1", Title: "Dune", Rating: 3, UpdatedAt: time.Now()}
	assert.True(t, c.Commit(tok, server))
	assert.Equal(t, StateClean, c.State("b1"))

	got, _ := c.Get("b1")
	assert.Equal(t, server.UpdatedAt, got.UpdatedAt)
}

func TestCache_LastIntentWins(t *testing.T) {
	c := NewCache()
	seed(t, c, book.Book{ID: "b1", Rating: 1})

	first := c.ApplyOptimistic("b1", book.Patch{Rating: floatPtr(3)})
	second := c.ApplyOptimistic("b1", book.Patch{Rating: floatPtr(4)})

	// response của intent sau về trước
	assert.True(t, c.Commit(second, &book.Book{ID: "b1", Rating: 4}))
	assert.False(t, c.Commit(first, &book.Book{ID: "b1", Rating: 3}), "older intent must not overwrite")
	assert.Equal(t, 4.0, rating(t, c, "b1"))

	// rollback của intent cũ cũng bị bỏ qua
	assert.False(t, c.Rollback(first))
	assert.Equal(t, 4.0, rating(t, c, "b1"))
}

func TestCache_RollbackRestoresPriorList(t *testing.T) {
	c := NewCache()
	seed(t, c, book.Book{ID: "b1", Title: "Dune", Rating: 1}, book.Book{ID: "b2", Title: "Emma"})
	before := c.Snapshot()

	tok := c.ApplyOptimistic("b1", book.Patch{Title: strPtr("Dune Messiah")})
	require.True(t, c.Rollback(tok))

	after := c.Snapshot()
	assert.Equal(t, before.Books, after.Books)
	assert.Equal(t, StateClean, c.State("b1"))
}

func TestCache_RollbackKeepsOtherRecords(t *testing.T) {
	c := NewCache()
	seed(t, c, book.Book{ID: "b1", Rating: 1}, book.Book{ID: "b2", Rating: 1})

	tokA := c.ApplyOptimistic("b1", book.Patch{Rating: floatPtr(2)})
	c.ApplyOptimistic("b2", book.Patch{Rating: floatPtr(5)})

	require.True(t, c.Rollback(tokA))
	assert.Equal(t, 1.0, rating(t, c, "b1"))
	assert.Equal(t, 5.0, rating(t, c, "b2"), "independent edit survives")
	assert.Equal(t, StatePending, c.State("b2"))
}

func TestCache_OptimisticCancelsFetch(t *testing.T) {
	c := NewCache()
	seed(t, c, book.Book{ID: "b1", Rating: 1})

	tok, ctx := c.BeginFetch(context.Background())
	c.ApplyOptimistic("b1", book.Patch{Rating: floatPtr(4)})

	assert.Error(t, ctx.Err(), "fetch context cancelled")
	assert.False(t, c.ApplyList(tok, []book.Book{{ID: "b1", Rating: 1}}))
	assert.Equal(t, 4.0, rating(t, c, "b1"))
}

func TestCache_NewerFetchWins(t *testing.T) {
	c := NewCache()

	older, olderCtx := c.BeginFetch(context.Background())
	newer, _ := c.BeginFetch(context.Background())
	assert.Error(t, olderCtx.Err())

	assert.True(t, c.ApplyList(newer, []book.Book{{ID: "new"}}))
	assert.False(t, c.ApplyList(older, []book.Book{{ID: "old"}}))

	snap := c.Snapshot()
	require.Len(t, snap.Books, 1)
	assert.Equal(t, "new", snap.Books[0].ID)
}

func TestCache_SnapshotIsDeepCopy(t *testing.T) {
	finished := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	c := NewCache()
	seed(t, c, book.Book{ID: "b1", FinishedDate: &finished})

	snap := c.Snapshot()
	*snap.Books[0].FinishedDate = time.Time{}
	snap.Books[0].ID = "changed"

	got, ok := c.Get("b1")
	require.True(t, ok)
	assert.Equal(t, finished, *got.FinishedDate)
}

func TestCache_UnknownRecord(t *testing.T) {
	c := NewCache()
	seed(t, c, book.Book{ID: "b1"})
	v := c.Snapshot().Version

	tok := c.ApplyOptimistic("missing", book.Patch{Rating: floatPtr(2)})
	assert.Equal(t, v, c.Snapshot().Version)
	assert.True(t, c.Rollback(tok))
	assert.Equal(t, v, c.Snapshot().Version)
}

func TestCache_BothIntentsFailRestoresConfirmed(t *testing.T) {
	tests := []struct {
		name        string
		olderFirst  bool
		midState    State
		midExpected float64
	}{
		{name: "older fails first", olderFirst: true, midState: StatePending, midExpected: 4},
		{name: "newer fails first", olderFirst: false, midState: StatePending, midExpected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCache()
			seed(t, c, book.Book{ID: "b1", Rating: 1}, book.Book{ID: "b2", Rating: 2})

			first := c.ApplyOptimistic("b1", book.Patch{Rating: floatPtr(3)})
			second := c.ApplyOptimistic("b1", book.Patch{Rating: floatPtr(4)})

			if tt.olderFirst {
				assert.False(t, c.Rollback(first))
				assert.Equal(t, tt.midExpected, rating(t, c, "b1"))
				assert.Equal(t, tt.midState, c.State("b1"))
				assert.True(t, c.Rollback(second))
			} else {
				assert.True(t, c.Rollback(second))
				assert.Equal(t, tt.midExpected, rating(t, c, "b1"), "never the older optimistic value")
				assert.Equal(t, tt.midState, c.State("b1"), "older intent still in flight")
				assert.False(t, c.Rollback(first))
			}

			assert.Equal(t, 1.0, rating(t, c, "b1"))
			assert.Equal(t, 2.0, rating(t, c, "b2"))
			assert.Equal(t, StateClean, c.State("b1"))
		})
	}
}

func TestCache_OlderCommitAfterNewerRollback(t *testing.T) {
	c := NewCache()
	seed(t, c, book.Book{ID: "b1", Rating: 1})

	first := c.ApplyOptimistic("b1", book.Patch{Rating: floatPtr(3)})
	second := c.ApplyOptimistic("b1", book.Patch{Rating: floatPtr(4)})

	require.True(t, c.Rollback(second))
	assert.Equal(t, 1.0, rating(t, c, "b1"))

	// server đã lưu intent cũ: record của nó là bản xác nhận mới nhất
	assert.False(t, c.Commit(first, &book.Book{ID: "b1", Rating: 3}))
	assert.Equal(t, 3.0, rating(t, c, "b1"))
	assert.Equal(t, StateClean, c.State("b1"))
}

func TestCache_OlderCommitThenNewerRollback(t *testing.T) {
	c := NewCache()
	seed(t, c, book.Book{ID: "b1", Rating: 1})

	first := c.ApplyOptimistic("b1", book.Patch{Rating: floatPtr(3)})
	second := c.ApplyOptimistic("b1", book.Patch{Rating: floatPtr(4)})

	assert.False(t, c.Commit(first, &book.Book{ID: "b1", Rating: 3}))
	assert.Equal(t, 4.0, rating(t, c, "b1"), "newer intent still shown")

	require.True(t, c.Rollback(second))
	assert.Equal(t, 3.0, rating(t, c, "b1"))
	assert.Equal(t, StateClean, c.State("b1"))
}

func TestCache_ListDuringPendingIntent(t *testing.T) {
	c := NewCache()
	seed(t, c, book.Book{ID: "b1", Rating: 1})

	tok := c.ApplyOptimistic("b1", book.Patch{Rating: floatPtr(4)})

	// fetch bắt đầu sau intent, server đã có rating 2 từ session khác
	fetch, _ := c.BeginFetch(context.Background())
	require.True(t, c.ApplyList(fetch, []book.Book{{ID: "b1", Rating: 2}}))
	assert.Equal(t, 4.0, rating(t, c, "b1"), "optimistic value kept")

	require.True(t, c.Rollback(tok))
	assert.Equal(t, 2.0, rating(t, c, "b1"))
}
