package main

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestMemoryStore() BookStorage {
	return NewMemoryBookStorage(zap.NewNop(), NewMockClocker(), NewIDsHandler())
}

func TestMemoryStore_Empty(t *testing.T) {
	ms := newTestMemoryStore()
	books, err := ms.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, books)
	assert.Len(t, books, 0)
}

func TestMemoryStore_Create(t *testing.T) {
	ms := newTestMemoryStore()
	ctx := context.Background()

	books, err := ms.Create(ctx, sampleFields("first"))
	require.NoError(t, err)
	require.Len(t, books, 1)
	first := books[0]
	assert.True(t, NewIDsHandler().IsValid(first.ID, BookIDPrefix))
	assert.Equal(t, "first", first.Name)
	assert.Equal(t, "Jerome Amon", first.Author)
	assert.Equal(t, "English", first.Language)
	assert.Equal(t, int32(120), first.Pages)
	assert.Equal(t, NewMockClocker().Now(), first.AddedAt)
	assert.Equal(t, time.UTC, first.AddedAt.Location())

	books, err = ms.Create(ctx, sampleFields("second"))
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, first, books[0])
	assert.Equal(t, "second", books[1].Name)
	assert.NotEqual(t, first.ID, books[1].ID)
}

func TestMemoryStore_CreateStampsUTC(t *testing.T) {
	paris := time.FixedZone("CEST", 2*60*60)
	clock := &MockClocker{time.Date(2023, 7, 2, 10, 0, 0, 0, paris)}
	ms := NewMemoryBookStorage(zap.NewNop(), clock, NewIDsHandler())
	books, err := ms.Create(context.Background(), sampleFields("utc"))
	require.NoError(t, err)
	assert.Equal(t, time.UTC, books[0].AddedAt.Location())
	assert.Equal(t, 8, books[0].AddedAt.Hour())
}

func TestMemoryStore_AcceptsAnyFields(t *testing.T) {
	ms := newTestMemoryStore()
	books, err := ms.Create(context.Background(), BookFields{Pages: -3})
	require.NoError(t, err)
	assert.Equal(t, "", books[0].Name)
	assert.Equal(t, int32(-3), books[0].Pages)
}

func TestMemoryStore_Get(t *testing.T) {
	ms := newTestMemoryStore()
	ctx := context.Background()
	books, err := ms.Create(ctx, sampleFields("first"))
	require.NoError(t, err)

	t.Run("existent", func(t *testing.T) {
		book, err := ms.Get(ctx, books[0].ID)
		assert.NoError(t, err)
		assert.Equal(t, books[0], book)
	})

	t.Run("nonexistent", func(t *testing.T) {
		book, err := ms.Get(ctx, "b:cb8f2136-fae4-4200-85d9-3533c7f8c70d")
		assert.ErrorIs(t, err, ErrBookNotFound)
		assert.Equal(t, Book{}, book)
	})
}

func TestMemoryStore_Update(t *testing.T) {
	ms := newTestMemoryStore()
	ctx := context.Background()
	_, err := ms.Create(ctx, sampleFields("first"))
	require.NoError(t, err)
	books, err := ms.Create(ctx, sampleFields("second"))
	require.NoError(t, err)
	target := books[0]

	t.Run("existent", func(t *testing.T) {
		updated, err := ms.Update(ctx, target.ID, BookFields{Name: "renamed", Author: "X", Language: "French", Pages: 7})
		require.NoError(t, err)
		require.Len(t, updated, 2)
		assert.Equal(t, target.ID, updated[0].ID)
		assert.Equal(t, target.AddedAt, updated[0].AddedAt)
		assert.Equal(t, "renamed", updated[0].Name)
		assert.Equal(t, "X", updated[0].Author)
		assert.Equal(t, "French", updated[0].Language)
		assert.Equal(t, int32(7), updated[0].Pages)
		assert.Equal(t, books[1], updated[1])
	})

	t.Run("nonexistent", func(t *testing.T) {
		before, err := ms.List(ctx)
		require.NoError(t, err)
		_, err = ms.Update(ctx, "b:missing", sampleFields("ghost"))
		assert.ErrorIs(t, err, ErrBookNotFound)
		after, err := ms.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})
}

func TestMemoryStore_Delete(t *testing.T) {
	ms := newTestMemoryStore()
	ctx := context.Background()
	var all []Book
	for i := 0; i < 3; i++ {
		books, err := ms.Create(ctx, sampleFields(fmt.Sprintf("book-%d", i)))
		require.NoError(t, err)
		all = books
	}

	t.Run("middle", func(t *testing.T) {
		books, err := ms.Delete(ctx, all[1].ID)
		require.NoError(t, err)
		assert.Equal(t, []Book{all[0], all[2]}, books)
		_, err = ms.Get(ctx, all[1].ID)
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("twice", func(t *testing.T) {
		_, err := ms.Delete(ctx, all[1].ID)
		assert.ErrorIs(t, err, ErrBookNotFound)
		books, err := ms.List(ctx)
		require.NoError(t, err)
		assert.Len(t, books, 2)
	})
}

func TestMemoryStore_SnapshotsAreCopies(t *testing.T) {
	ms := newTestMemoryStore()
	ctx := context.Background()
	books, err := ms.Create(ctx, sampleFields("first"))
	require.NoError(t, err)
	books[0].Name = "changed by caller"

	listed, err := ms.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", listed[0].Name)

	_, err = ms.Create(ctx, sampleFields("second"))
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestMemoryStore_Poisoned(t *testing.T) {
	ms := NewMemoryBookStorage(zap.NewNop(), NewMockClocker(), PanicUIDHandler{})
	ctx := context.Background()

	assert.Panics(t, func() {
		_, _ = ms.Create(ctx, sampleFields("crash"))
	})

	_, err := ms.List(ctx)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	_, err = ms.Get(ctx, "b:any")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	_, err = ms.Update(ctx, "b:any", sampleFields("x"))
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	_, err = ms.Delete(ctx, "b:any")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	_, err = ms.Create(ctx, sampleFields("x"))
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	ms := newTestMemoryStore()
	ctx := context.Background()
	const writers, perWriter = 8, 25

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(2)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				books, err := ms.Create(ctx, sampleFields(fmt.Sprintf("w%d-%d", w, i)))
				assert.NoError(t, err)
				assert.NotEmpty(t, books)
			}
		}(w)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				_, err := ms.List(ctx)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	books, err := ms.List(ctx)
	require.NoError(t, err)
	assert.Len(t, books, writers*perWriter)
	seen := make(map[string]bool, len(books))
	for _, b := range books {
		assert.False(t, seen[b.ID], "duplicate id %s", b.ID)
		seen[b.ID] = true
	}
}

// runDuneScenario creates, corrects then deletes a single book.
func runDuneScenario(t *testing.T, store BookStorage) {
	t.Helper()
	ctx := context.Background()
	dune := BookFields{Name: "Dune", Author: "Herbert", Language: "English", Pages: 412}

	_, err := store.Create(ctx, dune)
	require.NoError(t, err)
	books, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, dune, books[0].Fields())
	assert.NotEmpty(t, books[0].ID)
	assert.False(t, books[0].AddedAt.IsZero())
	id := books[0].ID

	dune.Author = "F. Herbert"
	_, err = store.Update(ctx, id, dune)
	require.NoError(t, err)
	books, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, id, books[0].ID)
	assert.Equal(t, "F. Herbert", books[0].Author)

	_, err = store.Delete(ctx, id)
	require.NoError(t, err)
	books, err = store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, books, 0)
}

// runOrderScenario checks Create(a), Create(b), Delete(a) leaves [b].
func runOrderScenario(t *testing.T, store BookStorage) {
	t.Helper()
	ctx := context.Background()
	books, err := store.Create(ctx, sampleFields("a"))
	require.NoError(t, err)
	a := books[len(books)-1]
	books, err = store.Create(ctx, sampleFields("b"))
	require.NoError(t, err)
	b := books[len(books)-1]
	_, err = store.Delete(ctx, a.ID)
	require.NoError(t, err)
	books, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Book{b}, books)
}

func TestStoreScenarios(t *testing.T) {
	stores := map[string]func(t *testing.T) BookStorage{
		"memory": func(t *testing.T) BookStorage { return newTestMemoryStore() },
		"bolt":   newTestBoltStore,
	}
	for name, newStore := range stores {
		t.Run(name+"/dune", func(t *testing.T) { runDuneScenario(t, newStore(t)) })
		t.Run(name+"/order", func(t *testing.T) { runOrderScenario(t, newStore(t)) })
	}
}

func TestMemoryStore_ConcurrentReadersSameSnapshot(t *testing.T) {
	ms := newTestMemoryStore()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := ms.Create(ctx, sampleFields(fmt.Sprintf("book-%d", i)))
		require.NoError(t, err)
	}
	want, err := ms.List(ctx)
	require.NoError(t, err)

	const readers = 16
	results := make([][]Book, readers)
	var wg sync.WaitGroup
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			books, err := ms.List(ctx)
			assert.NoError(t, err)
			results[i] = books
		}(i)
	}
	wg.Wait()
	for _, got := range results {
		assert.Equal(t, want, got)
	}
}
