package main

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/boltdb/bolt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestBoltClient opens a bolt database in a temporary path
// which is removed at the end of the test.
func newTestBoltClient(t *testing.T) (*Config, *bolt.DB) {
	t.Helper()
	f, err := os.CreateTemp("", "tmp.bolt.db-")
	require.NoError(t, err)
	f.Close()
	testConfig := &Config{
		BoltDB: BoltDBConfig{
			FilePath:   f.Name(),
			Timeout:    5 * time.Second,
			BucketName: "test.books",
		},
	}

	client, err := GetBoltDBClient(testConfig)
	require.NoError(t, err, "failed in creating a test bolt store")
	t.Cleanup(func() {
		client.Close()
		os.Remove(testConfig.BoltDB.FilePath)
	})
	return testConfig, client
}

func newTestBoltStore(t *testing.T) BookStorage {
	t.Helper()
	cfg, client := newTestBoltClient(t)
	bs, err := NewBoltBookStorage(zap.NewNop(), &cfg.BoltDB, client, NewMockClocker(), NewIDsHandler())
	require.NoError(t, err)
	return bs
}

func TestBoltStore_Empty(t *testing.T) {
	bs := newTestBoltStore(t)
	books, err := bs.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, books)
	assert.Len(t, books, 0)
}

func TestBoltStore_CRUD(t *testing.T) {
	bs := newTestBoltStore(t)
	ctx := context.Background()

	books, err := bs.Create(ctx, sampleFields("first"))
	require.NoError(t, err)
	require.Len(t, books, 1)
	first := books[0]
	assert.Equal(t, "first", first.Name)
	assert.Equal(t, NewMockClocker().Now(), first.AddedAt)

	books, err = bs.Create(ctx, sampleFields("second"))
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, first, books[0])
	second := books[1]
	assert.Equal(t, "second", second.Name)

	t.Run("get existent", func(t *testing.T) {
		book, err := bs.Get(ctx, second.ID)
		assert.NoError(t, err)
		assert.Equal(t, second, book)
	})

	t.Run("get nonexistent", func(t *testing.T) {
		_, err := bs.Get(ctx, "b:missing")
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("update keeps identity and order", func(t *testing.T) {
		books, err := bs.Update(ctx, first.ID, BookFields{Name: "renamed", Author: "Y", Language: "French", Pages: 10})
		require.NoError(t, err)
		require.Len(t, books, 2)
		assert.Equal(t, first.ID, books[0].ID)
		assert.Equal(t, first.AddedAt, books[0].AddedAt)
		assert.Equal(t, "renamed", books[0].Name)
		assert.Equal(t, second, books[1])
	})

	t.Run("update nonexistent", func(t *testing.T) {
		_, err := bs.Update(ctx, "b:missing", sampleFields("ghost"))
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		books, err := bs.Delete(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, []Book{second}, books)
		_, err = bs.Delete(ctx, first.ID)
		assert.ErrorIs(t, err, ErrBookNotFound)
	})
}

func TestBoltStore_ReopenKeepsOrder(t *testing.T) {
	cfg, client := newTestBoltClient(t)
	ctx := context.Background()
	bs, err := NewBoltBookStorage(zap.NewNop(), &cfg.BoltDB, client, NewMockClocker(), NewIDsHandler())
	require.NoError(t, err)
	for _, name := range []string{"a", "b", "c"} {
		_, err = bs.Create(ctx, sampleFields(name))
		require.NoError(t, err)
	}

	again, err := NewBoltBookStorage(zap.NewNop(), &cfg.BoltDB, client, NewMockClocker(), NewIDsHandler())
	require.NoError(t, err)
	books, err := again.List(ctx)
	require.NoError(t, err)
	require.Len(t, books, 3)
	assert.Equal(t, "a", books[0].Name)
	assert.Equal(t, "b", books[1].Name)
	assert.Equal(t, "c", books[2].Name)
}

func TestBoltStore_ClosedDatabase(t *testing.T) {
	cfg, client := newTestBoltClient(t)
	bs, err := NewBoltBookStorage(zap.NewNop(), &cfg.BoltDB, client, NewMockClocker(), NewIDsHandler())
	require.NoError(t, err)
	require.NoError(t, client.Close())

	_, err = bs.List(context.Background())
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	_, err = bs.Create(context.Background(), sampleFields("x"))
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
