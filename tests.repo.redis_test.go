package main

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// startRedisDockerContainer runs a disposable redis server. The test
// is skipped when no docker daemon is reachable.
func startRedisDockerContainer(t *testing.T) (string, func()) {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("Failed to start Dockertest: %+v", err)
	}

	err = pool.Client.Ping()
	if err != nil {
		t.Skipf("Could not connect to Docker: %+v", err)
	}

	resource, err := pool.Run("redis", "7.0.10-alpine", nil)
	if err != nil {
		t.Fatalf("Failed to start redis: %+v", err)
	}

	// build address the container is listening on
	addr := net.JoinHostPort("localhost", resource.GetPort("6379/tcp"))

	// ensure to wait for the container to be ready
	err = pool.Retry(func() error {
		client := redis.NewClient(&redis.Options{Addr: addr})
		defer client.Close()
		return client.Ping(context.Background()).Err()
	})
	if err != nil {
		t.Fatalf("Failed to ping Redis: %+v", err)
	}

	destroyFunc := func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("Failed to purge resource: %+v", err)
		}
	}

	return addr, destroyFunc
}

func TestRedisStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}
	addr, destroyFunc := startRedisDockerContainer(t)
	defer destroyFunc()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	rs := NewRedisBookStorage(zap.NewNop(), client, NewMockClocker(), NewIDsHandler())
	ctx := context.Background()

	var first, second Book

	t.Run("List Empty", func(t *testing.T) {
		books, err := rs.List(ctx)
		assert.NoError(t, err)
		assert.Len(t, books, 0)
	})

	t.Run("Create Books", func(t *testing.T) {
		books, err := rs.Create(ctx, sampleFields("first"))
		require.NoError(t, err)
		require.Len(t, books, 1)
		first = books[0]
		assert.Equal(t, NewMockClocker().Now(), first.AddedAt)

		books, err = rs.Create(ctx, sampleFields("second"))
		require.NoError(t, err)
		require.Len(t, books, 2)
		assert.Equal(t, first, books[0])
		second = books[1]
		assert.Equal(t, "second", second.Name)
	})

	t.Run("Get Existent Book", func(t *testing.T) {
		book, err := rs.Get(ctx, first.ID)
		assert.NoError(t, err)
		assert.Equal(t, first, book)
	})

	t.Run("Get NonExistent Book", func(t *testing.T) {
		book, err := rs.Get(ctx, "b:missing")
		assert.ErrorIs(t, err, ErrBookNotFound)
		assert.Equal(t, Book{}, book)
	})

	t.Run("Update Existent Book", func(t *testing.T) {
		books, err := rs.Update(ctx, first.ID, BookFields{Name: "renamed", Author: "Z", Language: "German", Pages: 42})
		require.NoError(t, err)
		require.Len(t, books, 2)
		assert.Equal(t, first.ID, books[0].ID)
		assert.True(t, first.AddedAt.Equal(books[0].AddedAt))
		assert.Equal(t, "renamed", books[0].Name)
		assert.Equal(t, int32(42), books[0].Pages)
	})

	t.Run("Update NonExistent Book", func(t *testing.T) {
		_, err := rs.Update(ctx, "b:missing", sampleFields("ghost"))
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("Delete Existent Book", func(t *testing.T) {
		books, err := rs.Delete(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, []Book{second}, books)
	})

	t.Run("Delete NonExistent Book", func(t *testing.T) {
		_, err := rs.Delete(ctx, first.ID)
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("Queue Push Pop", func(t *testing.T) {
		q := NewRedisQueue(client)
		require.NoError(t, q.Push(ctx, UpdateQueue, BookEvent{Action: ActionUpdate, Book: second}))
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		qid, event, err := q.Pop(pctx, CreateQueue, UpdateQueue, DeleteQueue)
		require.NoError(t, err)
		assert.Equal(t, UpdateQueue, qid)
		assert.Equal(t, ActionUpdate, event.Action)
		assert.Equal(t, second.ID, event.Book.ID)
	})

	t.Run("Closed Client", func(t *testing.T) {
		closed := redis.NewClient(&redis.Options{Addr: addr})
		require.NoError(t, closed.Close())
		_, err := NewRedisBookStorage(zap.NewNop(), closed, NewMockClocker(), NewIDsHandler()).List(ctx)
		assert.ErrorIs(t, err, ErrStoreUnavailable)
	})
}
