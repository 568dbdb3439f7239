package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBoltJournal(t *testing.T) {
	_, client := newTestBoltClient(t)
	journal, err := NewBoltJournal(zap.NewNop(), client, "test.journal")
	require.NoError(t, err)
	ctx := context.Background()
	at := NewMockClocker().Now()

	t.Run("empty", func(t *testing.T) {
		entries, err := journal.Recent(ctx, 10)
		require.NoError(t, err)
		assert.Len(t, entries, 0)
	})

	for i, action := range []string{ActionCreate, ActionUpdate, ActionDelete} {
		seq, err := journal.Append(ctx, BookEvent{Action: action, Book: Book{ID: "b:1"}, At: at})
		require.NoError(t, err)
		assert.Equal(t, uint64(i+1), seq)
	}

	t.Run("newest first", func(t *testing.T) {
		entries, err := journal.Recent(ctx, 10)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, uint64(3), entries[0].Seq)
		assert.Equal(t, ActionDelete, entries[0].Action)
		assert.Equal(t, ActionUpdate, entries[1].Action)
		assert.Equal(t, ActionCreate, entries[2].Action)
		assert.Equal(t, at, entries[2].At)
		assert.Equal(t, "b:1", entries[2].Book.ID)
	})

	t.Run("limited", func(t *testing.T) {
		entries, err := journal.Recent(ctx, 2)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, uint64(3), entries[0].Seq)
		assert.Equal(t, uint64(2), entries[1].Seq)
	})

	t.Run("zero limit", func(t *testing.T) {
		entries, err := journal.Recent(ctx, 0)
		require.NoError(t, err)
		assert.Len(t, entries, 0)
	})
}
