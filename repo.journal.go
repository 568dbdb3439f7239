package main

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/boltdb/bolt"
	"go.uber.org/zap"
)

// Books change actions.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// BookEvent describes a change applied to a book.
type BookEvent struct {
	Action string    `json:"action"`
	Book   Book      `json:"book"`
	At     time.Time `json:"at"`
}

// JournalEntry is a stored BookEvent with its position in the journal.
type JournalEntry struct {
	Seq uint64 `json:"seq"`
	BookEvent
}

// Journaler records books change events.
type Journaler interface {
	Append(ctx context.Context, event BookEvent) (uint64, error)
	Recent(ctx context.Context, limit int) ([]JournalEntry, error)
}

var _ Journaler = (*boltJournal)(nil) // ensure boltJournal implements Journaler.

type boltJournal struct {
	logger *zap.Logger
	client *bolt.DB
	bucket []byte
}

// NewBoltJournal provides an append-only journal stored in a bolt bucket.
func NewBoltJournal(logger *zap.Logger, client *bolt.DB, bucketName string) (Journaler, error) {
	if err := SetupBoltBuckets(client, bucketName); err != nil {
		return nil, fmt.Errorf("failed to set up journal bucket: %v", err)
	}
	return &boltJournal{logger: logger, client: client, bucket: []byte(bucketName)}, nil
}

// Append stores the event under the next sequence number and returns it.
func (bj *boltJournal) Append(_ context.Context, event BookEvent) (uint64, error) {
	var seq uint64
	err := bj.client.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bj.bucket)
		var err error
		seq, err = b.NextSequence()
		if err != nil {
			return err
		}
		eventBytes, err := json.Marshal(event)
		if err != nil {
			return err
		}
		return b.Put(itob(seq), eventBytes)
	})
	if err != nil {
		bj.logger.Error("journal: failed to append event", zap.String("action", event.Action), zap.String("book.id", event.Book.ID), zap.Error(err))
	}
	return seq, err
}

// Recent returns at most limit entries, newest first.
func (bj *boltJournal) Recent(_ context.Context, limit int) ([]JournalEntry, error) {
	entries := []JournalEntry{}
	if limit <= 0 {
		return entries, nil
	}
	err := bj.client.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bj.bucket).Cursor()
		for k, v := c.Last(); k != nil && len(entries) < limit; k, v = c.Prev() {
			var event BookEvent
			if err := json.Unmarshal(v, &event); err != nil {
				return err
			}
			entries = append(entries, JournalEntry{Seq: binary.BigEndian.Uint64(k), BookEvent: event})
		}
		return nil
	})
	return entries, err
}
