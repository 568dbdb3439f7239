package main

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/boltdb/bolt"
	"go.uber.org/zap"
)

var _ BookStorage = (*boltBookStorage)(nil) // ensure boltBookStorage implements BookStorage.

// boltBookStorage keeps books json under the big-endian sequence number
// assigned at creation, so a cursor walks them in insertion order. The
// index bucket maps each book id to its sequence key.
type boltBookStorage struct {
	logger *zap.Logger
	client *bolt.DB
	config *BoltDBConfig
	clock  Clocker
	ids    UIDHandler
}

// GetBoltDBClient opens the database file then provides a ready to use client.
func GetBoltDBClient(config *Config) (*bolt.DB, error) {
	db, err := bolt.Open(config.BoltDB.FilePath, 0o600, &bolt.Options{Timeout: config.BoltDB.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open the database, %v", err)
	}
	return db, nil
}

// SetupBoltBuckets creates the given buckets if they do not exist yet.
func SetupBoltBuckets(db *bolt.DB, names ...string) error {
	return db.Update(func(tx *bolt.Tx) error {
		for _, name := range names {
			if _, errB := tx.CreateBucketIfNotExists([]byte(name)); errB != nil {
				return fmt.Errorf("failed to create %s bucket: %v", name, errB)
			}
		}
		return nil
	})
}

// NewBoltBookStorage provides an instance of bolt-based book storage.
func NewBoltBookStorage(logger *zap.Logger, boltConfig *BoltDBConfig, client *bolt.DB, clock Clocker, ids UIDHandler) (BookStorage, error) {
	bs := &boltBookStorage{
		logger: logger,
		client: client,
		config: boltConfig,
		clock:  clock,
		ids:    ids,
	}
	if err := SetupBoltBuckets(client, bs.config.BucketName, bs.indexBucketName()); err != nil {
		return nil, fmt.Errorf("failed to set up buckets: %v", err)
	}
	return bs, nil
}

// Close shuts down the bolt-based book storage.
func (bs *boltBookStorage) Close() error {
	return bs.client.Close()
}

func (bs *boltBookStorage) indexBucketName() string {
	return bs.config.BucketName + ".index"
}

// List retrieves all books stored in the bolt database in insertion order.
func (bs *boltBookStorage) List(_ context.Context) ([]Book, error) {
	var books []Book
	err := bs.client.View(func(tx *bolt.Tx) error {
		var err error
		books, err = bs.snapshot(tx)
		return err
	})
	return books, bs.wrap(err)
}

// Create inserts a new book record under the next bucket sequence.
func (bs *boltBookStorage) Create(_ context.Context, fields BookFields) ([]Book, error) {
	book := Book{
		ID:      bs.ids.Generate(BookIDPrefix),
		AddedAt: bs.clock.Now().UTC(),
	}
	book.apply(fields)
	bookBytes, err := json.Marshal(book)
	if err != nil {
		return nil, err
	}

	var books []Book
	err = bs.client.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bs.config.BucketName))
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		key := itob(seq)
		if err = b.Put(key, bookBytes); err != nil {
			return err
		}
		if err = tx.Bucket([]byte(bs.indexBucketName())).Put([]byte(book.ID), key); err != nil {
			return err
		}
		books, err = bs.snapshot(tx)
		return err
	})
	return books, bs.wrap(err)
}

// Get retrieves a book record based on its ID from boltdb store.
func (bs *boltBookStorage) Get(_ context.Context, id string) (Book, error) {
	var book Book
	err := bs.client.View(func(tx *bolt.Tx) error {
		_, value := bs.lookup(tx, id)
		if value == nil {
			return ErrBookNotFound
		}
		return json.Unmarshal(value, &book)
	})
	return book, bs.wrap(err)
}

// Update replaces the editable fields of an existing book record.
func (bs *boltBookStorage) Update(_ context.Context, id string, fields BookFields) ([]Book, error) {
	var books []Book
	err := bs.client.Update(func(tx *bolt.Tx) error {
		key, value := bs.lookup(tx, id)
		if value == nil {
			return ErrBookNotFound
		}
		var book Book
		if err := json.Unmarshal(value, &book); err != nil {
			return err
		}
		book.apply(fields)
		bookBytes, err := json.Marshal(book)
		if err != nil {
			return err
		}
		if err = tx.Bucket([]byte(bs.config.BucketName)).Put(key, bookBytes); err != nil {
			return err
		}
		books, err = bs.snapshot(tx)
		return err
	})
	return books, bs.wrap(err)
}

// Delete removes a book record based on its ID from boltdb store.
func (bs *boltBookStorage) Delete(_ context.Context, id string) ([]Book, error) {
	var books []Book
	err := bs.client.Update(func(tx *bolt.Tx) error {
		key, value := bs.lookup(tx, id)
		if value == nil {
			return ErrBookNotFound
		}
		if err := tx.Bucket([]byte(bs.config.BucketName)).Delete(key); err != nil {
			return err
		}
		if err := tx.Bucket([]byte(bs.indexBucketName())).Delete([]byte(id)); err != nil {
			return err
		}
		var err error
		books, err = bs.snapshot(tx)
		return err
	})
	return books, bs.wrap(err)
}

// lookup returns the sequence key and the stored json of the book id.
// The value is only valid during the transaction.
func (bs *boltBookStorage) lookup(tx *bolt.Tx, id string) ([]byte, []byte) {
	key := tx.Bucket([]byte(bs.indexBucketName())).Get([]byte(id))
	if key == nil {
		return nil, nil
	}
	return key, tx.Bucket([]byte(bs.config.BucketName)).Get(key)
}

func (bs *boltBookStorage) snapshot(tx *bolt.Tx) ([]Book, error) {
	// Create a cursor on the books' bucket.
	c := tx.Bucket([]byte(bs.config.BucketName)).Cursor()

	books := []Book{}
	for k, v := c.First(); k != nil; k, v = c.Next() {
		var book Book
		if err := json.Unmarshal(v, &book); err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, nil
}

// wrap keeps not-found as is and reports database level failures as an
// unavailable store.
func (bs *boltBookStorage) wrap(err error) error {
	if err == nil || errors.Is(err, ErrBookNotFound) {
		return err
	}
	bs.logger.Error("storage: bolt transaction failed", zap.Error(err))
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// itob returns an 8-byte big endian representation of v.
func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
