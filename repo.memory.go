package main

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

var _ BookStorage = (*memoryBookStorage)(nil) // ensure memoryBookStorage implements BookStorage.

// memoryBookStorage keeps all books in a slice guarded by a single
// reader/writer lock. Slice order is insertion order.
//
// A writer which panics while holding the lock leaves the storage
// poisoned: the mutation may be half-applied, so every later call
// fails with ErrStoreUnavailable until the process restarts.
type memoryBookStorage struct {
	logger   *zap.Logger
	clock    Clocker
	ids      UIDHandler
	mu       sync.RWMutex
	books    []Book
	poisoned bool
}

// NewMemoryBookStorage provides an empty in-memory book storage.
func NewMemoryBookStorage(logger *zap.Logger, clock Clocker, ids UIDHandler) BookStorage {
	return &memoryBookStorage{
		logger: logger,
		clock:  clock,
		ids:    ids,
		books:  []Book{},
	}
}

// List returns a copy of all books.
func (ms *memoryBookStorage) List(_ context.Context) ([]Book, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	if ms.poisoned {
		return nil, ErrStoreUnavailable
	}
	return ms.snapshot(), nil
}

// Create appends a new book with a fresh id and the current UTC time.
func (ms *memoryBookStorage) Create(_ context.Context, fields BookFields) ([]Book, error) {
	return ms.write(func() error {
		book := Book{
			ID:      ms.ids.Generate(BookIDPrefix),
			AddedAt: ms.clock.Now().UTC(),
		}
		book.apply(fields)
		ms.books = append(ms.books, book)
		return nil
	})
}

// Get returns the book matching id.
func (ms *memoryBookStorage) Get(_ context.Context, id string) (Book, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	if ms.poisoned {
		return Book{}, ErrStoreUnavailable
	}
	i := ms.indexOf(id)
	if i < 0 {
		return Book{}, ErrBookNotFound
	}
	return ms.books[i], nil
}

// Update replaces the editable fields of the book matching id.
func (ms *memoryBookStorage) Update(_ context.Context, id string, fields BookFields) ([]Book, error) {
	return ms.write(func() error {
		i := ms.indexOf(id)
		if i < 0 {
			return ErrBookNotFound
		}
		ms.books[i].apply(fields)
		return nil
	})
}

// Delete removes the book matching id and keeps the order of the others.
func (ms *memoryBookStorage) Delete(_ context.Context, id string) ([]Book, error) {
	return ms.write(func() error {
		i := ms.indexOf(id)
		if i < 0 {
			return ErrBookNotFound
		}
		ms.books = append(ms.books[:i], ms.books[i+1:]...)
		return nil
	})
}

// write runs fn under the exclusive lock and returns the resulting
// snapshot. The poisoned flag is only cleared once fn returned.
func (ms *memoryBookStorage) write(fn func() error) ([]Book, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.poisoned {
		ms.logger.Error("storage: write rejected on poisoned memory store")
		return nil, ErrStoreUnavailable
	}

	ms.poisoned = true
	err := fn()
	ms.poisoned = false
	if err != nil {
		return nil, err
	}
	return ms.snapshot(), nil
}

// indexOf must be called with the lock held.
func (ms *memoryBookStorage) indexOf(id string) int {
	for i := range ms.books {
		if ms.books[i].ID == id {
			return i
		}
	}
	return -1
}

func (ms *memoryBookStorage) snapshot() []Book {
	books := make([]Book, len(ms.books))
	copy(books, ms.books)
	return books
}
