package main

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrBookNotFound is returned when no book matches the provided id.
	ErrBookNotFound = errors.New("book not found")
	// ErrStoreUnavailable is returned when the storage cannot be safely
	// accessed. Backends may wrap it with the underlying cause.
	ErrStoreUnavailable = errors.New("error accessing the book store")
)

// Book represents a book entity.
type Book struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Author   string    `json:"author"`
	Language string    `json:"language"`
	Pages    int32     `json:"pages"`
	AddedAt  time.Time `json:"addedAt"`
}

// BookFields holds the caller provided part of a book.
type BookFields struct {
	Name     string `json:"name"`
	Author   string `json:"author"`
	Language string `json:"language"`
	Pages    int32  `json:"pages"`
}

// Fields extracts the editable fields of the book.
func (b Book) Fields() BookFields {
	return BookFields{Name: b.Name, Author: b.Author, Language: b.Language, Pages: b.Pages}
}

// apply replaces the editable fields. ID and AddedAt never change.
func (b *Book) apply(f BookFields) {
	b.Name = f.Name
	b.Author = f.Author
	b.Language = f.Language
	b.Pages = f.Pages
}

// BookStorage defines possible operations on book entity. Every mutation
// returns the whole collection as it is right after the change, in
// insertion order. On Create the new book is the last element.
type BookStorage interface {
	List(ctx context.Context) ([]Book, error)
	Create(ctx context.Context, fields BookFields) ([]Book, error)
	Get(ctx context.Context, id string) (Book, error)
	Update(ctx context.Context, id string, fields BookFields) ([]Book, error)
	Delete(ctx context.Context, id string) ([]Book, error)
}
