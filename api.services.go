package main

import (
	"context"

	"go.uber.org/zap"
)

type BookServiceProvider interface {
	List(ctx context.Context) ([]Book, error)
	Create(ctx context.Context, fields BookFields) ([]Book, error)
	Get(ctx context.Context, id string) (Book, error)
	Update(ctx context.Context, id string, fields BookFields) ([]Book, error)
	Delete(ctx context.Context, id string) ([]Book, error)
}

// BookService runs the storage operations and publishes an event on
// the queue for each applied change. The queue is optional.
type BookService struct {
	logger  *zap.Logger
	config  *Config
	clock   Clocker
	storage BookStorage
	queue   Queuer
}

func NewBookService(logger *zap.Logger, config *Config, clock Clocker, storage BookStorage, queue Queuer) BookServiceProvider {
	return &BookService{
		logger:  logger,
		config:  config,
		clock:   clock,
		storage: storage,
		queue:   queue,
	}
}

func (bs *BookService) List(ctx context.Context) ([]Book, error) {
	return bs.storage.List(ctx)
}

func (bs *BookService) Create(ctx context.Context, fields BookFields) ([]Book, error) {
	books, err := bs.storage.Create(ctx, fields)
	if err != nil {
		return books, err
	}
	if len(books) > 0 {
		bs.publish(ctx, ActionCreate, books[len(books)-1])
	}
	return books, nil
}

func (bs *BookService) Get(ctx context.Context, id string) (Book, error) {
	return bs.storage.Get(ctx, id)
}

func (bs *BookService) Update(ctx context.Context, id string, fields BookFields) ([]Book, error) {
	books, err := bs.storage.Update(ctx, id, fields)
	if err != nil {
		return books, err
	}
	for _, book := range books {
		if book.ID == id {
			bs.publish(ctx, ActionUpdate, book)
			break
		}
	}
	return books, nil
}

func (bs *BookService) Delete(ctx context.Context, id string) ([]Book, error) {
	books, err := bs.storage.Delete(ctx, id)
	if err != nil {
		return books, err
	}
	bs.publish(ctx, ActionDelete, Book{ID: id})
	return books, nil
}

// publish never fails the caller. A lost event only leaves a gap in the journal.
func (bs *BookService) publish(ctx context.Context, action string, book Book) {
	if bs.queue == nil {
		return
	}
	qid := QueueForAction(action)
	event := BookEvent{Action: action, Book: book, At: bs.clock.Now().UTC()}
	if err := bs.queue.Push(ctx, qid, event); err != nil {
		bs.logger.Error("service: failed to push to queue", zap.String("qid", qid), zap.String("book.id", book.ID), zap.Error(err))
	}
}
