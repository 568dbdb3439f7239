package main

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// This file contains mocks definitions needed to perform unit tests.

type MockBookStorage struct {
	ListFunc   func(ctx context.Context) ([]Book, error)
	CreateFunc func(ctx context.Context, fields BookFields) ([]Book, error)
	GetFunc    func(ctx context.Context, id string) (Book, error)
	UpdateFunc func(ctx context.Context, id string, fields BookFields) ([]Book, error)
	DeleteFunc func(ctx context.Context, id string) ([]Book, error)
}

// List mocks the behavior of retrieving all books by the repository.
func (m *MockBookStorage) List(ctx context.Context) ([]Book, error) {
	return m.ListFunc(ctx)
}

// Create mocks the behavior of book creation by the repository.
func (m *MockBookStorage) Create(ctx context.Context, fields BookFields) ([]Book, error) {
	return m.CreateFunc(ctx, fields)
}

// Get mocks the behavior of retrieving a book by the repository.
func (m *MockBookStorage) Get(ctx context.Context, id string) (Book, error) {
	return m.GetFunc(ctx, id)
}

// Update mocks the behavior of updating a book by the repository.
func (m *MockBookStorage) Update(ctx context.Context, id string, fields BookFields) ([]Book, error) {
	return m.UpdateFunc(ctx, id, fields)
}

// Delete mocks the behavior of deleting a book by the repository.
func (m *MockBookStorage) Delete(ctx context.Context, id string) ([]Book, error) {
	return m.DeleteFunc(ctx, id)
}

// MockClocker implements a fake Clocker.
type MockClocker struct {
	MockNow time.Time
}

// NewMockClocker returns a mocked instance with fixed time.
func NewMockClocker() *MockClocker {
	return &MockClocker{time.Date(2023, 0o7, 0o2, 0o0, 0o0, 0o0, 0o00000000, time.UTC)}
}

// Now returns an already defined time to be used as mock. This
// equals to `Sun, 02 Jul 2023 00:00:00 UTC` in time.RFC1123 format.
func (mck *MockClocker) Now() time.Time {
	return mck.MockNow
}

// MockUIDHandler implements a fake UIDHandler.
type MockUIDHandler struct {
	MockedUID string
	Valid     bool
}

// NewMockUIDHandler returns a mocked instance with predictable id.
func NewMockUIDHandler(id string, valid bool) *MockUIDHandler {
	return &MockUIDHandler{MockedUID: id, Valid: valid}
}

// Generate constructs a predictable id to be used as mock.
func (muid *MockUIDHandler) Generate(prefix string) string {
	return prefix + ":" + muid.MockedUID
}

// IsValid mocks IsValid behavior by providing configured status.
func (muid *MockUIDHandler) IsValid(_, _ string) bool {
	return muid.Valid
}

// PanicUIDHandler panics on Generate. It simulates a writer
// crashing in the middle of a storage mutation.
type PanicUIDHandler struct {
	*IDsHandler
}

func (PanicUIDHandler) Generate(string) string {
	panic("ids generator crashed")
}

// MockQueue records pushed events.
type MockQueue struct {
	Events []BookEvent
	Err    error
}

func (mq *MockQueue) Push(_ context.Context, _ string, event BookEvent) error {
	if mq.Err != nil {
		return mq.Err
	}
	mq.Events = append(mq.Events, event)
	return nil
}

func (mq *MockQueue) Pop(ctx context.Context, _ ...string) (string, BookEvent, error) {
	<-ctx.Done()
	return "", BookEvent{}, ctx.Err()
}

func sampleFields(name string) BookFields {
	return BookFields{Name: name, Author: "Jerome Amon", Language: "English", Pages: 120}
}

func newTestAPIHandler(bs BookServiceProvider, journal Journaler) *APIHandler {
	views, err := NewViews()
	if err != nil {
		panic(err)
	}
	return NewAPIHandler(
		zap.NewNop(),
		&Config{OpsEndpointsEnable: true, Storage: StorageConfig{Driver: DriverMemory}},
		&Statistics{started: NewMockClocker().Now()},
		NewMockClocker(),
		NewIDsHandler(),
		views,
		journal,
		bs,
	)
}
