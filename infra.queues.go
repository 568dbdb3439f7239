package main

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Predefinied Queue IDs.
const (
	CreateQueue = "creation"
	UpdateQueue = "updating"
	DeleteQueue = "deletion"
)

// ErrQueueFull is returned when the memory queue cannot take more events.
var ErrQueueFull = errors.New("queue is full")

// Ensure both queues implement Queuer.
var (
	_ Queuer = (*redisQueue)(nil)
	_ Queuer = (*memoryQueue)(nil)
)

// Queuer describes a queue.
type Queuer interface {
	Push(ctx context.Context, qid string, event BookEvent) error
	Pop(ctx context.Context, qids ...string) (string, BookEvent, error)
}

// QueueForAction returns the queue id where events of the action go.
func QueueForAction(action string) string {
	switch action {
	case ActionCreate:
		return CreateQueue
	case ActionUpdate:
		return UpdateQueue
	default:
		return DeleteQueue
	}
}

// redisQueue represents a queue which implements the Queuer interface.
type redisQueue struct {
	client *redis.Client
}

func NewRedisQueue(client *redis.Client) Queuer {
	return &redisQueue{client: client}
}

// Push enqueues an event onto the queue identified by qid.
func (q *redisQueue) Push(ctx context.Context, qid string, event BookEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return q.client.RPush(ctx, qid, eventBytes).Err()
}

// Pop returns the first dequeued event from the list of queue ids.
func (q *redisQueue) Pop(ctx context.Context, qids ...string) (string, BookEvent, error) {
	var event BookEvent
	var qid string
	infos, err := q.client.BLPop(ctx, 0*time.Second, qids...).Result()
	if err != nil {
		return qid, event, err
	}

	if err = json.Unmarshal([]byte(infos[1]), &event); err != nil {
		return qid, event, err
	}
	qid = infos[0]
	return qid, event, nil
}

type queueItem struct {
	qid   string
	event BookEvent
}

// memoryQueue is a bounded in-process queue. All queue ids share one
// channel so Pop serves them in push order and ignores its qids filter.
type memoryQueue struct {
	items chan queueItem
}

func NewMemoryQueue(capacity int) Queuer {
	return &memoryQueue{items: make(chan queueItem, capacity)}
}

// Push enqueues the event without blocking.
func (q *memoryQueue) Push(ctx context.Context, qid string, event BookEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case q.items <- queueItem{qid: qid, event: event}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Pop waits for the next event or the context end.
func (q *memoryQueue) Pop(ctx context.Context, _ ...string) (string, BookEvent, error) {
	select {
	case item := <-q.items:
		return item.qid, item.event, nil
	case <-ctx.Done():
		return "", BookEvent{}, ctx.Err()
	}
}
