package main

import (
	"context"

	"go.uber.org/zap"
)

type Consumer interface {
	Consume(ctx context.Context, qids ...string) error
}

// journalConsumer moves books change events from the queue into the journal.
type journalConsumer struct {
	logger  *zap.Logger
	queue   Queuer
	journal Journaler
}

func NewJournalConsumer(logger *zap.Logger, q Queuer, j Journaler) Consumer {
	return &journalConsumer{logger, q, j}
}

func (jc *journalConsumer) Consume(ctx context.Context, qids ...string) error {
	var event BookEvent
	var err error
	var qid string
	for {
		qid, event, err = jc.queue.Pop(ctx, qids...)
		if err != nil && ctx.Err() != nil {
			jc.logger.Info("consumer: queue pop call: context is done: exit", zap.String("reason", ctx.Err().Error()))
			return nil
		}

		if err != nil {
			jc.logger.Error("consumer: error on queue pop call", zap.Error(err))
			continue
		}

		switch qid {
		case CreateQueue, UpdateQueue, DeleteQueue:
			if _, err = jc.journal.Append(ctx, event); err != nil {
				jc.logger.Error("consumer: failed to journal", zap.String("qid", qid), zap.Any("event", event), zap.Error(err))
			}
		default:
			jc.logger.Warn("consumer: received event on unknow queue id", zap.String("qid", qid), zap.Any("event", event))
		}
	}
}
