package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/xavierca1/leadflow/internal/usecase"
	"go.uber.org/zap"
)

// StageChangeHandler reacts to a lead entering a new stage.
type StageChangeHandler interface {
	HandleStageChanged(ctx context.Context, event usecase.StageChangedEvent) error
}

// Consumer is the slice of *amqp.Channel the worker needs.
type Consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

type Worker struct {
	Channel Consumer
	Handler StageChangeHandler
	Logger  *zap.Logger
	Timeout time.Duration
}

func NewWorker(ch Consumer, handler StageChangeHandler, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{Channel: ch, Handler: handler, Logger: logger, Timeout: 30 * time.Second}
}

// Start consumes queueName until ctx is done or the channel closes.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(queueName, "leadflow-worker", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	w.Logger.Info("worker consuming", zap.String("queue", queueName))
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			w.handle(ctx, d)
		}
	}
}

// handle acks processed messages and dead-letters the rest.
func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	var event usecase.StageChangedEvent
	if err := json.Unmarshal(d.Body, &event); err != nil || event.LeadID == "" {
		w.Logger.Warn("discarding malformed stage change", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	log := w.Logger.With(zap.String("lead_id", event.LeadID), zap.String("to_stage", event.ToStage))

	jobCtx, cancel := context.WithTimeout(ctx, w.Timeout)
	defer cancel()

	if err := w.Handler.HandleStageChanged(jobCtx, event); err != nil {
		log.Error("stage change handler failed", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}
	log.Debug("stage change processed")
	_ = d.Ack(false)
}
