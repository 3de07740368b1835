package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/xavierca1/leadflow/internal/usecase"
)

// Publisher is the slice of *amqp.Channel the producer needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type RabbitMQProducer struct {
	Ch Publisher
}

func NewProducer(ch Publisher) *RabbitMQProducer {
	return &RabbitMQProducer{Ch: ch}
}

func (p *RabbitMQProducer) PublishStageChanged(ctx context.Context, event usecase.StageChangedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode stage change: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         "lead.stage_changed",
			MessageId:    event.LeadID + ":" + event.ChangedAt.UTC().Format("20060102T150405.000000000"),
			Timestamp:    event.ChangedAt,
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("publish stage change: %w", err)
	}
	return nil
}
