package rabbitmq

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"voicebank/config"
)

// Publisher emits moderation events. Publishing is best-effort: the upload
// pipeline must not fail because the broker is unavailable.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body any) error
	Close() error
}

type publisher struct {
	ch       *amqp.Channel
	exchange string
}

func NewPublisher(conn *amqp.Connection, cfg *config.RabbitMQ) (Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	err = ch.ExchangeDeclare(cfg.ExchangeName, cfg.Kind, true, false, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, err
	}

	return &publisher{ch: ch, exchange: cfg.ExchangeName}, nil
}

func (p *publisher) Publish(ctx context.Context, routingKey string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        payload,
	})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("routing_key", routingKey).Msg("failed to publish event")
		return err
	}

	return nil
}

func (p *publisher) Close() error {
	return p.ch.Close()
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, routingKey string, body any) error { return nil }
func (NopPublisher) Close() error                                                   { return nil }
