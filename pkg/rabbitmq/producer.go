package rabbitmq

import (
	"context"
	"encoding/json"

	"clipfuel-platform/pkg/config"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("rabbitmq",
	fx.Provide(NewEventProducer),
)

// EventProducer publishes domain events to a durable topic exchange.
type EventProducer struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
}

func NewEventProducer(lc fx.Lifecycle, cfg *config.Config) (*EventProducer, error) {
	conn, err := amqp091.Dial(cfg.Amqp.URL)
	if err != nil {
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := channel.ExchangeDeclare(
		cfg.Amqp.Exchange, // name
		"topic",           // type
		true,              // durable
		false,             // auto-deleted
		false,             // internal
		false,             // no-wait
		nil,               // arguments
	); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	p := &EventProducer{
		conn:     conn,
		channel:  channel,
		exchange: cfg.Amqp.Exchange,
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			p.Close()
			return nil
		},
	})

	zap.L().Info("[AMQP] Connected to broker", zap.String("exchange", cfg.Amqp.Exchange))

	return p, nil
}

// Publish marshals the body to JSON and sends it with the given routing key.
func (p *EventProducer) Publish(ctx context.Context, routingKey string, body interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return err
	}

	return p.channel.PublishWithContext(ctx,
		p.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Body:        jsonBody,
		})
}

// Close gracefully closes the channel and connection.
func (p *EventProducer) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
