package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/Veraticus/ledgerflow/internal/model"
)

// Channel is the subset of *amqp091.Channel the publisher uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// AMQPPublisher forwards alerts to a direct exchange as JSON messages.
type AMQPPublisher struct {
	conn       *amqp091.Connection
	channel    Channel
	exchange   string
	routingKey string
}

// DialAMQP connects to the broker at url and declares the exchange.
func DialAMQP(url, exchange, routingKey string) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	p, err := NewAMQPPublisher(ch, exchange, routingKey)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

// NewAMQPPublisher wraps an open channel and declares the exchange on it.
func NewAMQPPublisher(ch Channel, exchange, routingKey string) (*AMQPPublisher, error) {
	err := ch.ExchangeDeclare(
		exchange, // name
		"direct", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPPublisher{channel: ch, exchange: exchange, routingKey: routingKey}, nil
}

// alertMessage is the wire form of an alert.
type alertMessage struct {
	model.Alert
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Publish implements Sink.
func (p *AMQPPublisher) Publish(ctx context.Context, alerts ...model.Alert) error {
	for _, alert := range alerts {
		body, err := json.Marshal(alertMessage{Alert: alert, Title: alert.Title(), Message: alert.Message()})
		if err != nil {
			return fmt.Errorf("marshal alert: %w", err)
		}

		pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = p.channel.PublishWithContext(
			pubCtx,
			p.exchange,   // exchange
			p.routingKey, // routing key
			false,        // mandatory
			false,        // immediate
			amqp091.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp091.Persistent,
				Timestamp:    alert.RaisedAt,
				Type:         string(alert.Type),
				Body:         body,
			},
		)
		cancel()
		if err != nil {
			return fmt.Errorf("publish alert: %w", err)
		}

		slog.InfoContext(ctx, "Published budget alert",
			"budget_id", alert.BudgetID,
			"type", alert.Type,
			"exchange", p.exchange,
			"routing_key", p.routingKey)
	}
	return nil
}

// Close closes the channel and, when the publisher dialled it, the connection.
func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
