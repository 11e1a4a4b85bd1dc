// Package messaging forwards store events to RabbitMQ.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DefaultExchange receives every store event, routed by event type
const DefaultExchange = "store.events"

// ErrPublisherClosed is returned when delivering through a closed publisher
var ErrPublisherClosed = errors.New("amqp publisher closed")

// Channel is the subset of *amqp.Channel used by the publisher
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes outbox entries to a durable topic exchange. The
// routing key is the event type, so consumers can bind to "Checkout*" or
// "OrderDeleted" without knowing the payload.
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       Channel
	exchange string
	closed   bool
	logger   *zap.Logger
}

// DialAMQPPublisher connects to the broker and declares the exchange
func DialAMQPPublisher(url, exchange string, logger *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	p, err := NewAMQPPublisher(ch, exchange, logger)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

// NewAMQPPublisher declares the exchange on an open channel
func NewAMQPPublisher(ch Channel, exchange string, logger *zap.Logger) (*AMQPPublisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if exchange == "" {
		exchange = DefaultExchange
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &AMQPPublisher{
		ch:       ch,
		exchange: exchange,
		logger:   logger,
	}, nil
}

// Deliver publishes one entry as a persistent message
func (p *AMQPPublisher) Deliver(ctx context.Context, entry *shared.OutboxEntry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPublisherClosed
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    entry.EventID.String(),
		Type:         entry.EventType,
		Timestamp:    entry.CreatedAt,
		Headers: amqp.Table{
			"aggregate_type": entry.AggregateType,
			"aggregate_id":   entry.AggregateID.String(),
		},
		Body: entry.Payload,
	}
	if err := p.ch.PublishWithContext(ctx, p.exchange, entry.EventType, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", entry.EventType, err)
	}
	p.logger.Debug("event published",
		zap.String("exchange", p.exchange),
		zap.String("routing_key", entry.EventType),
		zap.String("event_id", msg.MessageId),
	)
	return nil
}

// Close closes the channel and the connection it was dialed with
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
