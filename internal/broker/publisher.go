// Package broker publishes domain events to RabbitMQ for external webhook
// consumers. Routing keys are tenant-scoped: <tenant_id>.<event_type>.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/spec-kit/whatsapp-crm/internal/config"
	"github.com/spec-kit/whatsapp-crm/internal/events"
)

// Publisher pushes event envelopes to a durable topic exchange. It keeps a
// single shared connection/channel and redials lazily when the connection
// drops.
type Publisher struct {
	cfg    config.BrokerConfig
	logger *zap.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher constructs a Publisher and performs the initial dial. An
// empty broker URL returns (nil, nil): fan-out is optional.
func NewPublisher(cfg config.BrokerConfig, logger *zap.Logger) (*Publisher, error) {
	if cfg.URL == "" {
		logger.Warn("BROKER_URL not provided; event fan-out disabled")
		return nil, nil
	}
	p := &Publisher{cfg: cfg, logger: logger}
	if _, err := p.channel(); err != nil {
		return nil, err
	}
	return p, nil
}

// channel returns a usable channel, redialing when the connection dropped.
// The returned channel is snapshotted under the lock; concurrent publishers
// must never read p.ch directly.
func (p *Publisher) channel() (*amqp.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil && !p.conn.IsClosed() && p.ch != nil {
		return p.ch, nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	conn, err := amqp.Dial(p.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		p.cfg.Exchange,
		"topic",
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	p.conn = conn
	p.ch = ch
	p.logger.Info("connected to broker", zap.String("exchange", p.cfg.Exchange))
	return ch, nil
}

// Publish sends one event envelope. Safe on a nil Publisher.
func (p *Publisher) Publish(ctx context.Context, event events.Event) error {
	if p == nil {
		return nil
	}
	ch, err := p.channel()
	if err != nil {
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msgID := event.ID
	if msgID == "" {
		msgID = uuid.NewString()
	}
	correlationID := event.CorrelationID
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	routingKey := event.TenantID + "." + string(event.Type)
	err = ch.PublishWithContext(ctx, p.cfg.Exchange, routingKey, false, false,
		amqp.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp.Persistent,
			MessageId:     msgID,
			CorrelationId: correlationID,
			Timestamp:     time.Now(),
			Body:          body,
		})
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	p.logger.Debug("event published",
		zap.String("routing_key", routingKey),
		zap.Int("bytes", len(body)))
	return nil
}

// Ping verifies broker connectivity, redialing if needed. Safe on a nil
// Publisher.
func (p *Publisher) Ping() error {
	if p == nil {
		return nil
	}
	_, err := p.channel()
	return err
}

// Close releases the connection. Safe on a nil Publisher.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
