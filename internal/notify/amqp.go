package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/longtrq26/court-booking-system/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher is the subset of *amqp.Channel used by AMQPSink
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPSink publishes notifications to a RabbitMQ topic exchange
type AMQPSink struct {
	conn     *amqp.Connection
	ch       Publisher
	exchange string
}

// DialAMQP connects to RabbitMQ and declares a durable topic exchange
func DialAMQP(url, exchange string) (*AMQPSink, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPSink{conn: conn, ch: ch, exchange: exchange}, nil
}

// NewAMQPSink publishes through an already open channel
func NewAMQPSink(ch Publisher, exchange string) *AMQPSink {
	return &AMQPSink{ch: ch, exchange: exchange}
}

func (s *AMQPSink) NotifyAdmins(ctx context.Context, n models.Notification) error {
	return s.publish(ctx, adminEnvelope(n))
}

func (s *AMQPSink) NotifyUser(ctx context.Context, userID uuid.UUID, n models.Notification) error {
	return s.publish(ctx, userEnvelope(userID, n))
}

func (s *AMQPSink) publish(ctx context.Context, env Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}
	err = s.ch.PublishWithContext(ctx, s.exchange, env.RoutingKey(), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    env.Notification.CreatedAt,
		Type:         string(env.Notification.Type),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", env.RoutingKey(), err)
	}
	return nil
}

func (s *AMQPSink) Close() error {
	if c, ok := s.ch.(*amqp.Channel); ok && c != nil {
		_ = c.Close()
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
