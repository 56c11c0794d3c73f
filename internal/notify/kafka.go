package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/longtrq26/court-booking-system/internal/models"
)

// NewKafkaProducer creates a synchronous producer that waits for all replicas
func NewKafkaProducer(brokers []string) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}
	return producer, nil
}

// KafkaSink publishes notifications to a Kafka topic keyed by booking
type KafkaSink struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaSink(producer sarama.SyncProducer, topic string) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic}
}

func (s *KafkaSink) NotifyAdmins(ctx context.Context, n models.Notification) error {
	return s.send(adminEnvelope(n))
}

func (s *KafkaSink) NotifyUser(ctx context.Context, userID uuid.UUID, n models.Notification) error {
	return s.send(userEnvelope(userID, n))
}

func (s *KafkaSink) send(env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("routing-key"), Value: []byte(env.RoutingKey())},
		},
	}
	if env.Notification.BookingID != nil {
		msg.Key = sarama.StringEncoder(env.Notification.BookingID.String())
	}

	if _, _, err := s.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("failed to send message to topic %s: %w", s.topic, err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.producer.Close()
}
