package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/segmentio/kafka-go"

	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/env"
)

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// LoadKafkaConfig reads KAFKA_ENABLED, KAFKA_BROKERS and KAFKA_PAYMENT_TOPIC.
func LoadKafkaConfig() KafkaConfig {
	var brokers []string
	for _, b := range strings.Split(env.GetEnv("KAFKA_BROKERS", "localhost:9092"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return KafkaConfig{
		Enabled: env.GetBool("KAFKA_ENABLED", false),
		Brokers: brokers,
		Topic:   env.GetEnv("KAFKA_PAYMENT_TOPIC", "payment-events"),
	}
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events keyed by payment id so all events of one
// payment land on the same partition in order.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

func NewKafkaPublisher(cfg KafkaConfig) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		Async:        true,
		ErrorLogger:  kafka.LoggerFunc(func(msg string, args ...interface{}) { log.Errorf("[Events] "+msg, args...) }),
	}
	topic := cfg.Topic
	writer.Completion = func(messages []kafka.Message, err error) {
		for _, line := range deliveryFailures(topic, messages, err) {
			log.Error(line)
		}
	}
	return &KafkaPublisher{writer: writer, topic: cfg.Topic}
}

// deliveryFailures describes each undelivered message. Messages written
// through a topic-bound writer carry no topic of their own.
func deliveryFailures(topic string, messages []kafka.Message, err error) []string {
	if err == nil {
		return nil
	}
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		lines = append(lines, fmt.Sprintf("[Events] Failed to deliver to %s for payment %s: %v", topic, string(msg.Key), err))
	}
	return lines
}

func (p *KafkaPublisher) Publish(ctx context.Context, event PaymentEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode payment event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(event.PaymentID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to produce payment event to Kafka: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	if p.writer == nil {
		return nil
	}
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka producer: %w", err)
	}
	log.Info("[Events] Kafka producer closed")
	return nil
}
