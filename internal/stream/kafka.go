// Package stream ships recorded security events off the box: a Kafka producer
// on the write side and a Loki push client consumed by the stream worker.
package stream

import (
	"context"
	"log"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"

	"sessionguard/internal/event/domain"
)

// KafkaProducer implements event.Emitter using segmentio/kafka-go.
type KafkaProducer struct {
	writer *kafka.Writer
	topic  string
}

// NewKafkaProducer creates a Kafka producer that writes security events to the
// given topic. Returns nil when brokers or topic are unset, so an unconfigured
// stream degrades to persistence only. Call Close when shutting down.
func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
	}
	return &KafkaProducer{writer: writer, topic: topic}
}

// Emit serializes the event as JSON and writes it to the Kafka topic, keyed by
// user so one user's events stay ordered within a partition. Uses a short
// timeout so slow Kafka does not block callers indefinitely.
func (p *KafkaProducer) Emit(ctx context.Context, e *domain.Event) error {
	if p == nil || p.writer == nil || e == nil {
		return nil
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err = p.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(e.UserID),
		Value: payload,
	})
	if err != nil {
		log.Printf("stream: kafka emit failed: %v", err)
		return err
	}
	return nil
}

// Close closes the Kafka writer. Safe to call multiple times.
func (p *KafkaProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
