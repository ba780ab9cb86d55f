package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaMailer publishes mail events for a separate mail worker to deliver.
// Messages are keyed by login so that one account's mails stay ordered.
type KafkaMailer struct {
	sender
	writer messageWriter
}

func NewKafkaMailer(brokers []string, topic, baseURL string) *KafkaMailer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: 10 * time.Second,
	}
	return newKafkaMailer(w, baseURL)
}

func newKafkaMailer(w messageWriter, baseURL string) *KafkaMailer {
	m := &KafkaMailer{writer: w}
	m.sender = sender{baseURL: baseURL, send: m.publish}
	return m
}

func (m *KafkaMailer) publish(ctx context.Context, e Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode mail event: %w", err)
	}
	err = m.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.Login),
		Value: value,
		Time:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("publish %s mail event: %w", e.Kind, err)
	}
	return nil
}

func (m *KafkaMailer) Close() error {
	return m.writer.Close()
}
