package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/trogers1052/strategy-forge/internal/models"
)

// EventSource identifies this service in published envelopes
const EventSource = "strategy-forge"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer handles publishing events to Kafka
type Producer struct {
	writer messageWriter
	topic  string
	now    func() time.Time
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}

	return newProducer(writer, topic)
}

func newProducer(w messageWriter, topic string) *Producer {
	return &Producer{
		writer: w,
		topic:  topic,
		now:    time.Now,
	}
}

// PublishSignal publishes an ENTRY_SIGNAL or EXIT_SIGNAL event keyed by symbol
func (p *Producer) PublishSignal(ctx context.Context, evt models.SignalEvent) error {
	return p.publish(ctx, evt.Symbol, evt.EventType(), evt)
}

// PublishBacktestCompleted publishes a BACKTEST_COMPLETED event keyed by symbol
func (p *Producer) PublishBacktestCompleted(ctx context.Context, evt models.BacktestCompletedEvent) error {
	return p.publish(ctx, evt.Symbol, models.EventBacktestCompleted, evt)
}

func (p *Producer) publish(ctx context.Context, key, eventType string, data interface{}) error {
	event := models.Event{
		EventType: eventType,
		Source:    EventSource,
		Timestamp: p.now().UTC(),
		Data:      data,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
