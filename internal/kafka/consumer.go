package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/strategy-forge/internal/models"
	"github.com/trogers1052/strategy-forge/internal/observability"
)

// MarketDataRepository stores ingested bars and sentiment scores
type MarketDataRepository interface {
	CreatePriceData(ctx context.Context, p *models.PriceDataDaily) error
	CreateSentiment(ctx context.Context, s *models.SentimentDaily) error
}

// Invalidator drops cached ranges for a symbol after new data lands
type Invalidator interface {
	Invalidate(ctx context.Context, symbol string) error
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer ingests market data events from Kafka into the price store
type Consumer struct {
	reader      messageReader
	topic       string
	repo        MarketDataRepository
	invalidator Invalidator
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// inboundEvent defers decoding of the payload until the type is known
type inboundEvent struct {
	EventType string          `json:"event_type"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewConsumer creates a new Kafka consumer for market data events
func NewConsumer(brokers []string, topic, groupID string, repo MarketDataRepository, metrics *observability.Metrics, logger *slog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})

	return newConsumer(reader, topic, repo, metrics, logger)
}

func newConsumer(r messageReader, topic string, repo MarketDataRepository, metrics *observability.Metrics, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		reader:  r,
		topic:   topic,
		repo:    repo,
		metrics: metrics,
		logger:  logger.With("component", "kafka_consumer", "topic", topic),
	}
}

// WithInvalidator sets a cache to invalidate after each stored event
func (c *Consumer) WithInvalidator(inv Invalidator) *Consumer {
	c.invalidator = inv
	return c
}

// Start consumes messages until ctx is cancelled
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("starting kafka consumer")

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("kafka consumer shutting down")
				return nil
			}
			c.logger.Warn("error reading message", "error", err)
			continue
		}

		if err := c.processMessage(ctx, msg); err != nil {
			c.logger.Warn("error processing message",
				"partition", msg.Partition, "offset", msg.Offset, "error", err)
		}
	}
}

// processMessage handles a single Kafka message. Unknown event types are ignored.
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var event inboundEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.metrics.RecordMarketDataEvent("unknown", "malformed")
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	var err error
	switch event.EventType {
	case models.EventPriceBar:
		err = c.handlePriceBar(ctx, event.Data)
	case models.EventSentimentScore:
		err = c.handleSentiment(ctx, event.Data)
	default:
		c.logger.Debug("ignoring event type", "event_type", event.EventType)
		c.metrics.RecordMarketDataEvent(event.EventType, "ignored")
		return nil
	}

	if err != nil {
		c.metrics.RecordMarketDataEvent(event.EventType, "error")
		return err
	}
	c.metrics.RecordMarketDataEvent(event.EventType, "ok")
	return nil
}

func (c *Consumer) handlePriceBar(ctx context.Context, data json.RawMessage) error {
	var bar models.PriceBarEvent
	if err := json.Unmarshal(data, &bar); err != nil {
		return fmt.Errorf("failed to unmarshal price bar: %w", err)
	}
	p, err := convertPriceBar(bar)
	if err != nil {
		return err
	}
	if err := c.repo.CreatePriceData(ctx, p); err != nil {
		return fmt.Errorf("failed to save price data: %w", err)
	}
	c.logger.Debug("saved price bar", "symbol", p.Symbol, "date", bar.Date)
	c.invalidate(ctx, p.Symbol)
	return nil
}

func (c *Consumer) handleSentiment(ctx context.Context, data json.RawMessage) error {
	var score models.SentimentScoreEvent
	if err := json.Unmarshal(data, &score); err != nil {
		return fmt.Errorf("failed to unmarshal sentiment score: %w", err)
	}
	s, err := convertSentiment(score)
	if err != nil {
		return err
	}
	if err := c.repo.CreateSentiment(ctx, s); err != nil {
		return fmt.Errorf("failed to save sentiment: %w", err)
	}
	c.logger.Debug("saved sentiment score", "symbol", s.Symbol, "date", score.Date)
	c.invalidate(ctx, s.Symbol)
	return nil
}

func (c *Consumer) invalidate(ctx context.Context, symbol string) {
	if c.invalidator == nil {
		return
	}
	if err := c.invalidator.Invalidate(ctx, symbol); err != nil {
		c.logger.Warn("cache invalidation failed", "symbol", symbol, "error", err)
	}
}

func convertPriceBar(bar models.PriceBarEvent) (*models.PriceDataDaily, error) {
	symbol := strings.ToUpper(strings.TrimSpace(bar.Symbol))
	if symbol == "" {
		return nil, fmt.Errorf("price bar missing symbol")
	}
	date, err := time.Parse(models.DateLayout, bar.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid price bar date %q: %w", bar.Date, err)
	}
	if !bar.Close.IsPositive() {
		return nil, fmt.Errorf("invalid close %s for %s", bar.Close, symbol)
	}
	if bar.High.LessThan(bar.Low) {
		return nil, fmt.Errorf("high %s below low %s for %s", bar.High, bar.Low, symbol)
	}
	if bar.Volume < 0 {
		return nil, fmt.Errorf("negative volume for %s", symbol)
	}

	return &models.PriceDataDaily{
		Symbol: symbol,
		Date:   date,
		Open:   bar.Open,
		High:   bar.High,
		Low:    bar.Low,
		Close:  bar.Close,
		Volume: bar.Volume,
	}, nil
}

func convertSentiment(score models.SentimentScoreEvent) (*models.SentimentDaily, error) {
	symbol := strings.ToUpper(strings.TrimSpace(score.Symbol))
	if symbol == "" {
		return nil, fmt.Errorf("sentiment score missing symbol")
	}
	date, err := time.Parse(models.DateLayout, score.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid sentiment date %q: %w", score.Date, err)
	}
	if score.Score.LessThan(decimal.Zero) || score.Score.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("sentiment score %s out of range [0,1] for %s", score.Score, symbol)
	}

	return &models.SentimentDaily{
		Symbol: symbol,
		Date:   date,
		Score:  score.Score,
	}, nil
}

// Close closes the Kafka consumer
func (c *Consumer) Close() error {
	return c.reader.Close()
}
