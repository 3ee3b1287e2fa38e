package streaming

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	ledger "github.com/lidne/stockexchange/internal/domain/entity/ledger"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher emits trade events to a Kafka topic keyed by symbol, so every trade of
// one instrument lands on the same partition in commit order.
type Publisher struct {
	writer messageWriter
	topic  string
	logger *logrus.Entry
}

func NewPublisher(brokers []string, topic string, logger *logrus.Logger) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           50 * time.Millisecond,
	}
	return newPublisher(writer, topic, logger), nil
}

func newPublisher(writer messageWriter, topic string, logger *logrus.Logger) *Publisher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Publisher{
		writer: writer,
		topic:  topic,
		logger: logger.WithFields(logrus.Fields{"component": "kafka_publisher", "topic": topic}),
	}
}

func (p *Publisher) PublishTradeRecorded(ctx context.Context, event ledger.TradeRecorded) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(event.Symbol),
		Value: data,
		Time:  event.TransactionTime,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write to %s: %w", p.topic, err)
	}
	p.logger.WithFields(logrus.Fields{
		"symbol":   event.Symbol,
		"trade_id": event.TradeID,
	}).Debug("trade event sent")
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
