package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	ledger "github.com/lidne/stockexchange/internal/domain/entity/ledger"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Publisher writes persistent JSON messages to one fanout exchange.
type Publisher struct {
	channel  *amqp.Channel
	exchange string
	logger   *logrus.Entry
	mu       sync.Mutex
}

func NewPublisher(conn *amqp.Connection, exchange string, logger *logrus.Logger) (*Publisher, error) {
	if exchange == "" {
		return nil, errors.New("exchange name cannot be empty")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("create channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &Publisher{
		channel:  ch,
		exchange: exchange,
		logger:   logger.WithFields(logrus.Fields{"component": "rabbitmq_publisher", "exchange": exchange}),
	}, nil
}

// PublishTradeRecorded announces a committed trade.
func (p *Publisher) PublishTradeRecorded(ctx context.Context, event ledger.TradeRecorded) error {
	return p.Publish(ctx, event)
}

func (p *Publisher) Publish(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.channel.PublishWithContext(ctx, p.exchange, "", false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}); err != nil {
		return fmt.Errorf("publish to %s: %w", p.exchange, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	if p == nil || p.channel == nil {
		return nil
	}
	if err := p.channel.Close(); err != nil {
		p.logger.WithError(err).Error("close rabbitmq channel")
		return err
	}
	return nil
}
