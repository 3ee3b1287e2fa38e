package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	apptrades "github.com/lidne/stockexchange/internal/application/service/trades"
	"github.com/lidne/stockexchange/internal/config"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

var errInvalidNotification = errors.New("invalid trade notification")

const deadLetterSuffix = ".dead"

// TradeProcessor records trade notifications.
type TradeProcessor interface {
	ProcessTradeNotification(ctx context.Context, n apptrades.Notification) (apptrades.Result, error)
}

// Consumer drains a durable queue bound to the notifications fanout exchange and feeds
// every message to the trade processor.
type Consumer struct {
	cfg       config.RabbitMQConfig
	processor TradeProcessor
	logger    *logrus.Entry

	conn    *amqp.Connection
	channel *amqp.Channel
	closed  chan *amqp.Error
	wg      sync.WaitGroup
}

// NewConsumer prepares a consumer for the given configuration.
func NewConsumer(cfg config.RabbitMQConfig, processor TradeProcessor, logger *logrus.Logger) (*Consumer, error) {
	if cfg.URL == "" {
		return nil, errors.New("rabbitmq url is required")
	}
	if cfg.NotificationsExchange == "" {
		return nil, errors.New("notifications exchange is required")
	}
	if cfg.NotificationsQueue == "" {
		cfg.NotificationsQueue = cfg.NotificationsExchange + ".ledger"
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Consumer{
		cfg:       cfg,
		processor: processor,
		logger:    logger.WithField("component", "notification_consumer"),
	}, nil
}

// Start establishes the AMQP connection and begins consuming.
func (c *Consumer) Start(ctx context.Context) error {
	conn, err := amqp.Dial(c.cfg.URL)
	if err != nil {
		return fmt.Errorf("connect to rabbitmq: %w", err)
	}
	c.conn = conn
	c.closed = conn.NotifyClose(make(chan *amqp.Error, 1))

	if err := c.startStream(ctx, c.cfg.NotificationsExchange, c.cfg.NotificationsQueue); err != nil {
		c.Close()
		return err
	}

	c.logger.WithFields(logrus.Fields{
		"exchange": c.cfg.NotificationsExchange,
		"queue":    c.cfg.NotificationsQueue,
	}).Info("rabbitmq consumer started")
	return nil
}

// Run starts the consumer and blocks until ctx is done or the connection drops.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.Start(ctx); err != nil {
		return err
	}
	defer c.Close()

	select {
	case <-ctx.Done():
		return nil
	case amqpErr, ok := <-c.closed:
		if ok && amqpErr != nil {
			return fmt.Errorf("rabbitmq connection closed: %w", amqpErr)
		}
		return errors.New("rabbitmq connection closed")
	}
}

// Close stops consumption and releases resources.
func (c *Consumer) Close() error {
	if c.channel != nil {
		_ = c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.wg.Wait()
	return nil
}

func (c *Consumer) startStream(ctx context.Context, exchange, queueName string) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		ch.Close()
		return fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	deadLetters, err := declareDeadLetters(ch, queueName+deadLetterSuffix)
	if err != nil {
		ch.Close()
		return err
	}
	queue, err := ch.QueueDeclare(queueName, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange": deadLetters,
	})
	if err != nil {
		ch.Close()
		return fmt.Errorf("declare queue %s: %w", queueName, err)
	}
	if err := ch.QueueBind(queue.Name, "", exchange, false, nil); err != nil {
		ch.Close()
		return fmt.Errorf("bind queue %s to %s: %w", queue.Name, exchange, err)
	}
	prefetch := c.cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		ch.Close()
		return fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := ch.Consume(queue.Name, "", false, false, false, false, nil)
	if err != nil {
		ch.Close()
		return fmt.Errorf("start consume: %w", err)
	}
	c.channel = ch
	c.wg.Add(1)
	go c.consumeLoop(ctx, deliveries)
	return nil
}

// declareDeadLetters sets up a fanout exchange and a durable queue, both called name,
// that keep the notifications no retry can fix.
func declareDeadLetters(ch *amqp.Channel, name string) (string, error) {
	if err := ch.ExchangeDeclare(name, "fanout", true, false, false, false, nil); err != nil {
		return "", fmt.Errorf("declare dead-letter exchange %s: %w", name, err)
	}
	if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
		return "", fmt.Errorf("declare dead-letter queue %s: %w", name, err)
	}
	if err := ch.QueueBind(name, "", name, false, nil); err != nil {
		return "", fmt.Errorf("bind dead-letter queue %s: %w", name, err)
	}
	return name, nil
}

func (c *Consumer) consumeLoop(ctx context.Context, deliveries <-chan amqp.Delivery) {
	defer c.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case delivery, ok := <-deliveries:
			if !ok {
				return
			}
			c.handleDelivery(ctx, delivery)
		}
	}
}

// handleDelivery settles one message. Rejected notifications are acked since a retry
// cannot change the outcome. Malformed ones are dead-lettered. Infrastructure failures
// are requeued after RetryDelay, which also holds back the rest of the stream while
// the store is unavailable.
func (c *Consumer) handleDelivery(ctx context.Context, delivery amqp.Delivery) {
	log := c.logger.WithField("delivery_tag", delivery.DeliveryTag)

	notification, err := decodeNotification(delivery.Body)
	if err != nil {
		log.WithError(err).Warn("dead-lettering malformed notification")
		if err := delivery.Nack(false, false); err != nil {
			log.WithError(err).Warn("failed to nack delivery")
		}
		return
	}
	log = log.WithFields(logrus.Fields{
		"symbol": notification.TickerSymbol,
		"broker": notification.BrokerName,
	})

	result, err := c.processor.ProcessTradeNotification(ctx, notification)
	if err != nil {
		log.WithError(err).Warn("failed to process notification")
		c.waitBeforeRetry(ctx)
		if err := delivery.Nack(false, true); err != nil {
			log.WithError(err).Warn("failed to nack delivery")
		}
		return
	}
	if result.Success {
		log.Debug("notification processed")
	} else {
		log.WithField("reason", result.Message).Info("notification rejected")
	}
	if err := delivery.Ack(false); err != nil {
		log.WithError(err).Warn("failed to ack delivery")
	}
}

func (c *Consumer) waitBeforeRetry(ctx context.Context) {
	if c.cfg.RetryDelay <= 0 {
		return
	}
	timer := time.NewTimer(c.cfg.RetryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func decodeNotification(body []byte) (apptrades.Notification, error) {
	var n apptrades.Notification
	if err := json.Unmarshal(body, &n); err != nil {
		return apptrades.Notification{}, fmt.Errorf("decode payload: %w", err)
	}
	n.TickerSymbol = strings.TrimSpace(n.TickerSymbol)
	n.BrokerName = strings.TrimSpace(n.BrokerName)
	switch {
	case n.TickerSymbol == "":
		return apptrades.Notification{}, fmt.Errorf("%w: missing ticker symbol", errInvalidNotification)
	case n.BrokerName == "":
		return apptrades.Notification{}, fmt.Errorf("%w: missing broker name", errInvalidNotification)
	case n.Price.IsNegative():
		return apptrades.Notification{}, fmt.Errorf("%w: negative price", errInvalidNotification)
	}
	return n, nil
}
