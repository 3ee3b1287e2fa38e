package trades

import (
	"context"
	"errors"
	"fmt"

	identity "github.com/lidne/stockexchange/internal/domain/entity/identity"
	ledger "github.com/lidne/stockexchange/internal/domain/entity/ledger"
	interfaces "github.com/lidne/stockexchange/internal/domain/interfaces"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	MessageStockNotFound  = "Stock Not Found"
	MessageBrokerNotFound = "Broker Not Found"
	MessageProcessed      = "Processed Successfully"
)

// Notification is an incoming report of an executed trade.
type Notification struct {
	TickerSymbol string          `json:"tickerSymbol"`
	Price        decimal.Decimal `json:"price"`
	ShareCount   decimal.Decimal `json:"shareCount"`
	BrokerName   string          `json:"brokerName"`
}

// Result is the business outcome of a notification. Infrastructure failures are
// reported through the error return instead.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type Service struct {
	repo      interfaces.LedgerStore
	brokers   interfaces.BrokerDirectory
	publisher interfaces.TradeEventPublisher
	logger    *logrus.Entry
}

// NewService wires the trade processor. publisher may be nil.
func NewService(repo interfaces.LedgerStore, brokers interfaces.BrokerDirectory, publisher interfaces.TradeEventPublisher, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		repo:      repo,
		brokers:   brokers,
		publisher: publisher,
		logger:    logger.WithField("component", "trade_processor"),
	}
}

// ProcessTradeNotification validates n against the instrument catalog and the broker
// directory and records the trade. Nothing is written unless both checks pass.
func (s *Service) ProcessTradeNotification(ctx context.Context, n Notification) (Result, error) {
	instrument, err := s.repo.FindBySymbol(ctx, n.TickerSymbol)
	if err != nil {
		if errors.Is(err, ledger.ErrInstrumentNotFound) {
			return Result{Success: false, Message: MessageStockNotFound}, nil
		}
		return Result{}, err
	}
	if instrument == nil {
		return Result{Success: false, Message: MessageStockNotFound}, nil
	}

	if _, err := s.brokers.ResolveBroker(ctx, n.BrokerName); err != nil {
		if errors.Is(err, identity.ErrBrokerNotFound) {
			return Result{Success: false, Message: MessageBrokerNotFound}, nil
		}
		return Result{}, fmt.Errorf("resolve broker %q: %w", n.BrokerName, err)
	}

	record := &ledger.TradeRecord{
		InstrumentID: instrument.ID,
		Price:        n.Price,
		ShareCount:   n.ShareCount,
		BrokerName:   n.BrokerName,
	}
	if err := s.repo.AppendTrade(ctx, record); err != nil {
		return Result{}, err
	}

	s.publish(ctx, ledger.NewTradeRecorded(instrument.Instrument, *record))
	return Result{Success: true, Message: MessageProcessed}, nil
}

// publish is best effort: the trade is already committed.
func (s *Service) publish(ctx context.Context, event ledger.TradeRecorded) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTradeRecorded(ctx, event); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"trade_id": event.TradeID,
			"symbol":   event.Symbol,
		}).Warn("failed to publish trade recorded event")
	}
}
