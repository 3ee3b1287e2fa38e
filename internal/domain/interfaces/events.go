package interfaces

import (
	"context"

	ledger "github.com/lidne/stockexchange/internal/domain/entity/ledger"
)

type TradeEventPublisher interface {
	PublishTradeRecorded(ctx context.Context, event ledger.TradeRecorded) error
	Close() error
}

// ValuationCache drops derived valuation reads after the ledger changes.
type ValuationCache interface {
	Invalidate(ctx context.Context) error
}
