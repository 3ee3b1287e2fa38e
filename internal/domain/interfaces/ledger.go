package interfaces

import (
	"context"

	ledger "github.com/lidne/stockexchange/internal/domain/entity/ledger"
)

// LedgerStore persists instruments and their trade records.
// Failures of the underlying storage are returned as *ledger.StoreError.
type LedgerStore interface {
	ListAll(ctx context.Context) ([]ledger.InstrumentTrades, error)
	ListBySymbols(ctx context.Context, symbols []string) ([]ledger.InstrumentTrades, error)
	// FindBySymbol returns ledger.ErrInstrumentNotFound when no instrument matches exactly.
	FindBySymbol(ctx context.Context, symbol string) (*ledger.InstrumentTrades, error)
	CreateInstrument(ctx context.Context, instrument *ledger.Instrument) error
	// AppendTrade assigns ID and TransactionTime on record.
	AppendTrade(ctx context.Context, record *ledger.TradeRecord) error
}
