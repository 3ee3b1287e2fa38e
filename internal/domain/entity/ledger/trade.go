package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeRecord is one executed trade against an instrument (`trade_records` table).
// ID and TransactionTime are assigned by the store when the record is appended.
type TradeRecord struct {
	ID              int64           `json:"id"`
	InstrumentID    int64           `json:"instrument_id"`
	Price           decimal.Decimal `json:"price"`
	ShareCount      decimal.Decimal `json:"share_count"`
	BrokerName      string          `json:"broker_name"`
	TransactionTime time.Time       `json:"transaction_time"`
}

// Notional is price times share count.
func (t TradeRecord) Notional() decimal.Decimal {
	return t.Price.Mul(t.ShareCount)
}

// TradeRecorded is emitted after a trade record has been committed.
type TradeRecorded struct {
	TradeID         int64           `json:"trade_id"`
	InstrumentID    int64           `json:"instrument_id"`
	Symbol          string          `json:"symbol"`
	Price           decimal.Decimal `json:"price"`
	ShareCount      decimal.Decimal `json:"share_count"`
	BrokerName      string          `json:"broker_name"`
	TransactionTime time.Time       `json:"transaction_time"`
}

// NewTradeRecorded builds the event for a stored record of the given instrument.
func NewTradeRecorded(instrument Instrument, record TradeRecord) TradeRecorded {
	return TradeRecorded{
		TradeID:         record.ID,
		InstrumentID:    record.InstrumentID,
		Symbol:          instrument.Symbol,
		Price:           record.Price,
		ShareCount:      record.ShareCount,
		BrokerName:      record.BrokerName,
		TransactionTime: record.TransactionTime,
	}
}
