package ledger

// MaxSymbolLength bounds the ticker symbol of an instrument.
const MaxSymbolLength = 10

// Instrument corresponds to the `instruments` table.
// Trade history is not embedded; stores return it alongside the instrument as InstrumentTrades.
type Instrument struct {
	ID     int64  `json:"id"`
	Symbol string `json:"symbol"`
}

// InstrumentTrades pairs an instrument with its full trade history, loaded eagerly by the store.
type InstrumentTrades struct {
	Instrument
	Trades []TradeRecord `json:"trades"`
}

// Clone returns a deep copy so callers can never mutate store state through a result.
func (it InstrumentTrades) Clone() InstrumentTrades {
	out := InstrumentTrades{Instrument: it.Instrument}
	if it.Trades != nil {
		out.Trades = make([]TradeRecord, len(it.Trades))
		copy(out.Trades, it.Trades)
	}
	return out
}
