package ledger

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Valuation is the volume-weighted average price of one instrument.
type Valuation struct {
	Symbol       string          `json:"stockSymbol"`
	AveragePrice decimal.Decimal `json:"stockPrice"`
}

// MarshalJSON writes stockPrice as a JSON number carrying the exact decimal digits.
func (v Valuation) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Symbol       string      `json:"stockSymbol"`
		AveragePrice json.Number `json:"stockPrice"`
	}{
		Symbol:       v.Symbol,
		AveragePrice: json.Number(v.AveragePrice.String()),
	})
}

// EmptyValuation is returned for symbols the ledger does not know.
func EmptyValuation() Valuation {
	return Valuation{AveragePrice: decimal.Zero}
}

// IsEmpty reports whether v carries no instrument.
func (v Valuation) IsEmpty() bool {
	return v.Symbol == ""
}
