package ledger

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValuationJSONPriceIsNumber(t *testing.T) {
	tests := []struct {
		name  string
		price string
		want  string
	}{
		{name: "integer", price: "160", want: `{"stockSymbol":"AAPL","stockPrice":160}`},
		{name: "fraction", price: "17.5", want: `{"stockSymbol":"AAPL","stockPrice":17.5}`},
		{name: "long fraction", price: "0.1234567890123456", want: `{"stockSymbol":"AAPL","stockPrice":0.1234567890123456}`},
		{name: "zero", price: "0", want: `{"stockSymbol":"AAPL","stockPrice":0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Valuation{Symbol: "AAPL", AveragePrice: decimal.RequireFromString(tt.price)}
			raw, err := json.Marshal(v)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(raw) != tt.want {
				t.Fatalf("json = %s, want %s", raw, tt.want)
			}

			var back Valuation
			if err := json.Unmarshal(raw, &back); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if back.Symbol != v.Symbol || !back.AveragePrice.Equal(v.AveragePrice) {
				t.Fatalf("decoded %+v, want %+v", back, v)
			}
		})
	}
}

func TestEmptyValuationJSON(t *testing.T) {
	raw, err := json.Marshal(EmptyValuation())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if want := `{"stockSymbol":"","stockPrice":0}`; string(raw) != want {
		t.Fatalf("json = %s, want %s", raw, want)
	}
}
