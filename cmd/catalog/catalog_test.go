package main

import (
	"context"
	"errors"
	"reflect"
	"testing"

	ledger "github.com/lidne/stockexchange/internal/domain/entity/ledger"

	logrustest "github.com/sirupsen/logrus/hooks/test"
)

type fakeShare struct {
	ticker   string
	tradable bool
}

func (s fakeShare) GetTicker() string              { return s.ticker }
func (s fakeShare) GetApiTradeAvailableFlag() bool { return s.tradable }

type fakeRegistrar struct {
	existing map[string]bool
	failOn   string
	added    []string
}

func (r *fakeRegistrar) RegisterInstrument(_ context.Context, symbol string) error {
	if symbol == r.failOn {
		return ledger.NewStoreError("create instrument", errors.New("connection reset"))
	}
	if r.existing[symbol] {
		return ledger.ErrSymbolExists
	}
	r.added = append(r.added, symbol)
	return nil
}

func TestSelectTickers(t *testing.T) {
	shares := []tickerSource{
		fakeShare{ticker: "SBER", tradable: true},
		fakeShare{ticker: " GAZP ", tradable: true},
		fakeShare{ticker: "SBER", tradable: true},
		fakeShare{ticker: "LKOH", tradable: false},
		fakeShare{ticker: "", tradable: true},
		fakeShare{ticker: "VERYLONGTICKER", tradable: true},
		fakeShare{ticker: "AFLT", tradable: true},
	}

	tests := []struct {
		name  string
		allow []string
		want  []string
	}{
		{name: "no allow list", want: []string{"AFLT", "GAZP", "SBER"}},
		{name: "allow list", allow: []string{"SBER", " GAZP", "LKOH"}, want: []string{"GAZP", "SBER"}},
		{name: "blank allow list entries", allow: []string{" ", ""}, want: []string{"AFLT", "GAZP", "SBER"}},
		{name: "nothing matches", allow: []string{"MOEX"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := selectTickers(shares, tt.allow)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("selectTickers() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRegisterTickersSkipsExisting(t *testing.T) {
	logger, _ := logrustest.NewNullLogger()
	reg := &fakeRegistrar{existing: map[string]bool{"GAZP": true}}

	stats, err := registerTickers(context.Background(), reg, []string{"AFLT", "GAZP", "SBER"}, logger)
	if err != nil {
		t.Fatalf("registerTickers() error = %v", err)
	}
	if stats.Added != 2 || stats.Skipped != 1 {
		t.Fatalf("stats = %+v, want 2 added and 1 skipped", stats)
	}
	if want := []string{"AFLT", "SBER"}; !reflect.DeepEqual(reg.added, want) {
		t.Fatalf("added = %v, want %v", reg.added, want)
	}
}

func TestRegisterTickersStopsOnStoreError(t *testing.T) {
	logger, _ := logrustest.NewNullLogger()
	reg := &fakeRegistrar{failOn: "GAZP"}

	stats, err := registerTickers(context.Background(), reg, []string{"AFLT", "GAZP", "SBER"}, logger)
	var storeErr *ledger.StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("expected StoreError, got %v", err)
	}
	if stats.Added != 1 {
		t.Fatalf("added = %d, want 1", stats.Added)
	}
	if len(reg.added) != 1 || reg.added[0] != "AFLT" {
		t.Fatalf("registration continued past failure: %v", reg.added)
	}
}

type countingCache struct {
	invalidations int
}

func (c *countingCache) Invalidate(context.Context) error {
	c.invalidations++
	return nil
}

func TestInvalidateValuations(t *testing.T) {
	cache := &countingCache{}

	if err := invalidateValuations(context.Background(), cache, syncStats{Skipped: 3}); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if cache.invalidations != 0 {
		t.Fatal("nothing was added, cache should be kept")
	}
	if err := invalidateValuations(context.Background(), cache, syncStats{Added: 2, Skipped: 1}); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if cache.invalidations != 1 {
		t.Fatalf("invalidations = %d, want 1", cache.invalidations)
	}
}
