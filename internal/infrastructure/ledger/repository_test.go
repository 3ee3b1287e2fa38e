package ledger

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	domain "github.com/lidne/stockexchange/internal/domain/entity/ledger"

	"github.com/shopspring/decimal"
)

// newTestRepository connects to LEDGER_TEST_DSN and empties the ledger tables.
func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	dsn := os.Getenv("LEDGER_TEST_DSN")
	if dsn == "" {
		t.Skip("LEDGER_TEST_DSN is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := NewRepository(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(repo.Close)

	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if _, err := repo.pool.Exec(ctx, `TRUNCATE trade_records, instruments RESTART IDENTITY`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return repo
}

func TestRepositoryRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	aaa := &domain.Instrument{Symbol: "AAA"}
	bbb := &domain.Instrument{Symbol: "BBB"}
	for _, inst := range []*domain.Instrument{aaa, bbb} {
		if err := repo.CreateInstrument(ctx, inst); err != nil {
			t.Fatalf("create %s: %v", inst.Symbol, err)
		}
	}
	if aaa.ID == 0 || bbb.ID <= aaa.ID {
		t.Fatalf("ids not assigned in order: %d, %d", aaa.ID, bbb.ID)
	}

	record := &domain.TradeRecord{
		InstrumentID: aaa.ID,
		Price:        decimal.RequireFromString("17.5"),
		ShareCount:   decimal.RequireFromString("2.25"),
		BrokerName:   "broker",
	}
	if err := repo.AppendTrade(ctx, record); err != nil {
		t.Fatalf("append: %v", err)
	}
	if record.ID == 0 || record.TransactionTime.IsZero() {
		t.Fatalf("store did not stamp record: %+v", record)
	}

	found, err := repo.FindBySymbol(ctx, "AAA")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(found.Trades) != 1 {
		t.Fatalf("trades = %d, want 1", len(found.Trades))
	}
	got := found.Trades[0]
	if !got.Price.Equal(record.Price) || !got.ShareCount.Equal(record.ShareCount) || got.BrokerName != "broker" {
		t.Fatalf("unexpected trade %+v", got)
	}
	if got.TransactionTime.Location() != time.UTC {
		t.Fatalf("transaction time not in UTC: %v", got.TransactionTime)
	}

	all, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 || all[0].Symbol != "AAA" || all[1].Symbol != "BBB" {
		t.Fatalf("unexpected list %+v", all)
	}
	if all[1].Trades == nil || len(all[1].Trades) != 0 {
		t.Fatalf("instrument without trades should carry an empty history, got %v", all[1].Trades)
	}

	some, err := repo.ListBySymbols(ctx, []string{"BBB", "ZZZ"})
	if err != nil {
		t.Fatalf("list by symbols: %v", err)
	}
	if len(some) != 1 || some[0].Symbol != "BBB" {
		t.Fatalf("unexpected subset %+v", some)
	}
}

func TestRepositoryErrors(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.CreateInstrument(ctx, &domain.Instrument{Symbol: "AAA"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := repo.CreateInstrument(ctx, &domain.Instrument{Symbol: "AAA"})
	if !domain.IsStoreError(err) || !errors.Is(err, domain.ErrSymbolExists) {
		t.Fatalf("expected ErrSymbolExists, got %v", err)
	}

	if _, err := repo.FindBySymbol(ctx, "NOPE"); !errors.Is(err, domain.ErrInstrumentNotFound) {
		t.Fatalf("expected ErrInstrumentNotFound, got %v", err)
	}

	err = repo.AppendTrade(ctx, &domain.TradeRecord{
		InstrumentID: 9999,
		Price:        decimal.NewFromInt(1),
		ShareCount:   decimal.NewFromInt(1),
		BrokerName:   "broker",
	})
	if !errors.Is(err, domain.ErrInstrumentNotFound) {
		t.Fatalf("expected ErrInstrumentNotFound for unknown instrument, got %v", err)
	}
}
