package ledger

import (
	"context"
	"sync"
	"time"

	domain "github.com/lidne/stockexchange/internal/domain/entity/ledger"
	interfaces "github.com/lidne/stockexchange/internal/domain/interfaces"
)

// MemoryStore keeps the ledger in process memory. Iteration order is insertion order.
type MemoryStore struct {
	mu          sync.RWMutex
	instruments []domain.Instrument
	trades      map[int64][]domain.TradeRecord
	nextInstID  int64
	nextTradeID int64
	now         func() time.Time
}

var _ interfaces.LedgerStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		trades: make(map[int64][]domain.TradeRecord),
		now:    time.Now,
	}
}

// WithClock replaces the clock used to stamp transaction times.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

func (s *MemoryStore) ListAll(ctx context.Context) ([]domain.InstrumentTrades, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewStoreError("list all", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.InstrumentTrades, 0, len(s.instruments))
	for _, inst := range s.instruments {
		out = append(out, s.withTrades(inst))
	}
	return out, nil
}

func (s *MemoryStore) ListBySymbols(ctx context.Context, symbols []string) ([]domain.InstrumentTrades, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewStoreError("list by symbols", err)
	}
	wanted := make(map[string]struct{}, len(symbols))
	for _, symbol := range symbols {
		wanted[symbol] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.InstrumentTrades, 0, len(wanted))
	for _, inst := range s.instruments {
		if _, ok := wanted[inst.Symbol]; ok {
			out = append(out, s.withTrades(inst))
		}
	}
	return out, nil
}

func (s *MemoryStore) FindBySymbol(ctx context.Context, symbol string) (*domain.InstrumentTrades, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewStoreError("find by symbol", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, inst := range s.instruments {
		if inst.Symbol == symbol {
			found := s.withTrades(inst)
			return &found, nil
		}
	}
	return nil, domain.ErrInstrumentNotFound
}

func (s *MemoryStore) CreateInstrument(ctx context.Context, instrument *domain.Instrument) error {
	if instrument == nil {
		return domain.NewStoreError("create instrument", errNilInstrument)
	}
	if err := ctx.Err(); err != nil {
		return domain.NewStoreError("create instrument", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, inst := range s.instruments {
		if inst.Symbol == instrument.Symbol {
			return domain.NewStoreError("create instrument", domain.ErrSymbolExists)
		}
	}
	s.nextInstID++
	instrument.ID = s.nextInstID
	s.instruments = append(s.instruments, *instrument)
	return nil
}

func (s *MemoryStore) AppendTrade(ctx context.Context, record *domain.TradeRecord) error {
	if record == nil {
		return domain.NewStoreError("append trade", errNilTrade)
	}
	if err := ctx.Err(); err != nil {
		return domain.NewStoreError("append trade", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasInstrument(record.InstrumentID) {
		return domain.NewStoreError("append trade", domain.ErrInstrumentNotFound)
	}
	s.nextTradeID++
	record.ID = s.nextTradeID
	record.TransactionTime = s.now().UTC()
	s.trades[record.InstrumentID] = append(s.trades[record.InstrumentID], *record)
	return nil
}

func (s *MemoryStore) hasInstrument(id int64) bool {
	for _, inst := range s.instruments {
		if inst.ID == id {
			return true
		}
	}
	return false
}

// withTrades must be called with the lock held.
func (s *MemoryStore) withTrades(inst domain.Instrument) domain.InstrumentTrades {
	return domain.InstrumentTrades{
		Instrument: inst,
		Trades:     s.trades[inst.ID],
	}.Clone()
}
