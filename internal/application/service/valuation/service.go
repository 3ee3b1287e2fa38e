package valuation

import (
	"context"
	"errors"
	"strings"

	ledger "github.com/lidne/stockexchange/internal/domain/entity/ledger"
	interfaces "github.com/lidne/stockexchange/internal/domain/interfaces"

	"github.com/shopspring/decimal"
)

type Service struct {
	repo  interfaces.LedgerStore
	cache interfaces.ValuationCache
}

func NewService(repo interfaces.LedgerStore) *Service {
	return &Service{repo: repo}
}

// WithCache makes RegisterInstrument drop cached valuations after a successful write.
func (s *Service) WithCache(cache interfaces.ValuationCache) *Service {
	s.cache = cache
	return s
}

// ListAllValuations values every instrument in store order.
func (s *Service) ListAllValuations(ctx context.Context) ([]ledger.Valuation, error) {
	instruments, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return valuate(instruments), nil
}

// ListValuations values the instruments matching symbols. Unknown symbols yield no entry.
func (s *Service) ListValuations(ctx context.Context, symbols []string) ([]ledger.Valuation, error) {
	wanted := normalizeSymbols(symbols)
	if len(wanted) == 0 {
		return []ledger.Valuation{}, nil
	}
	instruments, err := s.repo.ListBySymbols(ctx, wanted)
	if err != nil {
		return nil, err
	}
	return valuate(instruments), nil
}

// GetValuation values a single instrument, returning the empty valuation when it is unknown.
func (s *Service) GetValuation(ctx context.Context, symbol string) (ledger.Valuation, error) {
	instrument, err := s.repo.FindBySymbol(ctx, symbol)
	if err != nil {
		if errors.Is(err, ledger.ErrInstrumentNotFound) {
			return ledger.EmptyValuation(), nil
		}
		return ledger.Valuation{}, err
	}
	if instrument == nil {
		return ledger.EmptyValuation(), nil
	}
	return Valuate(*instrument), nil
}

// RegisterInstrument adds a new instrument. Symbol format is checked by the caller.
func (s *Service) RegisterInstrument(ctx context.Context, symbol string) error {
	if err := s.repo.CreateInstrument(ctx, &ledger.Instrument{Symbol: symbol}); err != nil {
		return err
	}
	if s.cache != nil {
		// The instrument is committed; the cache logs its own failures.
		_ = s.cache.Invalidate(ctx)
	}
	return nil
}

// Valuate computes the valuation of one instrument.
func Valuate(instrument ledger.InstrumentTrades) ledger.Valuation {
	return ledger.Valuation{
		Symbol:       instrument.Symbol,
		AveragePrice: AveragePrice(instrument),
	}
}

// AveragePrice is the volume-weighted average price over the instrument's trades.
// Records of other instruments are ignored; zero cumulative shares values at zero.
func AveragePrice(instrument ledger.InstrumentTrades) decimal.Decimal {
	totalNotional := decimal.Zero
	totalShares := decimal.Zero
	for _, trade := range instrument.Trades {
		if trade.InstrumentID != instrument.ID {
			continue
		}
		totalNotional = totalNotional.Add(trade.Notional())
		totalShares = totalShares.Add(trade.ShareCount)
	}
	if totalShares.IsZero() {
		return decimal.Zero
	}
	return totalNotional.Div(totalShares)
}

func valuate(instruments []ledger.InstrumentTrades) []ledger.Valuation {
	out := make([]ledger.Valuation, 0, len(instruments))
	for _, instrument := range instruments {
		out = append(out, Valuate(instrument))
	}
	return out
}

func normalizeSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		symbol = strings.TrimSpace(symbol)
		if symbol == "" {
			continue
		}
		if _, ok := seen[symbol]; ok {
			continue
		}
		seen[symbol] = struct{}{}
		out = append(out, symbol)
	}
	return out
}
