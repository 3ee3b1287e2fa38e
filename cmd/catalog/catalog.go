package main

import (
	"context"
	"errors"
	"sort"
	"strings"

	ledger "github.com/lidne/stockexchange/internal/domain/entity/ledger"

	"github.com/sirupsen/logrus"
)

type tickerSource interface {
	GetTicker() string
	GetApiTradeAvailableFlag() bool
}

type registrar interface {
	RegisterInstrument(ctx context.Context, symbol string) error
}

type valuationCache interface {
	Invalidate(ctx context.Context) error
}

type syncStats struct {
	Added   int
	Skipped int
}

// selectTickers keeps tradable tickers that fit the ledger, restricted to allow when
// it is not empty. The result is sorted and free of duplicates.
func selectTickers(shares []tickerSource, allow []string) []string {
	allowed := make(map[string]struct{}, len(allow))
	for _, ticker := range allow {
		if ticker = strings.TrimSpace(ticker); ticker != "" {
			allowed[ticker] = struct{}{}
		}
	}

	seen := make(map[string]struct{}, len(shares))
	out := make([]string, 0, len(shares))
	for _, share := range shares {
		ticker := strings.TrimSpace(share.GetTicker())
		if ticker == "" || len(ticker) > ledger.MaxSymbolLength || !share.GetApiTradeAvailableFlag() {
			continue
		}
		if len(allowed) > 0 {
			if _, ok := allowed[ticker]; !ok {
				continue
			}
		}
		if _, ok := seen[ticker]; ok {
			continue
		}
		seen[ticker] = struct{}{}
		out = append(out, ticker)
	}
	sort.Strings(out)
	return out
}

// registerTickers adds every ticker, counting the ones already in the ledger as skipped.
func registerTickers(ctx context.Context, reg registrar, tickers []string, logger *logrus.Logger) (syncStats, error) {
	var stats syncStats
	for _, ticker := range tickers {
		err := reg.RegisterInstrument(ctx, ticker)
		switch {
		case err == nil:
			stats.Added++
		case errors.Is(err, ledger.ErrSymbolExists):
			stats.Skipped++
			logger.WithField("ticker", ticker).Debug("instrument already registered")
		default:
			return stats, err
		}
	}
	return stats, nil
}

// invalidateValuations drops cached API responses once new instruments are in the ledger.
func invalidateValuations(ctx context.Context, cache valuationCache, stats syncStats) error {
	if cache == nil || stats.Added == 0 {
		return nil
	}
	return cache.Invalidate(ctx)
}
