package streaming

import (
	"context"
	"errors"

	ledger "github.com/lidne/stockexchange/internal/domain/entity/ledger"
	interfaces "github.com/lidne/stockexchange/internal/domain/interfaces"
)

// Fanout delivers every event to all of its publishers.
type Fanout []interfaces.TradeEventPublisher

func (f Fanout) PublishTradeRecorded(ctx context.Context, event ledger.TradeRecorded) error {
	var errs []error
	for _, p := range f {
		if err := p.PublishTradeRecorded(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) Close() error {
	var errs []error
	for _, p := range f {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
