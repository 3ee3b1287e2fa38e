package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/lidne/stockexchange/internal/domain/entity/ledger"
	interfaces "github.com/lidne/stockexchange/internal/domain/interfaces"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

var (
	errNilInstrument = errors.New("instrument is nil")
	errNilTrade      = errors.New("trade record is nil")
)

const schema = `
	CREATE TABLE IF NOT EXISTS instruments (
		id     BIGSERIAL PRIMARY KEY,
		symbol VARCHAR(10) NOT NULL UNIQUE
	);
	CREATE TABLE IF NOT EXISTS trade_records (
		id               BIGSERIAL PRIMARY KEY,
		instrument_id    BIGINT NOT NULL REFERENCES instruments (id),
		price            NUMERIC(28, 10) NOT NULL,
		share_count      NUMERIC(28, 10) NOT NULL,
		broker_name      TEXT NOT NULL,
		transaction_time TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS trade_records_instrument_id_idx ON trade_records (instrument_id);`

// Repository is the PostgreSQL ledger store.
type Repository struct {
	pool *pgxpool.Pool
}

var _ interfaces.LedgerStore = (*Repository)(nil)

func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgx config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Close() {
	if r == nil || r.pool == nil {
		return
	}
	r.pool.Close()
}

// EnsureSchema creates the ledger tables when they are missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return domain.NewStoreError("ensure schema", err)
	}
	return nil
}

func (r *Repository) ListAll(ctx context.Context) ([]domain.InstrumentTrades, error) {
	const query = `SELECT id, symbol FROM instruments ORDER BY id`
	instruments, err := r.queryInstruments(ctx, query)
	if err != nil {
		return nil, domain.NewStoreError("list all", err)
	}
	out, err := r.attachTrades(ctx, instruments)
	if err != nil {
		return nil, domain.NewStoreError("list all", err)
	}
	return out, nil
}

func (r *Repository) ListBySymbols(ctx context.Context, symbols []string) ([]domain.InstrumentTrades, error) {
	if len(symbols) == 0 {
		return []domain.InstrumentTrades{}, nil
	}
	const query = `SELECT id, symbol FROM instruments WHERE symbol = ANY($1) ORDER BY id`
	instruments, err := r.queryInstruments(ctx, query, symbols)
	if err != nil {
		return nil, domain.NewStoreError("list by symbols", err)
	}
	out, err := r.attachTrades(ctx, instruments)
	if err != nil {
		return nil, domain.NewStoreError("list by symbols", err)
	}
	return out, nil
}

func (r *Repository) FindBySymbol(ctx context.Context, symbol string) (*domain.InstrumentTrades, error) {
	const query = `SELECT id, symbol FROM instruments WHERE symbol = $1`
	var inst domain.Instrument
	if err := r.pool.QueryRow(ctx, query, symbol).Scan(&inst.ID, &inst.Symbol); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInstrumentNotFound
		}
		return nil, domain.NewStoreError("find by symbol", err)
	}
	out, err := r.attachTrades(ctx, []domain.Instrument{inst})
	if err != nil {
		return nil, domain.NewStoreError("find by symbol", err)
	}
	return &out[0], nil
}

func (r *Repository) CreateInstrument(ctx context.Context, instrument *domain.Instrument) error {
	if instrument == nil {
		return domain.NewStoreError("create instrument", errNilInstrument)
	}
	const query = `INSERT INTO instruments (symbol) VALUES ($1) RETURNING id`
	if err := r.pool.QueryRow(ctx, query, instrument.Symbol).Scan(&instrument.ID); err != nil {
		return domain.NewStoreError("create instrument", translate(err))
	}
	return nil
}

func (r *Repository) AppendTrade(ctx context.Context, record *domain.TradeRecord) error {
	if record == nil {
		return domain.NewStoreError("append trade", errNilTrade)
	}
	record.TransactionTime = time.Now().UTC()

	const query = `
		INSERT INTO trade_records (instrument_id, price, share_count, broker_name, transaction_time)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id`

	row := r.pool.QueryRow(ctx, query,
		record.InstrumentID,
		record.Price,
		record.ShareCount,
		record.BrokerName,
		record.TransactionTime,
	)
	if err := row.Scan(&record.ID); err != nil {
		return domain.NewStoreError("append trade", translate(err))
	}
	return nil
}

func (r *Repository) queryInstruments(ctx context.Context, query string, args ...interface{}) ([]domain.Instrument, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var instruments []domain.Instrument
	for rows.Next() {
		var inst domain.Instrument
		if err := rows.Scan(&inst.ID, &inst.Symbol); err != nil {
			return nil, err
		}
		instruments = append(instruments, inst)
	}
	return instruments, rows.Err()
}

// attachTrades loads the history of every instrument with one explicit query.
func (r *Repository) attachTrades(ctx context.Context, instruments []domain.Instrument) ([]domain.InstrumentTrades, error) {
	out := make([]domain.InstrumentTrades, len(instruments))
	if len(instruments) == 0 {
		return out, nil
	}
	ids := make([]int64, len(instruments))
	index := make(map[int64]int, len(instruments))
	for i, inst := range instruments {
		ids[i] = inst.ID
		index[inst.ID] = i
		out[i] = domain.InstrumentTrades{Instrument: inst, Trades: []domain.TradeRecord{}}
	}

	const query = `
		SELECT id, instrument_id, price, share_count, broker_name, transaction_time
		FROM trade_records
		WHERE instrument_id = ANY($1)
		ORDER BY id`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		i := index[trade.InstrumentID]
		out[i].Trades = append(out[i].Trades, trade)
	}
	return out, rows.Err()
}

func scanTrade(row pgx.Row) (domain.TradeRecord, error) {
	var trade domain.TradeRecord
	err := row.Scan(
		&trade.ID,
		&trade.InstrumentID,
		&trade.Price,
		&trade.ShareCount,
		&trade.BrokerName,
		&trade.TransactionTime,
	)
	if err != nil {
		return domain.TradeRecord{}, err
	}
	trade.TransactionTime = trade.TransactionTime.UTC()
	return trade, nil
}

// translate maps constraint violations onto ledger sentinels.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return fmt.Errorf("%w: %s", domain.ErrSymbolExists, pgErr.Detail)
	case pgForeignKeyViolation:
		return fmt.Errorf("%w: %s", domain.ErrInstrumentNotFound, pgErr.Detail)
	default:
		return err
	}
}
