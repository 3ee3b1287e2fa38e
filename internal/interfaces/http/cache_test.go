package http

import (
	"context"
	"net/http"
	"testing"
	"time"

	apptrades "github.com/lidne/stockexchange/internal/application/service/trades"
	identity "github.com/lidne/stockexchange/internal/domain/entity/identity"
	"github.com/lidne/stockexchange/internal/infrastructure/cache"
	infraledger "github.com/lidne/stockexchange/internal/infrastructure/ledger"

	"github.com/go-redis/redismock/v9"
	"github.com/shopspring/decimal"
)

const (
	getAllKey = "cache:GET:/api/stocks/get-all?"
	scanCount = 100
)

func TestCacheHitSkipsHandler(t *testing.T) {
	db, mock := redismock.NewClientMock()
	srv := newTestServer(t, brokenStore{LedgerStore: infraledger.NewMemoryStore()}, db)

	cached := `[{"stockSymbol":"AAA","stockPrice":42}]`
	mock.ExpectGet(getAllKey).SetVal(cached)

	rec := srv.do(t, http.MethodGet, "/api/stocks/get-all", srv.token(t, identity.RoleRead), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != cached {
		t.Fatalf("body = %s, want cached %s", rec.Body.String(), cached)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCacheMissStoresResponse(t *testing.T) {
	db, mock := redismock.NewClientMock()
	srv := newTestServer(t, nil, db)
	srv.addStock(t, "AAA")

	mock.ExpectGet(getAllKey).RedisNil()
	mock.ExpectSet(getAllKey, `[{"stockSymbol":"AAA","stockPrice":0}]`, time.Minute).SetVal("OK")

	rec := srv.do(t, http.MethodGet, "/api/stocks/get-all", srv.token(t, identity.RoleRead), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCacheSkipsErrorResponses(t *testing.T) {
	db, mock := redismock.NewClientMock()
	srv := newTestServer(t, nil, db)

	mock.ExpectGet(getAllKey).RedisNil()

	rec := srv.do(t, http.MethodGet, "/api/stocks/get-all", srv.token(t, identity.RoleRead), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestAddStockInvalidatesCache(t *testing.T) {
	db, mock := redismock.NewClientMock()
	srv := newTestServer(t, nil, db)

	mock.ExpectScan(0, cache.KeyPattern, scanCount).SetVal([]string{getAllKey, "cache:GET:/api/stocks/get-single?tickerSymbol=AAA"}, 0)
	mock.ExpectDel(getAllKey, "cache:GET:/api/stocks/get-single?tickerSymbol=AAA").SetVal(2)

	rec := srv.do(t, http.MethodPost, "/api/stocks/add", srv.token(t, identity.RoleWrite), stockPayload{TickerSymbol: "AAA"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestFailedMutationKeepsCache(t *testing.T) {
	db, mock := redismock.NewClientMock()
	srv := newTestServer(t, nil, db)
	srv.addStock(t, "AAA")

	rec := srv.do(t, http.MethodPost, "/api/stocks/add", srv.token(t, identity.RoleWrite), stockPayload{TickerSymbol: "TOO-LONG-SYMBOL"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	rec = srv.do(t, http.MethodPost, "/api/stocks/add", srv.token(t, identity.RoleWrite), stockPayload{TickerSymbol: "AAA"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d", rec.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUnauthorizedRequestsBypassCache(t *testing.T) {
	db, mock := redismock.NewClientMock()
	srv := newTestServer(t, nil, db)

	rec := srv.do(t, http.MethodGet, "/api/stocks/get-all", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

// Trades consumed from RabbitMQ reach the service directly, never the HTTP routes.
func TestTradeOutsideHTTPInvalidatesCache(t *testing.T) {
	db, mock := redismock.NewClientMock()
	srv := newTestServer(t, nil, db)
	srv.addStock(t, "MSFT")
	srv.addBroker(t, "alice")
	readToken := srv.token(t, identity.RoleRead)

	mock.ExpectGet(getAllKey).RedisNil()
	mock.ExpectSet(getAllKey, `[{"stockSymbol":"MSFT","stockPrice":0}]`, time.Minute).SetVal("OK")
	if rec := srv.do(t, http.MethodGet, "/api/stocks/get-all", readToken, nil); rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	mock.ExpectScan(0, cache.KeyPattern, scanCount).SetVal([]string{getAllKey}, 0)
	mock.ExpectDel(getAllKey).SetVal(1)
	result, err := srv.trades.ProcessTradeNotification(context.Background(), apptrades.Notification{
		TickerSymbol: "MSFT",
		Price:        decimal.NewFromInt(300),
		ShareCount:   decimal.NewFromInt(3),
		BrokerName:   "alice",
	})
	if err != nil || !result.Success {
		t.Fatalf("process: %+v, %v", result, err)
	}

	fresh := `[{"stockSymbol":"MSFT","stockPrice":300}]`
	mock.ExpectGet(getAllKey).RedisNil()
	mock.ExpectSet(getAllKey, fresh, time.Minute).SetVal("OK")
	rec := srv.do(t, http.MethodGet, "/api/stocks/get-all", readToken, nil)
	if rec.Code != http.StatusOK || rec.Body.String() != fresh {
		t.Fatalf("status = %d, body = %s, want %s", rec.Code, rec.Body.String(), fresh)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
