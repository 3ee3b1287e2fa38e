package main

import (
	"context"
	"os/signal"
	"syscall"

	appvaluation "github.com/lidne/stockexchange/internal/application/service/valuation"
	"github.com/lidne/stockexchange/internal/config"
	"github.com/lidne/stockexchange/internal/infrastructure/cache"
	infraledger "github.com/lidne/stockexchange/internal/infrastructure/ledger"
	"github.com/lidne/stockexchange/internal/infrastructure/logging"

	"github.com/caarlos0/env/v10"
	"github.com/redis/go-redis/v9"
	investgo "github.com/russianinvestments/invest-api-go-sdk/investgo"
	pb "github.com/russianinvestments/invest-api-go-sdk/proto"
	"github.com/sirupsen/logrus"
)

type catalogConfig struct {
	Token         string   `env:"INVEST_TOKEN,required"`
	Endpoint      string   `env:"INVEST_ENDPOINT" envDefault:"https://invest-public-api.tinkoff.ru:443"`
	AppName       string   `env:"INVEST_APP_NAME" envDefault:"stockexchange-catalog"`
	SkipTLSVerify bool     `env:"INVEST_INSECURE_SKIP_VERIFY" envDefault:"false"`
	DatabaseDSN   string   `env:"DATABASE_DSN,required"`
	Tickers       []string `env:"CATALOG_TICKERS" envSeparator:","`
	Redis         config.RedisConfig
	Log           config.LogConfig
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var cfg catalogConfig
	if err := env.Parse(&cfg); err != nil {
		logrus.Fatalf("config error: %v", err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		logrus.Fatalf("init logger: %v", err)
	}

	repo, err := infraledger.NewRepository(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatalf("connect postgres: %v", err)
	}
	defer repo.Close()
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Fatalf("create ledger schema: %v", err)
	}

	client, err := investgo.NewClient(ctx, investgo.Config{
		EndPoint:           cfg.Endpoint,
		Token:              cfg.Token,
		AppName:            cfg.AppName,
		InsecureSkipVerify: cfg.SkipTLSVerify,
	}, logger)
	if err != nil {
		logger.Fatalf("create invest api client: %v", err)
	}
	defer func() {
		if stopErr := client.Stop(); stopErr != nil {
			logger.Errorf("stop invest api client: %v", stopErr)
		}
	}()

	resp, err := client.NewInstrumentsServiceClient().Shares(pb.InstrumentStatus_INSTRUMENT_STATUS_BASE)
	if err != nil {
		logger.Fatalf("get shares: %v", err)
	}
	shares := make([]tickerSource, 0, len(resp.GetInstruments()))
	for _, share := range resp.GetInstruments() {
		if share != nil {
			shares = append(shares, share)
		}
	}

	tickers := selectTickers(shares, cfg.Tickers)
	logger.WithFields(logrus.Fields{
		"shares":  len(shares),
		"tickers": len(tickers),
	}).Info("shares fetched")

	stats, err := registerTickers(ctx, appvaluation.NewService(repo), tickers, logger)
	if err != nil {
		logger.Fatalf("register instruments: %v", err)
	}
	if cfg.Redis.Addr != "" && stats.Added > 0 {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := invalidateValuations(ctx, cache.NewResponseCache(redisClient, 0, logger), stats); err != nil {
			logger.Errorf("invalidate cached valuations: %v", err)
		}
	}
	logger.WithFields(logrus.Fields{
		"added":   stats.Added,
		"skipped": stats.Skipped,
	}).Info("catalog sync finished")
}
