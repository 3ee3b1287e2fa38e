package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	docs "github.com/lidne/stockexchange/docs"
	appaccounts "github.com/lidne/stockexchange/internal/application/service/accounts"
	apptrades "github.com/lidne/stockexchange/internal/application/service/trades"
	appvaluation "github.com/lidne/stockexchange/internal/application/service/valuation"
	"github.com/lidne/stockexchange/internal/config"
	identity "github.com/lidne/stockexchange/internal/domain/entity/identity"
	interfaces "github.com/lidne/stockexchange/internal/domain/interfaces"
	"github.com/lidne/stockexchange/internal/infrastructure/auth"
	"github.com/lidne/stockexchange/internal/infrastructure/broker"
	"github.com/lidne/stockexchange/internal/infrastructure/cache"
	infraidentity "github.com/lidne/stockexchange/internal/infrastructure/identity"
	infraledger "github.com/lidne/stockexchange/internal/infrastructure/ledger"
	"github.com/lidne/stockexchange/internal/infrastructure/logging"
	"github.com/lidne/stockexchange/internal/infrastructure/streaming"
	infrahttp "github.com/lidne/stockexchange/internal/interfaces/http"

	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		bootstrap := logrus.New()
		bootstrap.SetFormatter(&logrus.JSONFormatter{})
		bootstrap.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		logrus.Fatalf("failed to init logger: %v", err)
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	docs.SwaggerInfo.BasePath = "/api"
	docs.SwaggerInfo.Host = cfg.HTTP.Addr()

	var (
		ledgerStore  interfaces.LedgerStore
		accountStore interfaces.AccountStore
	)
	switch cfg.Store.Driver {
	case config.StorePostgres:
		ledgerRepo, err := infraledger.NewRepository(ctx, cfg.Store.DSN)
		if err != nil {
			logger.Fatalf("failed to init ledger repo: %v", err)
		}
		defer ledgerRepo.Close()
		if err := ledgerRepo.EnsureSchema(ctx); err != nil {
			logger.Fatalf("failed to create ledger schema: %v", err)
		}
		ledgerStore = ledgerRepo

		identityRepo, err := infraidentity.NewRepository(cfg.Store.DSN, logger)
		if err != nil {
			logger.Fatalf("failed to init identity repo: %v", err)
		}
		defer identityRepo.Close()
		if err := identityRepo.Migrate(ctx); err != nil {
			logger.Fatalf("failed to migrate identity schema: %v", err)
		}
		accountStore = identityRepo
	default:
		logger.Warn("using in-memory stores, data is lost on restart")
		ledgerStore = infraledger.NewMemoryStore()
		accountStore = infraidentity.NewMemoryStore()
	}

	var responses *cache.ResponseCache
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		responses = cache.NewResponseCache(redisClient, cfg.Cache.TTL, logger)
	}

	var publishers streaming.Fanout
	if cfg.RabbitMQ.EventsExchange != "" {
		conn, err := amqp.Dial(cfg.RabbitMQ.URL)
		if err != nil {
			logger.Fatalf("failed to connect to rabbitmq: %v", err)
		}
		defer conn.Close()
		pub, err := broker.NewPublisher(conn, cfg.RabbitMQ.EventsExchange, logger)
		if err != nil {
			logger.Fatalf("failed to init rabbitmq publisher: %v", err)
		}
		publishers = append(publishers, pub)
	}
	if len(cfg.Kafka.Brokers) > 0 {
		pub, err := streaming.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		if err != nil {
			logger.Fatalf("failed to init kafka publisher: %v", err)
		}
		publishers = append(publishers, pub)
	}
	if responses != nil {
		publishers = append(publishers, responses)
	}
	var publisher interfaces.TradeEventPublisher
	if len(publishers) > 0 {
		publisher = publishers
		defer func() {
			if err := publishers.Close(); err != nil {
				logger.Errorf("failed to close publishers: %v", err)
			}
		}()
	}

	tokens, err := auth.NewTokenManager(cfg.JWT.Key, cfg.JWT.Issuer, cfg.JWT.TTL)
	if err != nil {
		logger.Fatalf("failed to init token manager: %v", err)
	}

	valuationService := appvaluation.NewService(ledgerStore)
	if responses != nil {
		valuationService.WithCache(responses)
	}
	tradeService := apptrades.NewService(ledgerStore, accountStore, publisher, logger)
	accountService := appaccounts.NewService(accountStore, tokens)

	if err := accountService.EnsureRoles(ctx, identity.RoleRead, identity.RoleWrite); err != nil {
		logger.Fatalf("failed to seed roles: %v", err)
	}

	handler := infrahttp.NewHandler(infrahttp.Dependencies{
		Valuations: valuationService,
		Trades:     tradeService,
		Accounts:   accountService,
		Tokens:     tokens,
		Cache:      responses,
		Logger:     logger,
	})

	server := &http.Server{
		Addr:              cfg.HTTP.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("HTTP server listening on %s", cfg.HTTP.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	if cfg.RabbitMQ.URL != "" {
		consumer, err := broker.NewConsumer(cfg.RabbitMQ, tradeService, logger)
		if err != nil {
			logger.Fatalf("failed to init consumer: %v", err)
		}
		g.Go(func() error {
			return consumer.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Errorf("server stopped with error: %v", err)
		return
	}
	logger.Info("server stopped")
}
