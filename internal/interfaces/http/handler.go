// @title           Stock Exchange API
// @version         1.0
// @description     Trade notifications, stock valuations and broker accounts

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /api

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization

package http

import (
	"errors"
	"net/http"

	appaccounts "github.com/lidne/stockexchange/internal/application/service/accounts"
	apptrades "github.com/lidne/stockexchange/internal/application/service/trades"
	appvaluation "github.com/lidne/stockexchange/internal/application/service/valuation"
	identity "github.com/lidne/stockexchange/internal/domain/entity/identity"
	ledger "github.com/lidne/stockexchange/internal/domain/entity/ledger"
	"github.com/lidne/stockexchange/internal/infrastructure/cache"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const (
	stocksBasePath        = "/api/stocks"
	notificationsBasePath = "/api/tradenotifications"
	accountBasePath       = "/api/account"
)

// TokenVerifier turns a bearer token into the caller's identity.
type TokenVerifier interface {
	Verify(token string) (identity.Principal, error)
}

// Dependencies groups what the handler needs. Cache is optional.
type Dependencies struct {
	Valuations *appvaluation.Service
	Trades     *apptrades.Service
	Accounts   *appaccounts.Service
	Tokens     TokenVerifier
	Cache      *cache.ResponseCache
	Logger     *logrus.Logger
}

type Handler struct {
	router     *gin.Engine
	valuations *appvaluation.Service
	trades     *apptrades.Service
	accounts   *appaccounts.Service
	tokens     TokenVerifier
	cache      *cache.ResponseCache
	logger     *logrus.Entry
}

var _ http.Handler = (*Handler)(nil)

func NewHandler(deps Dependencies) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	router := gin.New()
	router.Use(gin.Recovery())

	h := &Handler{
		router:     router,
		valuations: deps.Valuations,
		trades:     deps.Trades,
		accounts:   deps.Accounts,
		tokens:     deps.Tokens,
		cache:      deps.Cache,
		logger:     logger.WithField("component", "http"),
	}
	router.Use(h.requestLogger())
	h.registerRoutes()
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	cached := h.cacheMiddleware()
	readers := h.requireRoles(identity.RoleRead, identity.RoleWrite)
	writers := h.requireRoles(identity.RoleWrite)

	stocks := h.router.Group(stocksBasePath, h.authenticate())
	{
		stocks.GET("/get-all", readers, cached, h.getAllStocks)
		stocks.GET("/get-range", readers, cached, h.getStockRange)
		stocks.GET("/get-single", readers, cached, h.getSingleStock)
		stocks.POST("/add", writers, h.addStock)
	}

	notifications := h.router.Group(notificationsBasePath, h.authenticate())
	{
		notifications.POST("/trade", writers, h.processTrade)
	}

	account := h.router.Group(accountBasePath)
	{
		account.POST("/register", h.register)
		account.POST("/add-role", h.addRole)
		account.POST("/assign-role", h.assignRole)
		account.POST("/login", h.login)
	}
}

func writeError(c *gin.Context, status int, err error) {
	if err == nil {
		status = http.StatusInternalServerError
		err = errors.New("unknown error")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// writeStoreError reports a failure coming from the ledger or the broker directory.
func (h *Handler) writeStoreError(c *gin.Context, err error) {
	if errors.Is(err, ledger.ErrSymbolExists) {
		writeError(c, http.StatusConflict, ledger.ErrSymbolExists)
		return
	}
	h.logger.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	writeError(c, http.StatusInternalServerError, err)
}
