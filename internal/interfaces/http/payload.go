package http

import (
	"errors"
	"strings"

	apptrades "github.com/lidne/stockexchange/internal/application/service/trades"

	"github.com/shopspring/decimal"
)

var (
	errBlankSymbol   = errors.New("ticker symbol is required")
	errNegativePrice = errors.New("price must not be negative")
)

type stockPayload struct {
	TickerSymbol string `json:"tickerSymbol" binding:"required,max=10" example:"NVDA"`
}

func (p stockPayload) symbol() (string, error) {
	symbol := strings.TrimSpace(p.TickerSymbol)
	if symbol == "" {
		return "", errBlankSymbol
	}
	return symbol, nil
}

type tradeNotificationPayload struct {
	TickerSymbol string           `json:"tickerSymbol" binding:"required,max=10" example:"NVDA"`
	Price        *decimal.Decimal `json:"price" binding:"required" swaggertype:"string" example:"120.5"`
	ShareCount   *decimal.Decimal `json:"shareCount" binding:"required" swaggertype:"string" example:"10"`
	BrokerName   string           `json:"brokerName" binding:"required" example:"broker1"`
}

func (p tradeNotificationPayload) toDomain() (apptrades.Notification, error) {
	symbol := strings.TrimSpace(p.TickerSymbol)
	if symbol == "" {
		return apptrades.Notification{}, errBlankSymbol
	}
	if p.Price.IsNegative() {
		return apptrades.Notification{}, errNegativePrice
	}
	return apptrades.Notification{
		TickerSymbol: symbol,
		Price:        *p.Price,
		ShareCount:   *p.ShareCount,
		BrokerName:   strings.TrimSpace(p.BrokerName),
	}, nil
}

type credentialsPayload struct {
	Username string `json:"username" binding:"required" example:"broker1"`
	Password string `json:"password" binding:"required" example:"secret1"`
}

type rolePayload struct {
	Role string `json:"role" binding:"required" example:"Write"`
}

type brokerRolePayload struct {
	Username string `json:"username" binding:"required" example:"broker1"`
	Role     string `json:"role" binding:"required" example:"Write"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}
