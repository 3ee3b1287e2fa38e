package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	msgNoStockFound   = "No Stock Found"
	msgStocksNotFound = "Stocks Not Found"
	msgStockNotFound  = "Stock Not Found"
	msgStockAdded     = "Stock added successfully."
	msgSymbolRequired = "Ticker symbols are required."
)

// getAllStocks lists the valuation of every stock
// @Summary      List stocks
// @Description  Volume-weighted average price of every registered stock
// @Tags         stocks
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   ledger.Valuation
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /stocks/get-all [get]
func (h *Handler) getAllStocks(c *gin.Context) {
	valuations, err := h.valuations.ListAllValuations(c.Request.Context())
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	if len(valuations) == 0 {
		c.JSON(http.StatusNotFound, errorResponse{Error: msgNoStockFound})
		return
	}
	c.JSON(http.StatusOK, valuations)
}

// getStockRange lists the valuations of the requested stocks
// @Summary      List selected stocks
// @Description  Valuations for a comma separated list of symbols; unknown symbols are omitted
// @Tags         stocks
// @Produce      json
// @Security     BearerAuth
// @Param        tickerSymbols  query     string  true  "Comma separated symbols"
// @Success      200            {array}   ledger.Valuation
// @Failure      400            {object}  errorResponse
// @Failure      401            {object}  errorResponse
// @Failure      403            {object}  errorResponse
// @Failure      404            {object}  errorResponse
// @Failure      500            {object}  errorResponse
// @Router       /stocks/get-range [get]
func (h *Handler) getStockRange(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("tickerSymbols"))
	if raw == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: msgSymbolRequired})
		return
	}
	valuations, err := h.valuations.ListValuations(c.Request.Context(), strings.Split(raw, ","))
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	if len(valuations) == 0 {
		c.JSON(http.StatusNotFound, errorResponse{Error: msgStocksNotFound})
		return
	}
	c.JSON(http.StatusOK, valuations)
}

// getSingleStock returns the valuation of one stock
// @Summary      Get stock
// @Tags         stocks
// @Produce      json
// @Security     BearerAuth
// @Param        tickerSymbol  query     string  true  "Symbol"
// @Success      200           {object}  ledger.Valuation
// @Failure      400           {object}  errorResponse
// @Failure      401           {object}  errorResponse
// @Failure      403           {object}  errorResponse
// @Failure      404           {object}  errorResponse
// @Failure      500           {object}  errorResponse
// @Router       /stocks/get-single [get]
func (h *Handler) getSingleStock(c *gin.Context) {
	symbol := strings.TrimSpace(c.Query("tickerSymbol"))
	if symbol == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: msgSymbolRequired})
		return
	}
	valuation, err := h.valuations.GetValuation(c.Request.Context(), symbol)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	if valuation.IsEmpty() {
		c.JSON(http.StatusNotFound, errorResponse{Error: msgStockNotFound})
		return
	}
	c.JSON(http.StatusOK, valuation)
}

// addStock registers a new stock
// @Summary      Add stock
// @Tags         stocks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        stock  body      stockPayload  true  "Stock"
// @Success      200    {object}  messageResponse
// @Failure      400    {object}  errorResponse
// @Failure      401    {object}  errorResponse
// @Failure      403    {object}  errorResponse
// @Failure      409    {object}  errorResponse
// @Failure      500    {object}  errorResponse
// @Router       /stocks/add [post]
func (h *Handler) addStock(c *gin.Context) {
	var payload stockPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	symbol, err := payload.symbol()
	if err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	if err := h.valuations.RegisterInstrument(c.Request.Context(), symbol); err != nil {
		h.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: msgStockAdded})
}
