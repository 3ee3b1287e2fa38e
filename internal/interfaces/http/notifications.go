package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// processTrade records an executed trade reported by a broker
// @Summary      Submit trade notification
// @Tags         tradenotifications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        notification  body      tradeNotificationPayload  true  "Executed trade"
// @Success      200           {object}  messageResponse
// @Failure      400           {object}  errorResponse
// @Failure      401           {object}  errorResponse
// @Failure      403           {object}  errorResponse
// @Failure      500           {object}  errorResponse
// @Router       /tradenotifications/trade [post]
func (h *Handler) processTrade(c *gin.Context) {
	var payload tradeNotificationPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	notification, err := payload.toDomain()
	if err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	result, err := h.trades.ProcessTradeNotification(c.Request.Context(), notification)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	if !result.Success {
		c.JSON(http.StatusBadRequest, errorResponse{Error: result.Message})
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: result.Message})
}
