package handlers

import (
	"errors"
	"net/http"

	"telegram_clicker/internal/domain"
	"telegram_clicker/internal/logger"
	"telegram_clicker/internal/service"

	"github.com/gin-gonic/gin"
)

// writeError maps domain errors to client responses. Anything unrecognised
// is logged and reported as a 500.
func writeError(c *gin.Context, err error) {
	status, msg := http.StatusInternalServerError, "internal error"

	switch {
	case errors.Is(err, domain.ErrPlayerNotFound):
		status, msg = http.StatusNotFound, "player not found"
	case errors.Is(err, domain.ErrRecipientNotFound):
		status, msg = http.StatusNotFound, "recipient not found"
	case errors.Is(err, domain.ErrUpgradeNotFound):
		status, msg = http.StatusNotFound, "upgrade not found"
	case errors.Is(err, domain.ErrInsufficientFunds):
		status, msg = http.StatusConflict, "insufficient coins"
	case errors.Is(err, domain.ErrUpgradeMaxed):
		status, msg = http.StatusConflict, "upgrade already at max level"
	case errors.Is(err, domain.ErrSelfTransfer):
		status, msg = http.StatusBadRequest, "cannot transfer to yourself"
	case errors.Is(err, domain.ErrInvalidAmount):
		status, msg = http.StatusBadRequest, "invalid amount"
	case errors.Is(err, service.ErrInvalidTaps):
		status, msg = http.StatusBadRequest, "invalid tap count"
	default:
		logger.WithContext(c.Request.Context()).Error("request failed", "path", c.FullPath(), "error", err)
	}

	c.JSON(status, gin.H{"error": msg})
}
