package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"telegram_clicker/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TransferRequest struct {
	// To is "@username", "username" or a numeric Telegram id.
	To             string `json:"to" binding:"required"`
	Amount         int64  `json:"amount" binding:"required,gt=0"`
	IdempotencyKey string `json:"idempotency_key"`
}

func (h *Handler) Transfer(c *gin.Context) {
	id, ok := playerID(c)
	if !ok {
		return
	}

	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	var key uuid.UUID
	if req.IdempotencyKey != "" {
		k, err := uuid.Parse(req.IdempotencyKey)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid idempotency_key"})
			return
		}
		key = k
	}

	res, err := h.game.Transfer(c.Request.Context(), id, ParseRecipient(req.To), req.Amount, key)
	if err != nil {
		writeError(c, err)
		return
	}
	if h.cfg.Notifier != nil && !res.Replayed {
		h.cfg.Notifier.NotifyTransfer(res.FromPlayerID, res.ToPlayerID, res.Amount)
	}
	c.JSON(http.StatusOK, res)
}

// ParseRecipient treats all-digit input as a Telegram id and anything else as
// a username.
func ParseRecipient(s string) domain.Recipient {
	s = strings.TrimSpace(s)
	if tgID, err := strconv.ParseInt(s, 10, 64); err == nil && tgID > 0 {
		return domain.Recipient{TgID: tgID}
	}
	return domain.Recipient{Username: strings.TrimPrefix(s, "@")}
}
