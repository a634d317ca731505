package handlers

import (
	"net/http"

	"telegram_clicker/internal/http/middleware"
	"telegram_clicker/internal/initdata"
	"telegram_clicker/internal/logger"

	"github.com/gin-gonic/gin"
)

type AuthRequest struct {
	InitData string `json:"init_data" binding:"required"`
}

// Auth exchanges Mini App init data for a session token.
func (h *Handler) Auth(c *gin.Context) {
	var req AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	if len(req.InitData) > h.cfg.MaxInitDataLen {
		c.JSON(http.StatusBadRequest, gin.H{"error": "init_data too long"})
		return
	}

	data, err := middleware.VerifyInitData(h.verifier, req.InitData, h.cfg.InitDataMaxAge)
	if err != nil {
		reason := initdata.Reason(err)
		middleware.AuthFailures.WithLabelValues(reason).Inc()
		logger.WithContext(c.Request.Context()).Warn("init data rejected", "reason", reason, "client_ip", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ctx := c.Request.Context()
	player, err := h.game.Login(ctx, middleware.IdentityFromInitData(data), c.ClientIP(), "api")
	if err != nil {
		writeError(c, err)
		return
	}

	token, err := h.tokens.Generate(player.ID, player.TgID)
	if err != nil {
		logger.WithContext(ctx).Error("token generation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
		return
	}

	middleware.AuthSuccess.WithLabelValues("init_data").Inc()
	c.JSON(http.StatusOK, gin.H{
		"token":       token,
		"player":      player,
		"start_param": data.StartParam,
	})
}
