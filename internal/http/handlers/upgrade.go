package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Upgrades(c *gin.Context) {
	id, ok := playerID(c)
	if !ok {
		return
	}

	upgrades, err := h.game.Upgrades(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"upgrades": upgrades})
}

func (h *Handler) BuyUpgrade(c *gin.Context) {
	id, ok := playerID(c)
	if !ok {
		return
	}

	upgradeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || upgradeID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid upgrade id"})
		return
	}

	res, err := h.game.BuyUpgrade(c.Request.Context(), id, upgradeID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
