package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Achievements(c *gin.Context) {
	id, ok := playerID(c)
	if !ok {
		return
	}

	list, err := h.game.Achievements(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"achievements": list})
}
