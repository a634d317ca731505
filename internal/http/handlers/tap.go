package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var tapsTotal = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "clicker_taps_total",
	Help: "Taps accepted by the API",
})

func init() {
	prometheus.MustRegister(tapsTotal)
}

type TapRequest struct {
	Taps int `json:"taps" binding:"required"`
}

func (h *Handler) Tap(c *gin.Context) {
	id, ok := playerID(c)
	if !ok {
		return
	}

	var req TapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	res, err := h.game.Tap(c.Request.Context(), id, req.Taps)
	if err != nil {
		writeError(c, err)
		return
	}

	tapsTotal.Add(float64(req.Taps))
	c.JSON(http.StatusOK, res)
}
