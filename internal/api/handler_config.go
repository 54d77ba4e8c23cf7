package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"reservation-backend/internal/model"
)

// GetConfig returns the shop configuration.
func (h *Handler) GetConfig(c *gin.Context) {
	cfg, err := h.service.GetConfig(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// PutConfig replaces the shop configuration.
func (h *Handler) PutConfig(c *gin.Context) {
	var cfg model.ShopConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		badRequest(c, err)
		return
	}
	stored, err := h.service.UpdateConfig(c.Request.Context(), cfg)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stored)
}

// GetSlots handles GET /api/slots?date=YYYY-MM-DD&guests=N.
func (h *Handler) GetSlots(c *gin.Context) {
	guests, err := strconv.Atoi(c.Query("guests"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "guests must be a number"})
		return
	}
	slots, err := h.service.PlanSlots(c.Request.Context(), c.Query("date"), guests)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, slots)
}
