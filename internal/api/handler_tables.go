package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reservation-backend/internal/booking"
)

type addTableRequest struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

// ListTables returns the table inventory.
func (h *Handler) ListTables(c *gin.Context) {
	tables, err := h.service.ListTables(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tables)
}

// AddTable creates a table.
func (h *Handler) AddTable(c *gin.Context) {
	var req addTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	table, err := h.service.AddTable(c.Request.Context(), req.Name, req.Capacity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, table)
}

// UpdateTable applies a partial update to a table.
func (h *Handler) UpdateTable(c *gin.Context) {
	var upd booking.TableUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		badRequest(c, err)
		return
	}
	table, err := h.service.UpdateTable(c.Request.Context(), c.Param("id"), upd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, table)
}

// DeleteTable removes a table.
func (h *Handler) DeleteTable(c *gin.Context) {
	if err := h.service.DeleteTable(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetTableGrid returns each table with the reservation holding it on a date.
func (h *Handler) GetTableGrid(c *gin.Context) {
	grid, err := h.service.TableGrid(c.Request.Context(), c.Query("date"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, grid)
}
