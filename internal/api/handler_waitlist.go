package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type promoteRequest struct {
	TableID string `json:"tableId"`
}

// ListWaitingList returns the waiting entries of a date in queue order.
func (h *Handler) ListWaitingList(c *gin.Context) {
	entries, err := h.service.ListWaitingList(c.Request.Context(), c.Query("date"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// Promote confirms a waiting entry on the table chosen by the operator. The
// table's availability is not checked; the response flags an override.
func (h *Handler) Promote(c *gin.Context) {
	var req promoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	result, err := h.service.PromoteFromWaitlist(c.Request.Context(), c.Param("id"), req.TableID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"reservation":       viewOf(result.Reservation),
		"overridesConflict": result.OverridesConflict,
	})
}

// RemoveWaitingEntry drops a waiting entry.
func (h *Handler) RemoveWaitingEntry(c *gin.Context) {
	if err := h.service.RemoveWaitingEntry(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
