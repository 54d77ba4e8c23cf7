package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reservation-backend/internal/booking"
)

type createReservationRequest struct {
	CustomerName  string `json:"customerName"`
	Phone         string `json:"phone"`
	Guests        int    `json:"guests"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Note          string `json:"note"`
	ForceWaitlist bool   `json:"forceWaitlist"`
}

type extendRequest struct {
	AdditionalMinutes int `json:"additionalMinutes"`
}

// CreateReservation books a table or queues the request on the waiting list.
func (h *Handler) CreateReservation(c *gin.Context) {
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.service.CreateReservation(c.Request.Context(), booking.CreateRequest(req))
	if err != nil {
		writeError(c, err)
		return
	}

	if result.Outcome == booking.OutcomeWaitingList {
		c.JSON(http.StatusAccepted, result)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"status":      result.Outcome,
		"reservation": viewOf(*result.Reservation),
	})
}

// ListReservations returns the reservations of a date, or all when no date is given.
func (h *Handler) ListReservations(c *gin.Context) {
	list, err := h.service.ListReservations(c.Request.Context(), c.Query("date"))
	if err != nil {
		writeError(c, err)
		return
	}
	views := make([]reservationView, len(list))
	for i, r := range list {
		views[i] = viewOf(r)
	}
	c.JSON(http.StatusOK, views)
}

// GetReservation returns a single reservation.
func (h *Handler) GetReservation(c *gin.Context) {
	r, err := h.service.GetReservation(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(r))
}

// CheckIn seats a confirmed reservation.
func (h *Handler) CheckIn(c *gin.Context) {
	id := c.Param("id")
	ok, err := h.service.CheckIn(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": "reservation is not awaiting check-in"})
		return
	}
	h.respondWithReservation(c, id)
}

// Extend lengthens an occupied session.
func (h *Handler) Extend(c *gin.Context) {
	var req extendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	result, err := h.service.ExtendSession(c.Request.Context(), c.Param("id"), req.AdditionalMinutes)
	if err != nil {
		writeError(c, err)
		return
	}
	if !result.Success {
		c.JSON(http.StatusConflict, result)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "reservation": viewOf(*result.Reservation)})
}

// Cancel cancels a reservation. Unknown ids succeed without effect.
func (h *Handler) Cancel(c *gin.Context) {
	if err := h.service.CancelReservation(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) respondWithReservation(c *gin.Context, id string) {
	r, err := h.service.GetReservation(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "reservation": viewOf(r)})
}
