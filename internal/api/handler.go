package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"reservation-backend/internal/booking"
	"reservation-backend/internal/model"
	"reservation-backend/internal/mw"
	"reservation-backend/internal/notify"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	service *booking.Service
	clock   booking.Clock
	auth    *mw.Auth
	hub     *notify.Hub
}

// NewHandler creates a new API handler. hub may be nil, in which case the
// change stream endpoint answers 503.
func NewHandler(service *booking.Service, clock booking.Clock, auth *mw.Auth, hub *notify.Hub) *Handler {
	return &Handler{
		service: service,
		clock:   clock,
		auth:    auth,
		hub:     hub,
	}
}

// reservationView adds the operations currently legal on a reservation.
type reservationView struct {
	model.Reservation
	AllowedOperations []booking.Operation `json:"allowedOperations"`
}

func viewOf(r model.Reservation) reservationView {
	return reservationView{Reservation: r, AllowedOperations: booking.AllowedOperations(r.Status)}
}

// writeError maps service errors onto HTTP status codes.
func writeError(c *gin.Context, err error) {
	var verr *booking.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "field": verr.Field})
	case errors.Is(err, booking.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrReservationNotFound),
		errors.Is(err, booking.ErrTableNotFound),
		errors.Is(err, booking.ErrWaitingEntryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrIllegalTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "reservation data changed concurrently, please retry"})
	default:
		log.Printf("Error handling %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// Login exchanges the admin password for a bearer token.
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	token, expires, err := h.auth.Login(req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "expiresAt": expires})
}

// Stream upgrades to a WebSocket that receives an event after every change.
func (h *Handler) Stream(c *gin.Context) {
	if h.hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "change stream is not enabled"})
		return
	}
	h.hub.ServeWS(c.Writer, c.Request)
}

// Sweep runs the status sweep immediately.
func (h *Handler) Sweep(c *gin.Context) {
	changes, err := h.service.Sweep(c.Request.Context(), h.clock.Now())
	if err != nil {
		writeError(c, err)
		return
	}
	if changes == nil {
		changes = []booking.StatusChange{}
	}
	c.JSON(http.StatusOK, gin.H{"changes": changes})
}
