package api

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"reservation-backend/internal/mw"
)

// RouterOptions tunes the shared middleware.
type RouterOptions struct {
	RateLimitPerSec float64
	RateLimitBurst  int
	// Cache serves config and grid reads; nil disables response caching.
	Cache *mw.ResponseCache
}

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	r := gin.Default()

	rateLimiter := mw.RateLimiter(rate.Limit(opts.RateLimitPerSec), opts.RateLimitBurst)
	var caching gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if opts.Cache != nil {
		caching = opts.Cache.Middleware()
	}
	admin := h.auth.RequireAdmin()

	api := r.Group("/api")
	{
		// The change stream is long-lived and is not rate limited.
		api.GET("/ws", h.Stream)
	}

	public := api.Group("")
	public.Use(rateLimiter)
	{
		public.GET("/config", caching, h.GetConfig)
		// Slots always reflect the latest commit and are never cached.
		public.GET("/slots", h.GetSlots)
		public.POST("/reservations", h.CreateReservation)
		public.POST("/admin/login", h.Login)
	}

	private := api.Group("")
	private.Use(rateLimiter, admin)
	{
		private.PUT("/config", h.PutConfig)

		private.GET("/tables", h.ListTables)
		private.POST("/tables", h.AddTable)
		private.GET("/tables/grid", caching, h.GetTableGrid)
		private.PATCH("/tables/:id", h.UpdateTable)
		private.DELETE("/tables/:id", h.DeleteTable)

		private.GET("/reservations", h.ListReservations)
		private.GET("/reservations/:id", h.GetReservation)
		private.POST("/reservations/:id/check-in", h.CheckIn)
		private.POST("/reservations/:id/extend", h.Extend)
		private.POST("/reservations/:id/cancel", h.Cancel)

		private.GET("/waitlist", h.ListWaitingList)
		private.POST("/waitlist/:id/promote", h.Promote)
		private.DELETE("/waitlist/:id", h.RemoveWaitingEntry)

		private.POST("/sweep", h.Sweep)
	}

	return r
}
