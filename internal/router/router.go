// Package router wires handlers to echo routes.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/train-seat-reservation/internal/handler"
)

// RegisterRoutes registers routes that have no dependencies.  Currently it
// exposes only the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterReservation registers the seat map and booking endpoints under
// /v1.  Reads are never limited; every route that changes state goes
// through limiter.
func RegisterReservation(e *echo.Echo, h *handler.ReservationHandler, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1")

	g.GET("/seats", h.GetSeats)
	g.GET("/events", h.Events)

	// Mutating endpoints.
	m := g.Group("", limiter)
	m.POST("/seats/load", h.Load)
	m.POST("/seats/reset", h.Reset)
	m.POST("/seats/:number/toggle", h.ToggleSeat)
	m.PUT("/booking/count", h.SetCount)
	m.POST("/bookings", h.Book)
}
