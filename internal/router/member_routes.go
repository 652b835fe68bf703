package router

import (
	"github.com/labstack/echo/v4"

	"github.com/jirayus/yoga-studio-reservation/internal/handler"
	"github.com/jirayus/yoga-studio-reservation/internal/middleware"
)

// RegisterMember registers member-scoped endpoints under /v1. All
// routes require a valid JWT and the MEMBER role. Members book
// classes against their session ledger, manage their reservations
// and order session packages.
func RegisterMember(e *echo.Echo, h *handler.MemberHandler, o *handler.OrderHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("MEMBER"),
	)

	g.POST("/reservations", h.CreateReservation)
	g.GET("/my-reservations", h.ListMyReservations)
	g.GET("/reservations/:id", h.GetReservation)
	g.DELETE("/reservations/:id", h.CancelReservation)

	g.POST("/orders", o.CreateOrder)
	g.GET("/my-orders", o.ListMyOrders)
}
