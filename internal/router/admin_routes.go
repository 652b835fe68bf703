package router

import (
	"github.com/labstack/echo/v4"

	"github.com/jirayus/yoga-studio-reservation/internal/handler"
	"github.com/jirayus/yoga-studio-reservation/internal/middleware"
)

// RegisterAdmin registers ADMIN-scoped endpoints under /v1: class
// catalog management, roster views with override cancel, package
// management and order approval.
func RegisterAdmin(e *echo.Echo, classes *handler.AdminClassHandler, reservations *handler.AdminReservationHandler, packages *handler.AdminPackageHandler, orders *handler.OrderHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)

	// ---- Classes ----
	g.POST("/classes", classes.CreateClass)
	g.PUT("/classes/:id", classes.UpdateClass)
	g.PATCH("/classes/:id", classes.UpdateClass) // alias for clients that use PATCH
	g.DELETE("/classes/:id", classes.DeleteClass)
	g.POST("/classes/:id/duplicate", classes.DuplicateClass)

	// ---- Rosters ----
	g.GET("/classes/:id/reservations", reservations.ListClassReservations)
	g.DELETE("/admin/reservations/:id", reservations.CancelReservation)

	// ---- Packages ----
	g.POST("/admin/packages", packages.CreatePackage)
	g.GET("/admin/packages", packages.ListPackages)
	g.PUT("/admin/packages/:id", packages.UpdatePackage)
	g.DELETE("/admin/packages/:id", packages.DeletePackage)

	// ---- Orders ----
	g.GET("/orders", orders.ListOrders)
	g.POST("/orders/:id/approve", orders.ApproveOrder)
	g.POST("/orders/:id/reject", orders.RejectOrder)
}
