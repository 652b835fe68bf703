package router

import (
	"github.com/labstack/echo/v4"

	"github.com/jirayus/yoga-studio-reservation/internal/handler"
	"github.com/jirayus/yoga-studio-reservation/internal/middleware"
)

// RegisterInstructor registers instructor-scoped endpoints under
// /v1. All routes require a valid JWT and the INSTRUCTOR role.
// Instructors claim open classes, release their own assignments and
// view the rosters of the classes they teach.
func RegisterInstructor(e *echo.Echo, h *handler.InstructorHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("INSTRUCTOR"),
	)

	g.POST("/classes/:id/claim", h.ClaimClass)
	g.DELETE("/classes/:id/claim", h.ReleaseClass)
	g.GET("/my-classes", h.MyClasses)
	g.GET("/my-classes/:id/reservations", h.ClassRoster)
}
