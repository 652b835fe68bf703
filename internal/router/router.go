// Package router registers the HTTP routes per actor group: public
// catalog, auth, member, instructor and admin.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/jirayus/yoga-studio-reservation/internal/handler"
	"github.com/jirayus/yoga-studio-reservation/internal/middleware"
)

// RegisterRoutes registers routes that need no authentication.
// Currently only the health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints.
// Unauthenticated operations live under /v1/auth; GET /v1/me is
// protected and returns the caller's identity plus session ledger.
// Logout is registered outside the JWT middleware because it accepts
// either a bearer token or a refresh token in the body.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("MEMBER", "INSTRUCTOR", "ADMIN"),
	)
	auth.GET("/me", a.Me)

	e.POST("/v1/logout", a.Logout)
}

// RegisterPublic registers the unauthenticated catalog endpoints.
// The supplied middlewares (typically the Redis response cache) are
// applied to these GET routes only, so authenticated views are never
// served from cache.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, mws ...echo.MiddlewareFunc) {
	e.GET("/v1/classes", p.ListClasses, mws...)
	e.GET("/v1/classes/:id", p.GetClass, mws...)
	e.GET("/v1/search/classes", p.SearchClasses, mws...)
	e.GET("/v1/packages", p.ListPackages, mws...)
}
