package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jirayus/yoga-studio-reservation/internal/model"
	"github.com/jirayus/yoga-studio-reservation/internal/repository"
)

// PublicHandler serves the unauthenticated class catalog. Responses
// are sanitized: the meeting passcode and zoom link stay hidden from
// guests and only appear on a member's own reservation detail.
type PublicHandler struct {
	Classes  *repository.ClassRepo
	Packages *repository.PackageRepo
}

func NewPublicHandler(classes *repository.ClassRepo, packages *repository.PackageRepo) *PublicHandler {
	if classes == nil || packages == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{Classes: classes, Packages: packages}
}

// publicClass is the catalog shape of a class. SpotsLeft is derived
// from capacity and amount and omitted for uncapped classes.
type publicClass struct {
	ID         uint64  `json:"id"`
	Title      string  `json:"title"`
	Instructor string  `json:"instructor"`
	StartsAt   string  `json:"starts_at"`
	EndsAt     string  `json:"ends_at"`
	RoomNumber string  `json:"room_number"`
	Capacity   uint32  `json:"capacity"`
	Amount     uint32  `json:"amount"`
	SpotsLeft  *uint32 `json:"spots_left,omitempty"`
	Version    uint64  `json:"version"`
}

func toPublicClass(c model.Class) publicClass {
	p := publicClass{
		ID:         c.ID,
		Title:      c.Title,
		Instructor: c.Instructor,
		StartsAt:   c.StartsAt.UTC().Format(time.RFC3339),
		EndsAt:     c.EndsAt.UTC().Format(time.RFC3339),
		RoomNumber: c.RoomNumber,
		Capacity:   c.Capacity,
		Amount:     c.Amount,
		Version:    c.Version,
	}
	if c.Capacity > 0 {
		left := uint32(0)
		if c.Capacity > c.Amount {
			left = c.Capacity - c.Amount
		}
		p.SpotsLeft = &left
	}
	return p
}

// ListClasses handles GET /v1/classes. The whole catalog is returned
// ordered by start time; the Redis response cache fronts this route.
func (h *PublicHandler) ListClasses(c echo.Context) error {
	classes, err := h.Classes.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]publicClass, 0, len(classes))
	for _, cl := range classes {
		out = append(out, toPublicClass(cl))
	}
	return c.JSON(http.StatusOK, echo.Map{"classes": out})
}

// GetClass handles GET /v1/classes/:id.
func (h *PublicHandler) GetClass(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class id"})
	}
	cl, err := h.Classes.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrClassNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toPublicClass(*cl))
}

// ListPackages handles GET /v1/packages: the public storefront list
// of active session packages.
func (h *PublicHandler) ListPackages(c echo.Context) error {
	packages, err := h.Packages.List(c.Request().Context(), true)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	type pkg struct {
		ID           uint64 `json:"id"`
		Name         string `json:"name"`
		Sessions     uint32 `json:"sessions"`
		DurationDays uint32 `json:"duration_days"`
		PriceCents   uint32 `json:"price_cents"`
	}
	out := make([]pkg, 0, len(packages))
	for _, p := range packages {
		out = append(out, pkg{
			ID:           p.ID,
			Name:         p.Name,
			Sessions:     p.Sessions,
			DurationDays: p.DurationDays,
			PriceCents:   p.PriceCents,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"packages": out})
}
