package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/jirayus/yoga-studio-reservation/internal/model"
	"github.com/jirayus/yoga-studio-reservation/internal/repository"
)

// AdminPackageHandler manages the session packages members can
// order. Packages referenced by orders cannot be deleted, only
// retired with is_active, so approved history keeps its terms.
type AdminPackageHandler struct {
	Packages *repository.PackageRepo
}

func NewAdminPackageHandler(packages *repository.PackageRepo) *AdminPackageHandler {
	if packages == nil {
		panic("nil repository passed to NewAdminPackageHandler")
	}
	return &AdminPackageHandler{Packages: packages}
}

type packageReq struct {
	Name         string `json:"name"`
	Sessions     uint32 `json:"sessions"`
	DurationDays uint32 `json:"duration_days"`
	PriceCents   uint32 `json:"price_cents"`
	IsActive     *bool  `json:"is_active"`
}

// packageResp is the admin response shape for a package.
type packageResp struct {
	ID           uint64 `json:"id"`
	Name         string `json:"name"`
	Sessions     uint32 `json:"sessions"`
	DurationDays uint32 `json:"duration_days"`
	PriceCents   uint32 `json:"price_cents"`
	IsActive     bool   `json:"is_active"`
}

func toPackageResp(p model.Package) packageResp {
	return packageResp{
		ID:           p.ID,
		Name:         p.Name,
		Sessions:     p.Sessions,
		DurationDays: p.DurationDays,
		PriceCents:   p.PriceCents,
		IsActive:     p.IsActive,
	}
}

func (r *packageReq) validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.Sessions == 0 {
		return errors.New("sessions must be positive")
	}
	if r.DurationDays == 0 {
		return errors.New("duration_days must be positive")
	}
	return nil
}

// CreatePackage handles POST /v1/admin/packages.
func (h *AdminPackageHandler) CreatePackage(c echo.Context) error {
	var req packageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := req.validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	p := model.Package{
		Name:         req.Name,
		Sessions:     req.Sessions,
		DurationDays: req.DurationDays,
		PriceCents:   req.PriceCents,
		IsActive:     active,
	}
	if err := h.Packages.Create(c.Request().Context(), &p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create package failed"})
	}
	return c.JSON(http.StatusCreated, toPackageResp(p))
}

// ListPackages handles GET /v1/admin/packages: every package,
// including retired ones.
func (h *AdminPackageHandler) ListPackages(c echo.Context) error {
	packages, err := h.Packages.List(c.Request().Context(), false)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]packageResp, 0, len(packages))
	for _, p := range packages {
		out = append(out, toPackageResp(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"packages": out})
}

// UpdatePackage handles PUT /v1/admin/packages/:id.
func (h *AdminPackageHandler) UpdatePackage(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid package id"})
	}
	var req packageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := req.validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	p := model.Package{
		ID:           id,
		Name:         req.Name,
		Sessions:     req.Sessions,
		DurationDays: req.DurationDays,
		PriceCents:   req.PriceCents,
		IsActive:     active,
	}
	if err := h.Packages.Update(c.Request().Context(), &p); err != nil {
		if errors.Is(err, repository.ErrPackageNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "package not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update package failed"})
	}
	return c.JSON(http.StatusOK, toPackageResp(p))
}

// DeletePackage handles DELETE /v1/admin/packages/:id.
func (h *AdminPackageHandler) DeletePackage(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid package id"})
	}
	if err := h.Packages.Delete(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrPackageNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "package not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "package has orders, retire it instead"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete package failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}
