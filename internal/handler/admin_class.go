package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jirayus/yoga-studio-reservation/internal/model"
	"github.com/jirayus/yoga-studio-reservation/internal/repository"
)

// AdminClassHandler manages the class catalog: create, update,
// delete and duplicate. Updates are conditional on the version the
// client read, so two admins editing the same class cannot silently
// overwrite each other.
type AdminClassHandler struct {
	Classes *repository.ClassRepo
}

func NewAdminClassHandler(classes *repository.ClassRepo) *AdminClassHandler {
	if classes == nil {
		panic("nil repository passed to NewAdminClassHandler")
	}
	return &AdminClassHandler{Classes: classes}
}

type classCreateReq struct {
	Title      string `json:"title"`
	Instructor string `json:"instructor"`
	StartsAt   string `json:"starts_at"`
	EndsAt     string `json:"ends_at"`
	RoomNumber string `json:"room_number"`
	Passcode   string `json:"passcode"`
	ZoomLink   string `json:"zoom_link"`
	Capacity   uint32 `json:"capacity"`
}

// adminClass is the admin response shape; unlike the public catalog
// it includes the meeting passcode and zoom link.
type adminClass struct {
	publicClass
	Passcode string `json:"passcode"`
	ZoomLink string `json:"zoom_link"`
}

func toAdminClass(c model.Class) adminClass {
	return adminClass{publicClass: toPublicClass(c), Passcode: c.Passcode, ZoomLink: c.ZoomLink}
}

func parseRFC3339(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// CreateClass handles POST /v1/classes. Timestamps are RFC3339;
// ends_at must lie after starts_at and the room must be free for the
// whole window.
func (h *AdminClassHandler) CreateClass(c echo.Context) error {
	var req classCreateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	req.RoomNumber = strings.TrimSpace(req.RoomNumber)
	if req.Title == "" || req.RoomNumber == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and room_number are required"})
	}
	startsAt, err := parseRFC3339(req.StartsAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid starts_at"})
	}
	endsAt, err := parseRFC3339(req.EndsAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ends_at"})
	}
	if !endsAt.After(startsAt) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ends_at must be after starts_at"})
	}

	ctx := c.Request().Context()
	overlaps, err := h.Classes.FindOverlapping(ctx, req.RoomNumber, startsAt, endsAt, 0)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if len(overlaps) > 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "room already booked in this time window"})
	}

	cl := model.Class{
		Title:      req.Title,
		Instructor: strings.TrimSpace(req.Instructor),
		StartsAt:   startsAt,
		EndsAt:     endsAt,
		RoomNumber: req.RoomNumber,
		Passcode:   req.Passcode,
		ZoomLink:   req.ZoomLink,
		Capacity:   req.Capacity,
	}
	if err := h.Classes.Create(ctx, &cl); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create class failed"})
	}
	return c.JSON(http.StatusCreated, toAdminClass(cl))
}

type classUpdateReq struct {
	Version    *uint64 `json:"version"`
	Title      *string `json:"title"`
	Instructor *string `json:"instructor"`
	StartsAt   *string `json:"starts_at"`
	EndsAt     *string `json:"ends_at"`
	RoomNumber *string `json:"room_number"`
	Passcode   *string `json:"passcode"`
	ZoomLink   *string `json:"zoom_link"`
	Capacity   *uint32 `json:"capacity"`
}

// UpdateClass handles PUT /v1/classes/:id. Omitted fields keep their
// current value. The body must carry the version the client read; a
// stale version yields 409 and the client re-reads before retrying.
func (h *AdminClassHandler) UpdateClass(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class id"})
	}
	var req classUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Version == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "version is required"})
	}

	ctx := c.Request().Context()
	cl, err := h.Classes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrClassNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	if req.Title != nil {
		cl.Title = strings.TrimSpace(*req.Title)
	}
	if req.Instructor != nil {
		cl.Instructor = strings.TrimSpace(*req.Instructor)
	}
	if req.StartsAt != nil {
		t, err := parseRFC3339(*req.StartsAt)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid starts_at"})
		}
		cl.StartsAt = t
	}
	if req.EndsAt != nil {
		t, err := parseRFC3339(*req.EndsAt)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ends_at"})
		}
		cl.EndsAt = t
	}
	if req.RoomNumber != nil {
		cl.RoomNumber = strings.TrimSpace(*req.RoomNumber)
	}
	if req.Passcode != nil {
		cl.Passcode = *req.Passcode
	}
	if req.ZoomLink != nil {
		cl.ZoomLink = *req.ZoomLink
	}
	if req.Capacity != nil {
		cl.Capacity = *req.Capacity
	}
	if cl.Title == "" || cl.RoomNumber == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and room_number cannot be empty"})
	}
	if !cl.EndsAt.After(cl.StartsAt) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ends_at must be after starts_at"})
	}

	overlaps, err := h.Classes.FindOverlapping(ctx, cl.RoomNumber, cl.StartsAt, cl.EndsAt, cl.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if len(overlaps) > 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "room already booked in this time window"})
	}

	if err := h.Classes.UpdateVersioned(ctx, cl, *req.Version); err != nil {
		switch {
		case errors.Is(err, repository.ErrClassNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
		case errors.Is(err, repository.ErrVersionConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "version conflict, reload and retry"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update class failed"})
		}
	}
	return c.JSON(http.StatusOK, toAdminClass(*cl))
}

// DeleteClass handles DELETE /v1/classes/:id. A class with active
// reservations cannot be deleted; members must be cancelled (and
// credited) first.
func (h *AdminClassHandler) DeleteClass(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class id"})
	}
	if err := h.Classes.Delete(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrClassNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "class has active reservations"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete class failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}

type classDuplicateReq struct {
	StartsAt string `json:"starts_at"`
	EndsAt   string `json:"ends_at"`
}

// DuplicateClass handles POST /v1/classes/:id/duplicate: copies all
// fields of an existing class onto a new time window. The roster
// starts empty; the instructor assignment is carried over.
func (h *AdminClassHandler) DuplicateClass(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class id"})
	}
	var req classDuplicateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	startsAt, err := parseRFC3339(req.StartsAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid starts_at"})
	}
	endsAt, err := parseRFC3339(req.EndsAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ends_at"})
	}
	if !endsAt.After(startsAt) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ends_at must be after starts_at"})
	}

	ctx := c.Request().Context()
	src, err := h.Classes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrClassNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	overlaps, err := h.Classes.FindOverlapping(ctx, src.RoomNumber, startsAt, endsAt, 0)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if len(overlaps) > 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "room already booked in this time window"})
	}

	dup := model.Class{
		Title:      src.Title,
		Instructor: src.Instructor,
		StartsAt:   startsAt,
		EndsAt:     endsAt,
		RoomNumber: src.RoomNumber,
		Passcode:   src.Passcode,
		ZoomLink:   src.ZoomLink,
		Capacity:   src.Capacity,
	}
	if err := h.Classes.Create(ctx, &dup); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "duplicate class failed"})
	}
	return c.JSON(http.StatusCreated, toAdminClass(dup))
}
