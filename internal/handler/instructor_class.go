package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jirayus/yoga-studio-reservation/internal/repository"
)

// InstructorHandler lets instructors claim open classes, release
// their own assignments and list the classes they teach. The claim
// is a conditional UPDATE so two instructors racing for the same
// class resolve first-wins instead of last-write-wins.
type InstructorHandler struct {
	Users        *repository.UserRepo
	Classes      *repository.ClassRepo
	Reservations *repository.ReservationRepo
}

func NewInstructorHandler(users *repository.UserRepo, classes *repository.ClassRepo, reservations *repository.ReservationRepo) *InstructorHandler {
	if users == nil || classes == nil || reservations == nil {
		panic("nil repository passed to NewInstructorHandler")
	}
	return &InstructorHandler{Users: users, Classes: classes, Reservations: reservations}
}

// instructorName loads the caller's display name; the classes table
// stores instructors by name, not by user id.
func (h *InstructorHandler) instructorName(c echo.Context) (string, error) {
	userID, err := getUserID(c)
	if err != nil {
		return "", err
	}
	u, err := h.Users.GetByID(c.Request().Context(), userID)
	if err != nil {
		return "", err
	}
	return u.FullName, nil
}

// ClaimClass handles POST /v1/classes/:id/claim. Only an unassigned
// class can be claimed; a class someone already claimed yields 409.
func (h *InstructorHandler) ClaimClass(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class id"})
	}
	name, err := h.instructorName(c)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	if err := h.Classes.ClaimInstructor(c.Request().Context(), id, name); err != nil {
		switch {
		case errors.Is(err, repository.ErrClassNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
		case errors.Is(err, repository.ErrClassClaimed):
			return c.JSON(http.StatusConflict, echo.Map{"error": "class already claimed"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}
	cl, err := h.Classes.GetByID(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toPublicClass(*cl))
}

// ReleaseClass handles DELETE /v1/classes/:id/claim. Instructors may
// only release classes assigned to themselves.
func (h *InstructorHandler) ReleaseClass(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class id"})
	}
	name, err := h.instructorName(c)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	if err := h.Classes.ReleaseInstructor(c.Request().Context(), id, name); err != nil {
		switch {
		case errors.Is(err, repository.ErrClassNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "class is not yours to release"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// MyClasses handles GET /v1/my-classes: the classes assigned to the
// calling instructor, ordered by start time.
func (h *InstructorHandler) MyClasses(c echo.Context) error {
	name, err := h.instructorName(c)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	classes, err := h.Classes.ListByInstructor(c.Request().Context(), name)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]publicClass, 0, len(classes))
	for _, cl := range classes {
		out = append(out, toPublicClass(cl))
	}
	return c.JSON(http.StatusOK, echo.Map{"classes": out})
}

// ClassRoster handles GET /v1/my-classes/:id/reservations: the
// roster of a class the calling instructor teaches. Other
// instructors' classes yield 403.
func (h *InstructorHandler) ClassRoster(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class id"})
	}
	name, err := h.instructorName(c)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	cl, err := h.Classes.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrClassNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if cl.Instructor != name {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "class is not yours"})
	}
	roster, err := h.Reservations.ListByClass(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"class":        toPublicClass(*cl),
		"reservations": roster,
	})
}
