package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jirayus/yoga-studio-reservation/internal/model"
	"github.com/jirayus/yoga-studio-reservation/internal/repository"
)

// AdminReservationHandler gives admins a view over class rosters and
// an override cancel that skips the cutoff and the ownership check.
// The cancelled member is still credited their session back.
type AdminReservationHandler struct {
	Users        *repository.UserRepo
	Classes      *repository.ClassRepo
	Reservations *repository.ReservationRepo
}

func NewAdminReservationHandler(users *repository.UserRepo, classes *repository.ClassRepo, reservations *repository.ReservationRepo) *AdminReservationHandler {
	if users == nil || classes == nil || reservations == nil {
		panic("nil repository passed to NewAdminReservationHandler")
	}
	return &AdminReservationHandler{Users: users, Classes: classes, Reservations: reservations}
}

// ListClassReservations handles GET /v1/classes/:id/reservations:
// the full roster of a class including cancelled history, with
// member identity attached.
func (h *AdminReservationHandler) ListClassReservations(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class id"})
	}
	ctx := c.Request().Context()
	cl, err := h.Classes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrClassNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	roster, err := h.Reservations.ListByClass(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"class":        toPublicClass(*cl),
		"reservations": roster,
	})
}

// CancelReservation handles DELETE /v1/admin/reservations/:id. Same
// transaction shape as the member cancel but without the cutoff or
// ownership restrictions, for front-desk overrides. The admin does
// not know the owning member up front, so the reservation is first
// read without a lock to learn the user, then the user row is
// locked and the reservation re-read under lock. The user row comes
// first, matching the booking transaction's lock order.
func (h *AdminReservationHandler) CancelReservation(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}

	ctx := c.Request().Context()
	tx, err := h.Reservations.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	peek, err := h.Reservations.GetTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if _, err := h.Users.GetForUpdateTx(ctx, tx, peek.UserID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	// Re-read under lock; status may have flipped while unlocked.
	res, _, err := h.Reservations.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if res.Status != model.ReservationStatusReserved {
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation already cancelled"})
	}

	if err := h.Reservations.CancelTx(ctx, tx, res.ID); err != nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation already cancelled"})
	}
	if err := h.Users.CreditSessionTx(ctx, tx, res.UserID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to credit session"})
	}
	amount, err := h.Classes.RecomputeAmountTx(ctx, tx, res.ClassID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update class"})
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	return c.JSON(http.StatusOK, echo.Map{
		"cancelled":      true,
		"reservation_id": res.ID,
		"class_id":       res.ClassID,
		"user_id":        res.UserID,
		"amount":         amount,
		"cancelled_at":   time.Now().UTC().Format(time.RFC3339),
	})
}
