package handler

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jirayus/yoga-studio-reservation/internal/booking"
	"github.com/jirayus/yoga-studio-reservation/internal/model"
	"github.com/jirayus/yoga-studio-reservation/internal/queue"
	"github.com/jirayus/yoga-studio-reservation/internal/repository"
	queue_publisher "github.com/jirayus/yoga-studio-reservation/internal/service"
)

// MemberHandler implements the reservation workflow for members:
// booking a class against the session ledger, listing and viewing
// own reservations, and cancelling before the cutoff. Every mutating
// operation runs in a single transaction; the user row lock is taken
// first so concurrent bookings by the same member are serialized.
type MemberHandler struct {
	Users        *repository.UserRepo
	Classes      *repository.ClassRepo
	Reservations *repository.ReservationRepo
}

func NewMemberHandler(users *repository.UserRepo, classes *repository.ClassRepo, reservations *repository.ReservationRepo) *MemberHandler {
	if users == nil || classes == nil || reservations == nil {
		panic("nil repository passed to NewMemberHandler")
	}
	return &MemberHandler{Users: users, Classes: classes, Reservations: reservations}
}

// CreateReservation handles POST /v1/reservations. In one transaction:
// lock the member row, check the session ledger, lock the class row,
// check schedule and capacity, reject duplicates, insert the
// reservation, debit one session and recompute the roster count from
// the reservations table. The reservation.booked event is published
// after commit, best-effort.
func (h *MemberHandler) CreateReservation(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		ClassID uint64 `json:"class_id"`
	}
	if err := c.Bind(&body); err != nil || body.ClassID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "class_id is required"})
	}

	ctx := c.Request().Context()
	now := time.Now().UTC()

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

	// User row lock first: serializes bookings by the same member so
	// the ledger check and the debit cannot race.
	user, err := h.Users.GetForUpdateTx(ctx, tx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := booking.CanBook(user.RemainingSessions, user.SessionsExpireAt, now); err != nil {
		switch {
		case errors.Is(err, booking.ErrNoPackage), errors.Is(err, booking.ErrPackageExpired),
			errors.Is(err, booking.ErrNoRemainingSessions):
			return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}

	cl, err := h.Classes.GetForUpdateTx(ctx, tx, body.ClassID)
	if err != nil {
		if errors.Is(err, repository.ErrClassNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := booking.CheckSchedule(cl.StartsAt, now); err != nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "class already started"})
	}
	if err := booking.CheckCapacity(cl.Capacity, cl.Amount); err != nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "class is full"})
	}

	active, err := h.Reservations.HasActiveTx(ctx, tx, userID, cl.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if active {
		return c.JSON(http.StatusConflict, echo.Map{"error": "already reserved"})
	}

	res := model.Reservation{UserID: userID, ClassID: cl.ID}
	if err := h.Reservations.CreateTx(ctx, tx, &res); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create reservation"})
	}
	if err := h.Users.DebitSessionTx(ctx, tx, userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to debit session"})
	}
	amount, err := h.Classes.RecomputeAmountTx(ctx, tx, cl.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update class"})
	}
	participants, err := h.Reservations.ParticipantsTx(ctx, tx, cl.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	remaining := user.RemainingSessions - 1

	event := queue.ReservationBookedEvent{
		ReservationID:     res.ID,
		UserID:            userID,
		MemberName:        user.FullName,
		ClassID:           cl.ID,
		ClassTitle:        cl.Title,
		Instructor:        cl.Instructor,
		RoomNumber:        cl.RoomNumber,
		StartsAt:          cl.StartsAt.UTC().Format(time.RFC3339),
		EndsAt:            cl.EndsAt.UTC().Format(time.RFC3339),
		Amount:            amount,
		Capacity:          cl.Capacity,
		Participants:      participants,
		RemainingSessions: remaining,
		BookedAt:          res.ReservedAt.UTC().Format(time.RFC3339),
	}
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := queue_publisher.PublishReservationBooked(pubCtx, event); err != nil {
			log.Printf("reservation %d: publish booked event failed: %v", res.ID, err)
		}
	}()

	cl.Amount = amount
	return c.JSON(http.StatusCreated, echo.Map{
		"reservation": echo.Map{
			"id":          res.ID,
			"class_id":    res.ClassID,
			"status":      res.Status,
			"reserved_at": res.ReservedAt.UTC().Format(time.RFC3339),
		},
		"class":              toPublicClass(*cl),
		"remaining_sessions": remaining,
	})
}

// ListMyReservations handles GET /v1/my-reservations: the member's
// reservations with class details, newest first, including cancelled
// history.
func (h *MemberHandler) ListMyReservations(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	details, err := h.Reservations.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": details})
}

// GetReservation handles GET /v1/reservations/:id. Ownership is
// enforced in the query, so someone else's reservation surfaces as
// 404. An active reservation additionally exposes the class's zoom
// link and passcode, which the public catalog hides.
func (h *MemberHandler) GetReservation(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	ctx := c.Request().Context()
	detail, err := h.Reservations.GetByIDForUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	resp := echo.Map{"reservation": detail}
	if detail.Status == model.ReservationStatusReserved {
		cl, err := h.Classes.GetByID(ctx, detail.ClassID)
		if err == nil {
			resp["zoom_link"] = cl.ZoomLink
			resp["passcode"] = cl.Passcode
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// CancelReservation handles DELETE /v1/reservations/:id. The
// cancellation is a soft state change: in one transaction the
// member row is locked, then the reservation with its class,
// ownership and RESERVED status verified, the cutoff enforced
// (strictly before starts_at minus the cutoff), the row flipped to
// CANCELLED, the session credited back and the roster count
// recomputed. Locks are taken in the same order as booking, user
// row first, so a cancel racing a booking blocks instead of
// deadlocking.
func (h *MemberHandler) CancelReservation(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}

	ctx := c.Request().Context()
	now := time.Now().UTC()

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

	// User row lock first, matching the booking transaction.
	if _, err := h.Users.GetForUpdateTx(ctx, tx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	res, startsAt, err := h.Reservations.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if res.UserID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if res.Status != model.ReservationStatusReserved {
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation already cancelled"})
	}
	if err := booking.CanCancel(startsAt, now); err != nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "cancellation cutoff passed"})
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
		"amount":         amount,
	})
}
