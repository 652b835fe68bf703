package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/jirayus/yoga-studio-reservation/internal/model"
	"github.com/jirayus/yoga-studio-reservation/internal/repository"
)

// OrderHandler covers the package purchase flow. Members place
// orders for a package; payment is settled out of band and an admin
// approves or rejects the order. Only approval credits the member's
// session ledger, inside the same transaction that flips the order
// status, so an order can never be applied twice.
type OrderHandler struct {
	Users    *repository.UserRepo
	Packages *repository.PackageRepo
	Orders   *repository.OrderRepo
}

func NewOrderHandler(users *repository.UserRepo, packages *repository.PackageRepo, orders *repository.OrderRepo) *OrderHandler {
	if users == nil || packages == nil || orders == nil {
		panic("nil repository passed to NewOrderHandler")
	}
	return &OrderHandler{Users: users, Packages: packages, Orders: orders}
}

// CreateOrder handles POST /v1/orders. The order starts PENDING and
// receives a UUID reference the member quotes when paying.
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		PackageID uint64 `json:"package_id"`
	}
	if err := c.Bind(&body); err != nil || body.PackageID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "package_id is required"})
	}

	ctx := c.Request().Context()
	pkg, err := h.Packages.GetByID(ctx, body.PackageID)
	if err != nil {
		if errors.Is(err, repository.ErrPackageNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "package not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !pkg.IsActive {
		return c.JSON(http.StatusConflict, echo.Map{"error": "package is not on sale"})
	}

	o := model.Order{
		Reference: uuid.NewString(),
		UserID:    userID,
		PackageID: pkg.ID,
	}
	if err := h.Orders.Create(ctx, &o); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create order failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":           o.ID,
		"reference":    o.Reference,
		"package_id":   o.PackageID,
		"package_name": pkg.Name,
		"price_cents":  pkg.PriceCents,
		"status":       o.Status,
	})
}

// ListMyOrders handles GET /v1/my-orders.
func (h *OrderHandler) ListMyOrders(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orders, err := h.Orders.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}

// ListOrders handles GET /v1/orders (admin), optionally filtered by
// ?status=PENDING|APPROVED|REJECTED.
func (h *OrderHandler) ListOrders(c echo.Context) error {
	status := c.QueryParam("status")
	switch status {
	case "", model.OrderStatusPending, model.OrderStatusApproved, model.OrderStatusRejected:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status filter"})
	}
	orders, err := h.Orders.ListAll(c.Request().Context(), status)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}

// ApproveOrder handles POST /v1/orders/:id/approve. In one
// transaction: lock the order, flip PENDING to APPROVED, then credit
// the member's ledger with the package's sessions and extend the
// expiry by its duration from max(now, current expiry). A decided
// order yields 409.
func (h *OrderHandler) ApproveOrder(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}

	ctx := c.Request().Context()
	tx, err := h.Orders.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	o, err := h.Orders.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	pkg, err := h.Packages.GetByID(ctx, o.PackageID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	if err := h.Orders.DecideTx(ctx, tx, o.ID, model.OrderStatusApproved); err != nil {
		if errors.Is(err, repository.ErrOrderDecided) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "order already decided"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "approve order failed"})
	}
	if err := h.Users.ApplyPackageTx(ctx, tx, o.UserID, pkg.Sessions, pkg.DurationDays); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to credit sessions"})
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	remaining, expireAt, err := h.Users.Ledger(ctx, o.UserID)
	resp := echo.Map{
		"approved":   true,
		"order_id":   o.ID,
		"reference":  o.Reference,
		"user_id":    o.UserID,
		"package_id": o.PackageID,
	}
	if err == nil {
		resp["remaining_sessions"] = remaining
		if expireAt != nil {
			resp["sessions_expire_at"] = expireAt.UTC().Format(time.RFC3339)
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// RejectOrder handles POST /v1/orders/:id/reject. No ledger change;
// a decided order yields 409.
func (h *OrderHandler) RejectOrder(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}

	ctx := c.Request().Context()
	tx, err := h.Orders.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	o, err := h.Orders.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := h.Orders.DecideTx(ctx, tx, o.ID, model.OrderStatusRejected); err != nil {
		if errors.Is(err, repository.ErrOrderDecided) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "order already decided"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reject order failed"})
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	return c.JSON(http.StatusOK, echo.Map{
		"rejected":  true,
		"order_id":  o.ID,
		"reference": o.Reference,
	})
}
