package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Bourhlef-Y/fivemarket/internal/logging"
	authmw "github.com/Bourhlef-Y/fivemarket/internal/middleware/auth"
	"github.com/Bourhlef-Y/fivemarket/internal/models"
	"github.com/Bourhlef-Y/fivemarket/internal/service"
	"github.com/Bourhlef-Y/fivemarket/internal/transport"
	"github.com/Bourhlef-Y/fivemarket/internal/util"
)

type OrderHTTP struct {
	Svc *service.OrderService
	// PaymentSynchronous short-circuits pending straight to completed,
	// the stubbed payment path used outside production.
	PaymentSynchronous bool
}

func (h *OrderHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.checkout")

	actor, err := authmw.ActorFrom(c)
	if err != nil {
		l.Warn("checkout_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("checkout_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	lines := make([]service.CheckoutLine, len(req.Items))
	for i, item := range req.Items {
		lines[i] = service.CheckoutLine{
			ResourceID: item.ResourceID,
			Escrow: service.EscrowFields{
				CfxID:    item.CfxID,
				Email:    item.Email,
				Username: item.Username,
			},
		}
	}

	orders, err := h.Svc.Checkout(ctx, actor, lines, h.PaymentSynchronous)
	if err != nil {
		return respondErr(c, l, err)
	}

	l.Info("checkout_success", "orders", len(orders))
	return c.JSON(http.StatusCreated, orders)
}

func (h *OrderHTTP) orderAction(c echo.Context, name string, fn func(actor models.Actor, id uuid.UUID) (any, error)) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order."+name)

	actor, err := authmw.ActorFrom(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	out, err := fn(actor, id)
	if err != nil {
		return respondErr(c, l, err)
	}

	l.Info(name+"_success", "order_id", id)
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHTTP) Confirm(c echo.Context) error {
	return h.orderAction(c, "confirm", func(actor models.Actor, id uuid.UUID) (any, error) {
		return h.Svc.ConfirmPayment(c.Request().Context(), actor, id)
	})
}

func (h *OrderHTTP) Deliver(c echo.Context) error {
	return h.orderAction(c, "deliver", func(actor models.Actor, id uuid.UUID) (any, error) {
		return h.Svc.Deliver(c.Request().Context(), actor, id)
	})
}

func (h *OrderHTTP) Cancel(c echo.Context) error {
	return h.orderAction(c, "cancel", func(actor models.Actor, id uuid.UUID) (any, error) {
		return h.Svc.Cancel(c.Request().Context(), actor, id)
	})
}

func (h *OrderHTTP) Download(c echo.Context) error {
	return h.orderAction(c, "download", func(actor models.Actor, id uuid.UUID) (any, error) {
		url, err := h.Svc.Download(c.Request().Context(), actor, id)
		if err != nil {
			return nil, err
		}
		return echo.Map{"download_url": url}, nil
	})
}

func (h *OrderHTTP) Get(c echo.Context) error {
	return h.orderAction(c, "get", func(actor models.Actor, id uuid.UUID) (any, error) {
		return h.Svc.Get(c.Request().Context(), actor, id)
	})
}

func (h *OrderHTTP) ListPurchases(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_purchases")

	actor, err := authmw.ActorFrom(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, orders, err := h.Svc.ListPurchases(ctx, actor, offset, limit)
	if err != nil {
		return respondErr(c, l, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": orders,
		"meta": pageMeta(page, limit, total),
	})
}

func (h *OrderHTTP) ListSales(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_sales")

	actor, err := authmw.ActorFrom(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, orders, err := h.Svc.ListSales(ctx, actor, offset, limit)
	if err != nil {
		return respondErr(c, l, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": orders,
		"meta": pageMeta(page, limit, total),
	})
}
