package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Bourhlef-Y/fivemarket/internal/logging"
	authmw "github.com/Bourhlef-Y/fivemarket/internal/middleware/auth"
	"github.com/Bourhlef-Y/fivemarket/internal/service"
	"github.com/Bourhlef-Y/fivemarket/internal/transport"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	actor, err := authmw.ActorFrom(c)
	if err != nil {
		l.Warn("get_cart_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	cart, err := h.Svc.Load(ctx, actor)
	if err != nil {
		return respondErr(c, l, err)
	}

	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	actor, err := authmw.ActorFrom(c)
	if err != nil {
		l.Warn("add_to_cart_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.AddToCartRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("add_to_cart_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	cart, err := h.Svc.Add(ctx, actor, req.ResourceID)
	if err != nil {
		return respondErr(c, l, err)
	}

	l.Info("add_to_cart_success", "resource_id", req.ResourceID)
	return c.JSON(http.StatusCreated, cart)
}

func (h *CartHTTP) Remove(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	actor, err := authmw.ActorFrom(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	resourceID, err := uuid.Parse(c.Param("resource_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "resource_id is not a uuid")
	}

	cart, err := h.Svc.Remove(ctx, actor, resourceID)
	if err != nil {
		return respondErr(c, l, err)
	}

	l.Info("remove_from_cart_success", "resource_id", resourceID)
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	actor, err := authmw.ActorFrom(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	cart, err := h.Svc.Clear(ctx, actor)
	if err != nil {
		return respondErr(c, l, err)
	}

	l.Info("clear_cart_success")
	return c.JSON(http.StatusOK, cart)
}
