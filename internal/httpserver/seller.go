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

type SellerHTTP struct {
	Svc *service.SellerService
}

func (h *SellerHTTP) Request(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "seller.request")

	actor, err := authmw.ActorFrom(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.SellerRequestPayload
	if err := c.Bind(&req); err != nil {
		l.Warn("seller_request_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	created, err := h.Svc.Request(ctx, actor, service.SellerRequestInput{
		BusinessName: req.BusinessName,
		BusinessType: req.BusinessType,
		Motivation:   req.Motivation,
	})
	if err != nil {
		return respondErr(c, l, err)
	}

	l.Info("seller_request_success", "request_id", created.ID)
	return c.JSON(http.StatusCreated, created)
}

func (h *SellerHTTP) Resolve(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "seller.resolve")

	actor, err := authmw.ActorFrom(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	var req transport.ResolveRequestPayload
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	resolved, err := h.Svc.Resolve(ctx, actor, id, req.Approve)
	if err != nil {
		return respondErr(c, l, err)
	}

	l.Info("seller_resolve_success", "request_id", id, "status", resolved.Status)
	return c.JSON(http.StatusOK, resolved)
}

func (h *SellerHTTP) ListRequests(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "seller.list_requests")

	actor, err := authmw.ActorFrom(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	status := models.RequestStatus(c.QueryParam("status"))
	total, reqs, err := h.Svc.ListRequests(ctx, actor, status, offset, limit)
	if err != nil {
		return respondErr(c, l, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": reqs,
		"meta": pageMeta(page, limit, total),
	})
}

func (h *SellerHTTP) Revenue(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "seller.revenue")

	actor, err := authmw.ActorFrom(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	summary, err := h.Svc.Revenue(ctx, actor)
	if err != nil {
		return respondErr(c, l, err)
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *SellerHTTP) Stats(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "seller.stats")

	actor, err := authmw.ActorFrom(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	stats, err := h.Svc.Stats(ctx, actor)
	if err != nil {
		return respondErr(c, l, err)
	}
	return c.JSON(http.StatusOK, stats)
}
