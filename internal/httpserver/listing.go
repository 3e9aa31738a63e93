package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Bourhlef-Y/fivemarket/internal/logging"
	"github.com/Bourhlef-Y/fivemarket/internal/search"
	"github.com/Bourhlef-Y/fivemarket/internal/service"
	"github.com/Bourhlef-Y/fivemarket/internal/util"
)

type ListingHTTP struct {
	Svc    *service.ListingService
	Search *search.Client
}

func (h *ListingHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "listing.list")

	priceCeiling := 0.0
	if v := c.QueryParam("price_ceiling"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			l.Warn("list_error", "status", 400, "reason", "price_ceiling is not a number")
			return echo.NewHTTPError(http.StatusBadRequest, "price_ceiling is not a number")
		}
		priceCeiling = f
	}

	cfg := service.FilterConfig{
		Framework:    c.QueryParam("framework"),
		Category:     c.QueryParam("category"),
		ResourceType: c.QueryParam("resource_type"),
		PriceCeiling: priceCeiling,
		FreeOnly:     c.QueryParam("free_only") == "true",
		Recency:      c.QueryParam("recency"),
		Popularity:   c.QueryParam("popularity"),
		Sort:         c.QueryParam("sort"),
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	result, err := h.Svc.List(ctx, cfg, page, size)
	if err != nil {
		return respondErr(c, l, err)
	}

	l.Info("list_success", "total", result.Total)
	return c.JSON(http.StatusOK, echo.Map{
		"data": result.Items,
		"meta": pageMeta(result.Page, result.Size, result.Total),
	})
}

// SearchResources is the secondary full-text surface; the listing
// endpoint stays authoritative.
func (h *ListingHTTP) SearchResources(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "listing.search")

	if h.Search == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search is not configured")
	}

	q := c.QueryParam("q")
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	from, limit := util.Calculate(page, size)

	total, hits, err := h.Search.Search(ctx, q, from, limit)
	if err != nil {
		return respondErr(c, l, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"total": total, "resources": hits})
}
