package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Bourhlef-Y/fivemarket/internal/fault"
)

// respondErr maps the service error taxonomy onto HTTP. Validation
// errors carry their field map so the caller can surface per-field
// reasons.
func respondErr(c echo.Context, l *slog.Logger, err error) error {
	switch {
	case errors.Is(err, fault.ErrValidation):
		l.Warn("request rejected", "status", 400, "error", err)
		if fields := fault.Fields(err); fields != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error":  "validation",
				"fields": fields,
			})
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, fault.ErrForbidden):
		l.Warn("request rejected", "status", 403, "error", err)
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, fault.ErrNotFound):
		l.Warn("request rejected", "status", 404, "error", err)
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, fault.ErrConflict):
		l.Warn("request rejected", "status", 409, "error", err)
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, fault.ErrUpstream):
		l.Error("upstream failure", "status", 502, "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "upstream failure")
	default:
		l.Error("internal error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func pageMeta(page, size int, total int64) echo.Map {
	totalPages := (total + int64(size) - 1) / int64(size)
	return echo.Map{
		"page":        page,
		"size":        size,
		"total":       total,
		"total_pages": totalPages,
		"has_prev":    page > 1,
		"has_next":    int64(page) < totalPages,
	}
}
