package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Bourhlef-Y/fivemarket/internal/logging"
	"github.com/Bourhlef-Y/fivemarket/internal/service"
	"github.com/Bourhlef-Y/fivemarket/internal/tokens"
	"github.com/Bourhlef-Y/fivemarket/internal/transport"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		return respondErr(c, l, err)
	}

	l.Info("register_success", "user_id", user.ID)
	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	result, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		return respondErr(c, l, err)
	}

	setAuthCookies(c, result)
	l.Info("login_success")
	return c.JSON(http.StatusOK, echo.Map{"role": result.Role})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	cookie, err := c.Cookie("refreshToken")
	if err != nil || cookie.Value == "" {
		l.Warn("refresh_error", "status", 401, "reason", "missing refresh token")
		return echo.NewHTTPError(http.StatusUnauthorized, "missing refresh token")
	}

	result, err := h.Svc.Refresh(ctx, cookie.Value)
	if err != nil {
		clearAuthCookies(c)
		return respondErr(c, l, err)
	}

	setAuthCookies(c, result)
	l.Info("refresh_success")
	return c.JSON(http.StatusOK, echo.Map{"role": result.Role})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	if cookie, err := c.Cookie("refreshToken"); err == nil && cookie.Value != "" {
		if err := h.Svc.Logout(ctx, cookie.Value); err != nil {
			clearAuthCookies(c)
			return respondErr(c, l, err)
		}
	}

	clearAuthCookies(c)
	l.Info("logout_success")
	return c.NoContent(http.StatusNoContent)
}

func setAuthCookies(c echo.Context, result *service.LoginResult) {
	c.SetCookie(tokens.CreateCookie("accessToken", result.AccessToken, "/", result.AccessExp))
	c.SetCookie(tokens.CreateCookie("refreshToken", result.RefreshToken, "/", result.RefreshExp))
}

func clearAuthCookies(c echo.Context) {
	c.SetCookie(tokens.DeleteCookie("accessToken", "/"))
	c.SetCookie(tokens.DeleteCookie("refreshToken", "/"))
}
