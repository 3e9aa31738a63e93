package auth

import (
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Bourhlef-Y/fivemarket/internal/models"
	"github.com/Bourhlef-Y/fivemarket/internal/tokens"
)

type Middleware struct {
	JWTSecret []byte
}

func New(secret []byte) *Middleware {
	return &Middleware{JWTSecret: secret}
}

type validatorFunc func(claims *tokens.AccessClaims) error

func (m *Middleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.withValidator(next, nil)
}

func (m *Middleware) RequireSeller(next echo.HandlerFunc) echo.HandlerFunc {
	return m.withValidator(next, func(claims *tokens.AccessClaims) error {
		if claims.Role != models.RoleSeller && claims.Role != models.RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "seller access required")
		}
		return nil
	})
}

func (m *Middleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.withValidator(next, func(claims *tokens.AccessClaims) error {
		if claims.Role != models.RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return nil
	})
}

func (m *Middleware) withValidator(next echo.HandlerFunc, validator validatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie("accessToken")
		if err != nil || cookie.Value == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := tokens.AccessClaimsFromToken(cookie.Value, m.JWTSecret)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return echo.NewHTTPError(http.StatusUnauthorized, "access token expired")
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}

		if validator != nil {
			if err := validator(claims); err != nil {
				return err
			}
		}

		setActor(c, claims)
		return next(c)
	}
}

func setActor(c echo.Context, claims *tokens.AccessClaims) {
	c.Set("user_id", claims.Subject)
	c.Set("role", claims.Role)
}

// ActorFrom recovers the authenticated actor the middleware stored on
// the request.
func ActorFrom(c echo.Context) (models.Actor, error) {
	s, ok := c.Get("user_id").(string)
	if !ok || s == "" {
		return models.Actor{}, errors.New("unauthorized")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return models.Actor{}, errors.New("unauthorized")
	}
	role, _ := c.Get("role").(string)
	return models.Actor{ID: id, Role: role}, nil
}
