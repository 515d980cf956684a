package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hojimahmudov/orderbot/internal/model"
	"github.com/hojimahmudov/orderbot/internal/service"
)

const userContextKey = "auth_user"

// Auth resolves the Bearer access token into a user and stores it on the
// echo context. Requests without a valid token get a 401.
func Auth(authService service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			user, err := authService.Authenticate(c.Request().Context(), token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}
			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

// CurrentUser returns the authenticated user set by Auth.
func CurrentUser(c echo.Context) *model.User {
	user, _ := c.Get(userContextKey).(*model.User)
	return user
}

// Staff guards staff-only endpoints with a shared token.
func Staff(staffToken string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if staffToken == "" || c.Request().Header.Get("X-Staff-Token") != staffToken {
				return echo.NewHTTPError(http.StatusUnauthorized, "staff token required")
			}
			return next(c)
		}
	}
}
