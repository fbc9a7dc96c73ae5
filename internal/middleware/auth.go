package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	UserIDHeader = "X-User-Id"
	userIDKey    = "user_id"
)

// AuthMiddleware trusts the caller identity set by the gateway in front of
// the service. Requests without it are rejected.
func AuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := strings.TrimSpace(c.Request().Header.Get(UserIDHeader))
			if userID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing "+UserIDHeader+" header")
			}
			c.Set(userIDKey, userID)
			return next(c)
		}
	}
}

// UserID returns the identity stored by AuthMiddleware.
func UserID(c echo.Context) string {
	userID, _ := c.Get(userIDKey).(string)
	return userID
}
