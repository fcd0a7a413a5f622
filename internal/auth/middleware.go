package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Middleware guards dashboard routes with the session JWT. The token is read
// from the session cookie first (the normal browser path), then from a Bearer
// Authorization header (tools and tests).
func Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenString := ""
		if cookie, err := c.Cookie(SessionCookie); err == nil && cookie.Value != "" {
			tokenString = cookie.Value
		}
		if tokenString == "" {
			authHeader := c.Request().Header.Get("Authorization")
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
		if tokenString == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Missing session")
		}

		if err := VerifySession(tokenString); err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired session")
		}
		return next(c)
	}
}
