package httpapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"horse.fit/dealsweep/internal/auth"
)

// requireAuth gates the cleanup trigger endpoints behind a bearer token
// checked against the configured bcrypt hash.
func (s *Server) requireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if s.opts.APITokenHash == "" {
				return fail(c, http.StatusForbidden, "Cleanup triggers are disabled", nil)
			}

			token, found := bearerToken(c.Request().Header.Get("Authorization"))
			if !found {
				return unauthorizedResponse(c)
			}
			if !auth.VerifyToken(token, s.opts.APITokenHash) {
				return unauthorizedResponse(c)
			}

			return next(c)
		}
	}
}

func bearerToken(header string) (string, bool) {
	trimmed := strings.TrimSpace(header)
	if trimmed == "" {
		return "", false
	}
	parts := strings.SplitN(trimmed, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}

func unauthorizedResponse(c echo.Context) error {
	return fail(c, http.StatusUnauthorized, "Authentication required", nil)
}
