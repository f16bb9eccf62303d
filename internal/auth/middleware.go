package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// forbiddenResponse mirrors api.ErrorResponse; auth can not import api
type forbiddenResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Middleware rejects every request whose connection address is not
// authorized by policy. The address comes from echo.ExtractIPDirect, so
// forwarding headers are ignored whatever IPExtractor the server uses.
func Middleware(policy Policy, logger *zap.Logger) echo.MiddlewareFunc {
	extractIP := echo.ExtractIPDirect()
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			remoteAddr := extractIP(c.Request())
			if !policy.IsRequestAuthorized(remoteAddr) {
				logger.Warn("Request rejected by access policy",
					zap.String("remote_addr", remoteAddr),
					zap.String("path", c.Request().URL.Path))
				return c.JSON(http.StatusForbidden, forbiddenResponse{
					Error:   "forbidden",
					Message: "Access is restricted to authorized addresses",
				})
			}
			return next(c)
		}
	}
}
