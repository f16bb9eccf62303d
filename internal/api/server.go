package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/satriahrh/speechbox/internal/auth"
)

// ServerOptions configures NewServer
type ServerOptions struct {
	Policy        auth.Policy
	MaxUploadSize string
}

// NewServer builds the echo instance with middleware and routes. The access
// gate runs before any body is read.
func NewServer(svc SpeechService, opts ServerOptions, logger *zap.Logger) *echo.Echo {
	policy := opts.Policy
	if policy == nil {
		policy = auth.LoopbackOnly()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	// logged remote IPs come from the connection, like the access gate's
	e.IPExtractor = echo.ExtractIPDirect()
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(auth.Middleware(policy, logger))
	if opts.MaxUploadSize != "" {
		e.Use(middleware.BodyLimit(opts.MaxUploadSize))
	}

	InitRoutes(e, svc, logger)
	return e
}

func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("request_id", v.RequestID),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
				logger.Warn("Request failed", fields...)
				return nil
			}
			logger.Info("Request handled", fields...)
			return nil
		},
	})
}

// errorHandler renders framework errors (404, 405, 413, panics) with the
// same body shape as handler errors
func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := http.StatusText(code)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			} else {
				msg = http.StatusText(code)
			}
		} else {
			logger.Error("Unhandled error", zap.Error(err))
		}

		var respErr error
		if c.Request().Method == http.MethodHead {
			respErr = c.NoContent(code)
		} else {
			respErr = c.JSON(code, ErrorResponse{
				Error:   errorCode(code),
				Message: msg,
			})
		}
		if respErr != nil {
			logger.Error("Failed to write error response", zap.Error(respErr))
		}
	}
}

func errorCode(status int) string {
	switch status {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusRequestEntityTooLarge:
		return "payload_too_large"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusBadRequest:
		return "invalid_request"
	default:
		return "internal_error"
	}
}
