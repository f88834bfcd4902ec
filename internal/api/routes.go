package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nextstep-labs/interview-server/internal/auth"
	"github.com/nextstep-labs/interview-server/internal/websocket"
	"github.com/nextstep-labs/interview-server/usecase"
)

// Options carries the collaborators the routes need.
type Options struct {
	Registry *usecase.SessionRegistry
	Hub      *websocket.Hub

	// Tokens is nil when session tokens are disabled.
	Tokens       *auth.TokenIssuer
	RequireToken bool

	Logger *zap.Logger
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, opts Options) {
	e.Validator = NewRequestValidator()

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":   "ok",
			"service":  "interview-server",
			"sessions": opts.Registry.Len(),
		})
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.POST("/session/create", func(c echo.Context) error {
		return createSession(c, opts)
	})

	e.GET("/roles", func(c echo.Context) error {
		return c.JSON(http.StatusOK, RolesResponse{Roles: usecase.AvailableRoles()})
	})

	// WebSocket endpoint, optionally gated by a session token
	e.GET("/ws/interview/:session_id", func(c echo.Context) error {
		return interviewWebSocket(c, opts)
	})
}

func createSession(c echo.Context, opts Options) error {
	var req CreateSessionRequest

	// Bind and validate request
	if err := c.Bind(&req); err != nil {
		opts.Logger.Warn("Failed to bind create session request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	req.TargetRole = strings.TrimSpace(req.TargetRole)
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_failed",
			Message: err.Error(),
		})
	}

	interview, err := opts.Registry.Create(req.TargetRole, req.UserName)
	if err != nil {
		if errors.Is(err, usecase.ErrNotConfigured) {
			opts.Logger.Error("Session creation without reasoning model")
			return c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "configuration_error",
				Message: err.Error(),
			})
		}
		opts.Logger.Error("Failed to create session", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to create session",
		})
	}

	resp := CreateSessionResponse{
		SessionID:  interview.ID(),
		TargetRole: interview.Log().TargetRole(),
	}

	if opts.Tokens.Enabled() {
		token, expiresAt, err := opts.Tokens.GenerateSessionToken(interview.ID())
		if err != nil {
			opts.Registry.Remove(interview.ID())
			opts.Logger.Error("Failed to generate session token",
				zap.String("sessionID", interview.ID()),
				zap.Error(err))
			return c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "token_generation_failed",
				Message: "Failed to generate session token",
			})
		}
		resp.Token = token
		resp.ExpiresAt = &expiresAt
	}

	return c.JSON(http.StatusOK, resp)
}

// interviewWebSocket checks the session token, when required, before upgrading.
func interviewWebSocket(c echo.Context, opts Options) error {
	sessionID := c.Param("session_id")

	if opts.RequireToken {
		token := c.QueryParam("token")
		if token == "" {
			token = bearerToken(c.Request().Header.Get("Authorization"))
		}

		if token == "" {
			opts.Logger.Warn("WebSocket connection rejected: missing token",
				zap.String("sessionID", sessionID))
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "missing_token",
				Message: "A session token is required",
			})
		}

		if _, err := opts.Tokens.ValidateSessionToken(token, sessionID); err != nil {
			opts.Logger.Warn("WebSocket connection rejected: invalid token",
				zap.String("sessionID", sessionID),
				zap.Error(err))
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "invalid_token",
				Message: "Invalid or expired session token",
			})
		}
	}

	return opts.Hub.HandleWebSocket(c, sessionID)
}

func bearerToken(header string) string {
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
