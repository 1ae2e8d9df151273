package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/syncwatch-server/internal/auth"
)

const (
	// ContextKeyAdmin is the context key for storing the admin account name.
	ContextKeyAdmin = "admin"
)

// TokenValidator checks admin bearer tokens.
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// AdminSessions reports whether an admin account is still logged in.
type AdminSessions interface {
	AdminActive(ctx context.Context, account string) (bool, error)
}

// AdminAuthMiddleware creates a middleware that validates admin JWT tokens.
// A valid token is refused once its account has no live admin session.
func AdminAuthMiddleware(tokens TokenValidator, sessions AdminSessions, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Debug().Msg("missing authorization header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "missing authorization header"})
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			logger.Debug().Msg("invalid authorization header format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid authorization header format"})
			return
		}

		claims, err := tokens.ValidateToken(parts[1])
		if err != nil {
			logger.Debug().Err(err).Msg("invalid token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid token"})
			return
		}

		active, err := sessions.AdminActive(c.Request.Context(), claims.Username)
		if err != nil {
			logger.Warn().Err(err).Msg("admin session lookup failed")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorResponse{Error: "hub unavailable"})
			return
		}
		if !active {
			logger.Debug().Str("account", claims.Username).Msg("admin session ended")
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "admin session ended"})
			return
		}

		c.Set(ContextKeyAdmin, claims.Username)
		c.Next()
	}
}

// LoggerMiddleware creates a middleware that logs HTTP requests.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("http request")
	}
}
