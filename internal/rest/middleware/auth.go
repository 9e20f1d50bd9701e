package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/poolstack/poolstack/internal/config"
	"github.com/poolstack/poolstack/internal/logger"
	"github.com/poolstack/poolstack/internal/types"
)

// GuestAuthenticateMiddleware allows requests without authentication by
// scoping them to the default organization. Only wired in local mode.
func GuestAuthenticateMiddleware(c *gin.Context) {
	ctx := c.Request.Context()
	ctx = context.WithValue(ctx, types.CtxOrganizationID, types.DefaultOrganizationID)
	ctx = context.WithValue(ctx, types.CtxUserID, types.DefaultUserID)
	c.Request = c.Request.WithContext(ctx)
	c.Next()
}

// AuthenticateMiddleware authenticates requests via the configured API
// key header and injects the organization and user scope into the
// request context for downstream handlers.
func AuthenticateMiddleware(cfg *config.Configuration, logger *logger.Logger) gin.HandlerFunc {
	header := cfg.Auth.APIKeyHeader
	if header == "" {
		header = types.HeaderAPIKey
	}

	return func(c *gin.Context) {
		apiKey := c.GetHeader(header)
		if apiKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		keyCfg, ok := cfg.Auth.APIKeys[apiKey]
		if !ok || keyCfg.OrganizationID == "" {
			logger.Debugw("invalid api key")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		ctx = context.WithValue(ctx, types.CtxOrganizationID, keyCfg.OrganizationID)
		ctx = context.WithValue(ctx, types.CtxUserID, keyCfg.UserID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
