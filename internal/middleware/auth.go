package middleware

import (
	"context"
	"net/http"
	"strings"

	"marketlive/internal/config"
	"marketlive/internal/identity"
	"marketlive/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const IdentityKey = "identity"

// RoleResolver returns the locally stored role for a subject, or "" if none.
type RoleResolver interface {
	ResolveRole(ctx context.Context, subject string) (string, error)
}

// AuthMiddleware rejects requests without a valid bearer token.
func AuthMiddleware(cfg *config.JWTConfig, roles RoleResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Authorization header required")
			c.Abort()
			return
		}

		id, err := authenticate(c, cfg, roles, token)
		if err != nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(IdentityKey, id)
		c.Next()
	}
}

// OptionalAuthMiddleware attaches an identity when a valid token is present and
// lets anonymous requests through otherwise.
func OptionalAuthMiddleware(cfg *config.JWTConfig, roles RoleResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if id, err := authenticate(c, cfg, roles, token); err == nil {
				c.Set(IdentityKey, id)
			} else {
				RequestLogger(c).Debug("Ignoring invalid optional token",
					zap.Error(err),
				)
			}
		}
		c.Next()
	}
}

// GetIdentity returns the caller attached by the auth middleware, or nil.
func GetIdentity(c *gin.Context) *identity.Identity {
	if v, exists := c.Get(IdentityKey); exists {
		if id, ok := v.(*identity.Identity); ok {
			return id
		}
	}
	return nil
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		// browsers cannot set headers on a websocket handshake
		if c.IsWebsocket() && c.Query("token") != "" {
			return c.Query("token"), true
		}
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func authenticate(c *gin.Context, cfg *config.JWTConfig, roles RoleResolver, token string) (*identity.Identity, error) {
	claims, err := utils.ValidateToken(token, cfg.Secret, cfg.Issuer)
	if err != nil {
		return nil, err
	}

	id := &identity.Identity{
		Subject: claims.Subject,
		UserID:  claims.Subject,
		OrgID:   claims.OrgID,
		Role:    identity.NormalizeRole(claims.Role),
		Email:   claims.Email,
		Name:    claims.Name,
	}

	// the mirrored users row wins over the token claim
	if roles != nil {
		role, err := roles.ResolveRole(c.Request.Context(), id.Subject)
		if err != nil {
			RequestLogger(c).Warn("Role lookup failed, using token role",
				zap.String("subject", id.Subject),
				zap.Error(err),
			)
		} else if role != "" {
			id.Role = identity.NormalizeRole(role)
		}
	}

	if id.Role == "" {
		id.Role = identity.RoleClient
	}
	return id, nil
}
