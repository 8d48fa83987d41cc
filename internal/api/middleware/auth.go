package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"greendrake/estates/internal/auth"
	"greendrake/estates/internal/config"
	"greendrake/estates/internal/models"
	"greendrake/estates/internal/policy"
)

// ContextKeyActor holds the authenticated *policy.Actor in the Gin context.
const ContextKeyActor = "actor"

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": msg})
}

// tokenFrom reads a bearer token from the Authorization header, falling back to the auth cookie.
func tokenFrom(c *gin.Context, cookieName string) string {
	if header := c.GetHeader("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookieName == "" {
		return ""
	}
	token, err := c.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return token
}

func actorFrom(c *gin.Context, cfg *config.Config) (*policy.Actor, bool) {
	token := tokenFrom(c, cfg.CookieName)
	if token == "" {
		return nil, false
	}
	claims, err := auth.ValidateJWT(token, cfg.JwtSecret)
	if err != nil {
		return nil, false
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, false
	}
	return &policy.Actor{ID: id, Role: claims.Role}, true
}

// Auth rejects requests without a valid token.
func Auth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c, cfg)
		if !ok {
			abort(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		c.Set(ContextKeyActor, actor)
		c.Next()
	}
}

// OptionalAuth attaches the identity when a valid token is present and lets guests through otherwise.
func OptionalAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if actor, ok := actorFrom(c, cfg); ok {
			c.Set(ContextKeyActor, actor)
		}
		c.Next()
	}
}

// RequireRoles must run after Auth.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := Actor(c)
		if actor == nil {
			abort(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if d := policy.HasRole(actor, roles...); !d.Allowed {
			abort(c, http.StatusForbidden, "Forbidden")
			return
		}
		c.Next()
	}
}

// Actor returns the identity set by Auth or OptionalAuth, or nil for guests.
func Actor(c *gin.Context) *policy.Actor {
	if v, ok := c.Get(ContextKeyActor); ok {
		if actor, ok := v.(*policy.Actor); ok {
			return actor
		}
	}
	return nil
}
