package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/estatecrm/backend/internal/domain/identity"
	"github.com/estatecrm/backend/internal/domain/registry"
	"github.com/estatecrm/backend/internal/infrastructure/logger"
	"github.com/estatecrm/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// Validator checks a bearer token against the active session set and returns
// the authenticated user.
type Validator interface {
	Validate(ctx context.Context, token string) (*identity.User, error)
}

const principalKey = "principal"

// skipPaths are reachable without a session.
var skipPaths = map[string]struct{}{
	"/api/auth/login":    {},
	"/api/auth/register": {},
	"/health":            {},
}

// publicReadOps are the entity operations open to anonymous callers when the
// entity itself is marked public.
var publicReadOps = map[string]struct{}{
	"list":    {},
	"listAll": {},
	"read":    {},
}

// SessionGuardConfig controls bypass behaviour of the guard.
type SessionGuardConfig struct {
	// InsecureLocal skips authentication entirely. Config validation only
	// permits it in the development environment.
	InsecureLocal bool
	// Registry resolves entity keys for the public read-path exemption.
	Registry *registry.Registry
}

// SessionGuard authenticates requests via the Authorization bearer token.
// Every rejection is a 401 whose envelope carries jwtExpired so clients
// know to re-authenticate.
func SessionGuard(validator Validator, cfg SessionGuardConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.InsecureLocal {
			c.Next()
			return
		}
		if isPublicPath(c, cfg.Registry) {
			c.Next()
			return
		}

		token, ok := extractBearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewAuthErrorResponse("No authentication token, authorization denied"))
			return
		}

		user, err := validator.Validate(c.Request.Context(), token)
		if err != nil {
			status, resp := dto.FromError(err, false)
			if status != http.StatusUnauthorized {
				status, resp = http.StatusUnauthorized,
					dto.NewAuthErrorResponse("Token verification failed, authorization denied")
			}
			c.AbortWithStatusJSON(status, resp)
			return
		}

		c.Set(principalKey, user)
		reqCtx := c.Request.Context()
		ctx, _ := logger.WithUserID(reqCtx, logger.FromContext(reqCtx), user.ID.String())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetPrincipal returns the authenticated user, or nil when the request was
// admitted without a session.
func GetPrincipal(c *gin.Context) *identity.User {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	user, _ := v.(*identity.User)
	return user
}

func isPublicPath(c *gin.Context, reg *registry.Registry) bool {
	path := c.Request.URL.Path
	if _, ok := skipPaths[path]; ok {
		return true
	}

	// Read-only operations on public entities, e.g. /api/property/list.
	if reg == nil || c.Request.Method != http.MethodGet {
		return false
	}
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 3 || parts[0] != "api" {
		return false
	}
	desc, err := reg.Resolve(parts[1])
	if err != nil || !desc.Public {
		return false
	}
	_, ok := publicReadOps[parts[2]]
	return ok
}

func extractBearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
