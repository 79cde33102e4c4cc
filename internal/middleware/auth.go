package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chanhnguyen91/go-auth-boilerplate/internal/config"
	"github.com/chanhnguyen91/go-auth-boilerplate/internal/model"
	"github.com/chanhnguyen91/go-auth-boilerplate/internal/repository"
	"github.com/chanhnguyen91/go-auth-boilerplate/internal/service"
	"github.com/chanhnguyen91/go-auth-boilerplate/pkg/apperr"
	"github.com/chanhnguyen91/go-auth-boilerplate/pkg/response"
)

const identityKey = "identity"

// Identity is the authenticated request subject. The user is loaded fresh
// from the store on every request with roles and grant links attached; the
// claims carry the permission snapshot from issuance time.
type Identity struct {
	User   *model.User
	Claims *service.Claims
}

// IdentityFrom returns the identity attached by Authenticate, or nil on
// unauthenticated requests.
func IdentityFrom(c *gin.Context) *Identity {
	if v, ok := c.Get(identityKey); ok {
		if identity, ok := v.(*Identity); ok {
			return identity
		}
	}
	return nil
}

// Authenticate validates the bearer access token and loads the subject with
// its roles and permission links. Requests without a valid token are rejected
// with 401.
func Authenticate(users repository.UserRepository, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := extractBearer(c)
		if err != nil {
			response.AbortWithError(c, err)
			return
		}

		claims, err := service.VerifyToken(tokenString, cfg.JWTSecret)
		if err != nil {
			response.AbortWithError(c, apperr.Unauthorized("errors.unauthorized").WithCause(err))
			return
		}

		user, err := users.FindByID(c.Request.Context(), claims.Sub, repository.PermissionRelations...)
		if err != nil {
			response.AbortWithError(c, apperr.Unauthorized("errors.unauthorized").WithCause(err))
			return
		}

		c.Set(identityKey, &Identity{User: user, Claims: claims})
		c.Next()
	}
}

func extractBearer(c *gin.Context) (string, error) {
	// An explicit Authorization header wins over the cookie, so a stale
	// access_token cookie never shadows a fresh bearer token.
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", apperr.Unauthorized("errors.unauthorized", apperr.Detail{
				Message: "Invalid authorization format. Expected 'Bearer <token>'",
			})
		}
		return parts[1], nil
	}

	if token, err := c.Cookie("access_token"); err == nil && token != "" {
		return token, nil
	}

	return "", apperr.Unauthorized("errors.unauthorized", apperr.Detail{
		Message: "Authorization is missing",
	})
}
