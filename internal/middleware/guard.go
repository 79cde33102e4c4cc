package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/chanhnguyen91/go-auth-boilerplate/internal/model"
	"github.com/chanhnguyen91/go-auth-boilerplate/pkg/apperr"
	"github.com/chanhnguyen91/go-auth-boilerplate/pkg/response"
)

// Requirement is the per-route admission configuration. Public routes skip
// every check; a requirement with no name or no flags set admits everyone.
type Requirement struct {
	Public    bool
	Name      string
	CanRead   bool
	CanWrite  bool
	CanDelete bool
}

// Empty reports whether the requirement gates nothing.
func (r Requirement) Empty() bool {
	return r.Name == "" || (!r.CanRead && !r.CanWrite && !r.CanDelete)
}

// LinkLoader loads the current grant links for a set of roles. The guard
// always reads live state; the token's permission snapshot is not consulted.
type LinkLoader interface {
	LinksForRoles(ctx context.Context, roleIDs []uint) ([]model.RolePermission, error)
}

// Admit decides allow/deny for one request. Outcomes: nil (allow),
// Unauthorized (no usable identity) or AccessDenied (insufficient grants).
func Admit(ctx context.Context, identity *Identity, req Requirement, links LinkLoader) error {
	if req.Public {
		return nil
	}
	if req.Empty() {
		return nil
	}

	if identity == nil || identity.User == nil || len(identity.User.Roles) == 0 {
		return apperr.Unauthorized("errors.unauthorized")
	}

	roleIDs := make([]uint, 0, len(identity.User.Roles))
	for _, role := range identity.User.Roles {
		roleIDs = append(roleIDs, role.ID)
	}

	grants, err := links.LinksForRoles(ctx, roleIDs)
	if err != nil {
		return err
	}

	for _, link := range grants {
		if matches(link, req) {
			return nil
		}
	}
	return apperr.AccessDenied("errors.forbidden")
}

// matches is a conjunctive test: every flag the requirement asks for must be
// granted by the link, and the permission names must agree.
func matches(link model.RolePermission, req Requirement) bool {
	if link.Permission.Name != req.Name {
		return false
	}
	if req.CanRead && !link.CanRead {
		return false
	}
	if req.CanWrite && !link.CanWrite {
		return false
	}
	if req.CanDelete && !link.CanDelete {
		return false
	}
	return true
}

// Require wraps Admit as gin middleware around a declared route requirement.
func Require(links LinkLoader, req Requirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := Admit(c.Request.Context(), IdentityFrom(c), req, links); err != nil {
			response.AbortWithError(c, err)
			return
		}
		c.Next()
	}
}
