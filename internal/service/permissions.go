package service

import (
	"github.com/chanhnguyen91/go-auth-boilerplate/internal/model"
)

// ResolvePermissions flattens a loaded user's roles into the deduplicated set
// of permission names for which the user holds any of read/write/delete. The
// caller must have eager-loaded roles, their permission links and the linked
// permissions; links with all three flags false contribute nothing. Output
// order is not significant.
func ResolvePermissions(user *model.User) []string {
	seen := make(map[string]struct{})
	names := make([]string, 0, len(user.Roles))

	for _, role := range user.Roles {
		for _, link := range role.RolePermissions {
			if !link.Granted() {
				continue
			}
			name := link.Permission.Name
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}

	return names
}
