// Package auth carries the demo viewer role through the request context.
// There is no credential check: the portal runs in demo mode and trusts the
// role and actor headers sent by the front end.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	UserRolesKey contextKey = "user_roles"
)

const (
	RoleAdmin   = "admin"
	RoleStaff   = "staff"
	RolePatient = "patient"
)

const (
	RoleHeader  = "X-Portal-Role"
	ActorHeader = "X-Portal-Actor"

	// DefaultActor is used when the caller does not identify itself.
	DefaultActor = "demo-user"
)

// ValidRole reports whether role is one of the portal roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleStaff, RolePatient:
		return true
	}
	return false
}

// DemoRoleMiddleware reads the viewer role and actor from request headers.
// Requests without a role are treated as patients.
func DemoRoleMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			role := strings.ToLower(strings.TrimSpace(req.Header.Get(RoleHeader)))
			if role == "" {
				role = RolePatient
			}
			if !ValidRole(role) {
				return echo.NewHTTPError(http.StatusBadRequest, "unknown role: "+role)
			}
			actor := strings.TrimSpace(req.Header.Get(ActorHeader))
			if actor == "" {
				actor = DefaultActor
			}
			c.SetRequest(req.WithContext(WithUser(req.Context(), actor, role)))
			return next(c)
		}
	}
}

// WithUser stores the actor and roles in ctx.
func WithUser(ctx context.Context, userID string, roles ...string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, UserRolesKey, roles)
}

func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}

// ActorFromContext is UserIDFromContext with the demo fallback applied.
func ActorFromContext(ctx context.Context) string {
	if uid := UserIDFromContext(ctx); uid != "" {
		return uid
	}
	return DefaultActor
}

func RolesFromContext(ctx context.Context) []string {
	roles, _ := ctx.Value(UserRolesKey).([]string)
	return roles
}

// HasRole reports whether ctx carries role, or admin.
func HasRole(ctx context.Context, roles ...string) bool {
	for _, has := range RolesFromContext(ctx) {
		if has == RoleAdmin {
			return true
		}
		for _, want := range roles {
			if has == want {
				return true
			}
		}
	}
	return false
}
