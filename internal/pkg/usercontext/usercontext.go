package usercontext

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/FreelanceFlow/app/models"
)

// UserContext represents the authenticated caller of a request
type UserContext struct {
	UserID     string          `json:"user_id"`
	Name       string          `json:"name"`
	Role       models.UserRole `json:"role"`
	IsLoggedIn bool            `json:"is_logged_in"`
	AuthMethod string          `json:"auth_method"`
}

// GetUserContext retrieves the user context from fiber context
// Returns a default anonymous context if none is set
func GetUserContext(c *fiber.Ctx) UserContext {
	if ctx, ok := c.Locals(LocalsKey).(UserContext); ok {
		return ctx
	}
	return UserContext{IsLoggedIn: false}
}

// SetUserContext stores uc on the request together with the flat locals
// read by the auth guards.
func SetUserContext(c *fiber.Ctx, uc UserContext) {
	c.Locals(LocalsKey, uc)
	c.Locals(KeyFromProtected, uc.IsLoggedIn)
	c.Locals(KeyUserID, uc.UserID)
	c.Locals(KeyUserRole, string(uc.Role))
}

// IsLoggedIn checks if the current user is logged in
func IsLoggedIn(c *fiber.Ctx) bool {
	return GetUserContext(c).IsLoggedIn
}

// GetUserID returns the current user's ID, or "" if not logged in
func GetUserID(c *fiber.Ctx) string {
	return GetUserContext(c).UserID
}

// GetRole returns the current user's role, or "" if not logged in
func GetRole(c *fiber.Ctx) models.UserRole {
	return GetUserContext(c).Role
}

// Caller is the identity handed to domain services. An empty UserID means
// the request is not authenticated.
type Caller struct {
	UserID string
	Role   models.UserRole
}

// Authenticated reports whether the caller carries a user id.
func (c Caller) Authenticated() bool {
	return c.UserID != ""
}

// Caller converts the request context into a service caller.
func (uc UserContext) Caller() Caller {
	if !uc.IsLoggedIn {
		return Caller{}
	}
	return Caller{UserID: uc.UserID, Role: uc.Role}
}

// GetCaller returns the service caller for the current request.
func GetCaller(c *fiber.Ctx) Caller {
	return GetUserContext(c).Caller()
}
