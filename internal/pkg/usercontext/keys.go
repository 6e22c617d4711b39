package usercontext

// Shared Locals/session keys used across controllers and middlewares
const (
	LocalsKey        = "USER_CONTEXT"
	KeyUserID        = "user_id"
	KeyUserName      = "user_name"
	KeyUserRole      = "user_role"
	KeyFromProtected = "from_protected"
)

// Authentication methods recorded on the context.
const (
	AuthSession = "session"
	AuthToken   = "token"
)
