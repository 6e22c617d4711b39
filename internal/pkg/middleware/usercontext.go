package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/FreelanceFlow/app/models"
	"github.com/ManuelReschke/FreelanceFlow/app/repository"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/security"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/session"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/usercontext"
)

// NewUserContextMiddleware resolves the caller from a bearer token or, when
// none is sent, from the session cookie. Anonymous requests pass through
// with an empty context; the auth guards decide what to reject.
func NewUserContextMiddleware(users repository.UserRepository, tokens security.TokenConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if raw := bearerToken(c); raw != "" {
			return tokenContext(c, raw, users, tokens)
		}

		usercontext.SetUserContext(c, sessionContext(c))
		return c.Next()
	}
}

func tokenContext(c *fiber.Ctx, raw string, users repository.UserRepository, tokens security.TokenConfig) error {
	claims, err := security.VerifyAccessToken(raw, tokens)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid access token"})
	}

	user, err := users.GetByID(c.UserContext(), claims.Subject)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid access token"})
		}
		log.Errorf("[Auth] token user lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Token verification failed"})
	}

	usercontext.SetUserContext(c, usercontext.UserContext{
		UserID:     user.ID,
		Name:       user.Name,
		Role:       user.Role,
		IsLoggedIn: true,
		AuthMethod: usercontext.AuthToken,
	})
	return c.Next()
}

func sessionContext(c *fiber.Ctx) usercontext.UserContext {
	store := session.GetSessionStore()
	if store == nil {
		return usercontext.UserContext{}
	}
	sess, err := store.Get(c)
	if err != nil {
		return usercontext.UserContext{}
	}

	userID, _ := sess.Get(usercontext.KeyUserID).(string)
	if userID == "" {
		return usercontext.UserContext{}
	}
	name, _ := sess.Get(usercontext.KeyUserName).(string)
	role, _ := sess.Get(usercontext.KeyUserRole).(string)

	return usercontext.UserContext{
		UserID:     userID,
		Name:       name,
		Role:       models.UserRole(role),
		IsLoggedIn: true,
		AuthMethod: usercontext.AuthSession,
	}
}

func bearerToken(c *fiber.Ctx) string {
	auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
