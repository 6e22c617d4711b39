package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/FreelanceFlow/app/models"
	"github.com/ManuelReschke/FreelanceFlow/app/repository"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/account"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/apperror"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/hcaptcha"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/security"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/session"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/usercontext"
)

// AuthController handles registration, login and profile requests
type AuthController struct {
	accounts *account.Service
	tokens   security.TokenConfig
	// captcha is nil when registration captchas are off
	captcha *hcaptcha.Verifier
}

type registerRequest struct {
	account.RegisterInput
	CaptchaToken string `json:"captcha_token"`
}

func NewAuthController(accounts *account.Service, tokens security.TokenConfig, captcha *hcaptcha.Verifier) *AuthController {
	return &AuthController{accounts: accounts, tokens: tokens, captcha: captcha}
}

// HandleRegister handles POST /auth/register
func (ac *AuthController) HandleRegister(c *fiber.Ctx) error {
	var in registerRequest
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	if ac.captcha != nil {
		if err := ac.captcha.Verify(c.UserContext(), in.CaptchaToken, c.IP()); err != nil {
			if errors.Is(err, hcaptcha.ErrRejected) {
				return respondError(c, apperror.Validation(apperror.FieldError{Field: "captcha_token", Message: "Captcha verification failed"}))
			}
			return respondError(c, apperror.Internal("Captcha verification unavailable", err))
		}
	}
	user, err := ac.accounts.Register(c.UserContext(), in.RegisterInput)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// HandleLogin handles POST /auth/login and starts a session
func (ac *AuthController) HandleLogin(c *fiber.Ctx) error {
	var in account.LoginInput
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	user, err := ac.accounts.Authenticate(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	if err := storeSession(c, user); err != nil {
		return respondError(c, apperror.Internal("Failed to start session", err))
	}
	log.Infof("[Auth] %s logged in from %s", user.ID, c.IP())
	return c.JSON(user)
}

// HandleLogout handles POST /auth/logout
func (ac *AuthController) HandleLogout(c *fiber.Ctx) error {
	if err := session.Destroy(c); err != nil {
		return respondError(c, apperror.Internal("Failed to end session", err))
	}
	c.Locals(usercontext.KeyFromProtected, false)
	return c.JSON(fiber.Map{"message": "logged out"})
}

// HandleToken handles POST /auth/token and issues a bearer token
func (ac *AuthController) HandleToken(c *fiber.Ctx) error {
	var in account.LoginInput
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	user, err := ac.accounts.Authenticate(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	token, expires, err := security.GenerateAccessToken(user, ac.tokens, time.Now())
	if err != nil {
		if errors.Is(err, security.ErrMissingSecret) {
			return respondError(c, apperror.Internal("Token authentication is not configured", err))
		}
		return respondError(c, apperror.Internal("Failed to issue token", err))
	}
	return c.JSON(fiber.Map{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_at":   expires.UTC().Format(time.RFC3339),
	})
}

// HandleSetRole handles POST /auth/set-role
func (ac *AuthController) HandleSetRole(c *fiber.Ctx) error {
	var in account.RoleInput
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	user, err := ac.accounts.SetRole(c.UserContext(), callerOf(c), in)
	if err != nil {
		return respondError(c, err)
	}
	if usercontext.GetUserContext(c).AuthMethod == usercontext.AuthSession {
		if err := storeSession(c, user); err != nil {
			return respondError(c, apperror.Internal("Failed to update session", err))
		}
	}
	return c.JSON(user)
}

// HandleGetProfile handles GET /profile
func (ac *AuthController) HandleGetProfile(c *fiber.Ctx) error {
	user, err := ac.accounts.Profile(c.UserContext(), callerOf(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// HandleUpdateProfile handles PUT /profile
func (ac *AuthController) HandleUpdateProfile(c *fiber.Ctx) error {
	var in account.ProfileInput
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	user, err := ac.accounts.UpdateProfile(c.UserContext(), callerOf(c), in)
	if err != nil {
		return respondError(c, err)
	}
	if usercontext.GetUserContext(c).AuthMethod == usercontext.AuthSession {
		if err := storeSession(c, user); err != nil {
			return respondError(c, apperror.Internal("Failed to update session", err))
		}
	}
	return c.JSON(user)
}

// HandleChangePassword handles PUT /profile/password
func (ac *AuthController) HandleChangePassword(c *fiber.Ctx) error {
	var in account.PasswordInput
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	if err := ac.accounts.ChangePassword(c.UserContext(), callerOf(c), in); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "password updated"})
}

func storeSession(c *fiber.Ctx, user *models.User) error {
	return session.SetSessionValues(c, map[string]string{
		usercontext.KeyUserID:   user.ID,
		usercontext.KeyUserName: user.Name,
		usercontext.KeyUserRole: string(user.Role),
	})
}

var authController *AuthController

// InitializeAuthController wires the global auth controller
func InitializeAuthController(tokens security.TokenConfig, captcha *hcaptcha.Verifier) {
	authController = NewAuthController(account.NewService(repository.GetGlobalRepositories()), tokens, captcha)
}

func GetAuthController() *AuthController {
	if authController == nil {
		InitializeAuthController(security.LoadTokenConfig(), hcaptcha.LoadVerifier())
	}
	return authController
}
