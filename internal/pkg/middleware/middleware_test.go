package middleware

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	fsession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ManuelReschke/FreelanceFlow/app/models"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/security"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/session"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/usercontext"
)

type fakeUsers struct {
	users map[string]*models.User
}

func (f *fakeUsers) Create(ctx context.Context, user *models.User) error { return nil }

func (f *fakeUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsers) Update(ctx context.Context, user *models.User) error { return nil }

func newTestApp(t *testing.T, tokens security.TokenConfig) *fiber.App {
	t.Helper()
	session.SetStore(fsession.New())
	t.Cleanup(func() { session.SetStore(nil) })

	users := &fakeUsers{users: map[string]*models.User{
		"payer-1": {ID: "payer-1", Name: "Paula", Role: models.ROLE_PAYER},
	}}

	app := fiber.New()
	app.Use(NewUserContextMiddleware(users, tokens))
	app.Post("/login", func(c *fiber.Ctx) error {
		return session.SetSessionValues(c, map[string]string{
			usercontext.KeyUserID:   "free-1",
			usercontext.KeyUserName: "Fred",
			usercontext.KeyUserRole: string(models.ROLE_FREELANCER),
		})
	})
	app.Get("/me", RequireAPISessionAuth, func(c *fiber.Ctx) error {
		uc := usercontext.GetUserContext(c)
		return c.SendString(uc.UserID + "|" + string(uc.Role) + "|" + uc.AuthMethod)
	})
	app.Get("/payer-only", RequireAPISessionAuth, RequireRole(models.ROLE_PAYER), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func body(t *testing.T, app *fiber.App, req *fiberRequest) (int, string) {
	t.Helper()
	r := httptest.NewRequest(req.method, req.path, nil)
	for k, v := range req.headers {
		r.Header.Set(k, v)
	}
	resp, err := app.Test(r, -1)
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(b)
}

type fiberRequest struct {
	method  string
	path    string
	headers map[string]string
}

func TestAnonymousRequestIsRejected(t *testing.T) {
	app := newTestApp(t, security.TokenConfig{Secret: "s", TTL: time.Hour})

	status, _ := body(t, app, &fiberRequest{method: "GET", path: "/me"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestBearerTokenResolvesUser(t *testing.T) {
	cfg := security.TokenConfig{Secret: "s", TTL: time.Hour}
	app := newTestApp(t, cfg)
	token, _, err := security.GenerateAccessToken(&models.User{ID: "payer-1", Role: models.ROLE_PAYER}, cfg, time.Now())
	require.NoError(t, err)

	status, out := body(t, app, &fiberRequest{method: "GET", path: "/me", headers: map[string]string{"Authorization": "Bearer " + token}})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "payer-1|PAYER|token", out)

	status, _ = body(t, app, &fiberRequest{method: "GET", path: "/payer-only", headers: map[string]string{"Authorization": "Bearer " + token}})
	assert.Equal(t, fiber.StatusNoContent, status)
}

func TestInvalidBearerTokenIsRejected(t *testing.T) {
	cfg := security.TokenConfig{Secret: "s", TTL: time.Hour}
	app := newTestApp(t, cfg)

	status, _ := body(t, app, &fiberRequest{method: "GET", path: "/me", headers: map[string]string{"Authorization": "Bearer nope"}})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	unknown, _, err := security.GenerateAccessToken(&models.User{ID: "ghost", Role: models.ROLE_PAYER}, cfg, time.Now())
	require.NoError(t, err)
	status, _ = body(t, app, &fiberRequest{method: "GET", path: "/me", headers: map[string]string{"Authorization": "Bearer " + unknown}})
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestSessionCookieResolvesUser(t *testing.T) {
	app := newTestApp(t, security.TokenConfig{Secret: "s", TTL: time.Hour})

	resp, err := app.Test(httptest.NewRequest("POST", "/login", nil), -1)
	require.NoError(t, err)
	var cookie string
	for _, ck := range resp.Cookies() {
		if ck.Name == "session_id" {
			cookie = ck.Name + "=" + ck.Value
		}
	}
	require.NotEmpty(t, cookie)

	status, out := body(t, app, &fiberRequest{method: "GET", path: "/me", headers: map[string]string{"Cookie": cookie}})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "free-1|FREELANCER|session", out)

	status, _ = body(t, app, &fiberRequest{method: "GET", path: "/payer-only", headers: map[string]string{"Cookie": cookie}})
	assert.Equal(t, fiber.StatusForbidden, status)
}
