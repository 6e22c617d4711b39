package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/events"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/filestore"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/hcaptcha"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/payment"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/security"
)

// Router installs a group of routes on the app
type Router interface {
	InstallRouter(app *fiber.App)
}

// Dependencies are built once in main and shared by the controllers
type Dependencies struct {
	Publisher events.Publisher
	Policy    payment.Policy
	Store     filestore.Store
	Tokens    security.TokenConfig
	Captcha   *hcaptcha.Verifier
}

func InstallRouter(app *fiber.App, deps Dependencies) {
	// The HttpRouter installs the session store and the user context
	// middleware the API routes depend on, so it goes first.
	setup(app, NewHttpRouter(deps), NewApiRouter())
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
