package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/FreelanceFlow/app/controllers"
	"github.com/ManuelReschke/FreelanceFlow/app/repository"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/middleware"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/session"
)

type HttpRouter struct {
	deps Dependencies
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// Apply UserContext middleware globally as first middleware
	users := repository.GetGlobalRepositories().User
	app.Use(middleware.NewUserContextMiddleware(users, h.deps.Tokens))

	controllers.InitializeAuthController(h.deps.Tokens, h.deps.Captcha)
	controllers.InitializeProjectController()
	controllers.InitializeTimeEntryController()
	controllers.InitializePaymentController(h.deps.Publisher, h.deps.Policy)
	controllers.InitializeUploadController(h.deps.Store)
	controllers.InitializeDashboardController()
}

func NewHttpRouter(deps Dependencies) *HttpRouter {
	return &HttpRouter{deps: deps}
}
