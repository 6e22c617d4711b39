package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/middleware"
)

// Pong is the body of GET /ping
type Pong struct {
	Ping string `json:"ping"`
}

// ServerInterface lists every /api/v1 operation
type ServerInterface interface {
	GetPing(c *fiber.Ctx) error

	PostRegister(c *fiber.Ctx) error
	PostLogin(c *fiber.Ctx) error
	PostLogout(c *fiber.Ctx) error
	PostToken(c *fiber.Ctx) error
	PostSetRole(c *fiber.Ctx) error

	GetProfile(c *fiber.Ctx) error
	PutProfile(c *fiber.Ctx) error
	PutProfilePassword(c *fiber.Ctx) error

	PostProject(c *fiber.Ctx) error
	ListProjects(c *fiber.Ctx) error
	GetProject(c *fiber.Ctx, id string) error
	PostProjectMember(c *fiber.Ctx, id string) error
	ListProjectMembers(c *fiber.Ctx, id string) error

	PostTimeEntry(c *fiber.Ctx) error
	ListTimeEntries(c *fiber.Ctx) error
	GetTimeEntry(c *fiber.Ctx, id string) error
	PutTimeEntry(c *fiber.Ctx, id string) error
	DeleteTimeEntry(c *fiber.Ctx, id string) error

	PostPayment(c *fiber.Ctx) error
	ListPayments(c *fiber.Ctx) error
	GetPayment(c *fiber.Ctx, id string) error
	PostPaymentReceipt(c *fiber.Ctx, id string) error
	PostPaymentSignedDocument(c *fiber.Ctx, id string) error
	PostPaymentStatus(c *fiber.Ctx, id string) error

	PostUpload(c *fiber.Ctx) error
	GetDashboard(c *fiber.Ctx) error
}

type withID func(c *fiber.Ctx, id string) error

func param(h withID) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return h(c, c.Params("id"))
	}
}

// RegisterHandlers mounts si on router. Everything except ping,
// registration and login requires an authenticated caller.
func RegisterHandlers(router fiber.Router, si ServerInterface) {
	router.Get("/ping", si.GetPing)

	auth := router.Group("/auth")
	auth.Post("/register", si.PostRegister)
	auth.Post("/login", si.PostLogin)
	auth.Post("/token", si.PostToken)
	auth.Post("/logout", si.PostLogout)
	auth.Post("/set-role", middleware.RequireAPISessionAuth, si.PostSetRole)

	protected := router.Group("", middleware.RequireAPISessionAuth)

	protected.Get("/profile", si.GetProfile)
	protected.Put("/profile", si.PutProfile)
	protected.Put("/profile/password", si.PutProfilePassword)

	protected.Post("/projects", si.PostProject)
	protected.Get("/projects", si.ListProjects)
	protected.Get("/projects/:id", param(si.GetProject))
	protected.Post("/projects/:id/members", param(si.PostProjectMember))
	protected.Get("/projects/:id/members", param(si.ListProjectMembers))

	protected.Post("/time-entries", si.PostTimeEntry)
	protected.Get("/time-entries", si.ListTimeEntries)
	protected.Get("/time-entries/:id", param(si.GetTimeEntry))
	protected.Put("/time-entries/:id", param(si.PutTimeEntry))
	protected.Delete("/time-entries/:id", param(si.DeleteTimeEntry))

	protected.Post("/payments", si.PostPayment)
	protected.Get("/payments", si.ListPayments)
	protected.Get("/payments/:id", param(si.GetPayment))
	protected.Post("/payments/:id/receipt", param(si.PostPaymentReceipt))
	protected.Post("/payments/:id/signed-document", param(si.PostPaymentSignedDocument))
	protected.Post("/payments/:id/status", param(si.PostPaymentStatus))

	protected.Post("/upload", si.PostUpload)
	protected.Get("/dashboard", si.GetDashboard)
}
