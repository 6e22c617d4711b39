package apiv1

import (
	"github.com/gofiber/fiber/v2"

	// Delegate to the controllers so web and API share one behavior
	"github.com/ManuelReschke/FreelanceFlow/app/controllers"
)

// APIServer implements the ServerInterface
type APIServer struct{}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{}
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(Pong{Ping: "pong"})
}

func (s *APIServer) PostRegister(c *fiber.Ctx) error {
	return controllers.GetAuthController().HandleRegister(c)
}

func (s *APIServer) PostLogin(c *fiber.Ctx) error {
	return controllers.GetAuthController().HandleLogin(c)
}

func (s *APIServer) PostLogout(c *fiber.Ctx) error {
	return controllers.GetAuthController().HandleLogout(c)
}

func (s *APIServer) PostToken(c *fiber.Ctx) error {
	return controllers.GetAuthController().HandleToken(c)
}

func (s *APIServer) PostSetRole(c *fiber.Ctx) error {
	return controllers.GetAuthController().HandleSetRole(c)
}

func (s *APIServer) GetProfile(c *fiber.Ctx) error {
	return controllers.GetAuthController().HandleGetProfile(c)
}

func (s *APIServer) PutProfile(c *fiber.Ctx) error {
	return controllers.GetAuthController().HandleUpdateProfile(c)
}

func (s *APIServer) PutProfilePassword(c *fiber.Ctx) error {
	return controllers.GetAuthController().HandleChangePassword(c)
}

func (s *APIServer) PostProject(c *fiber.Ctx) error {
	return controllers.GetProjectController().HandleCreate(c)
}

func (s *APIServer) ListProjects(c *fiber.Ctx) error {
	return controllers.GetProjectController().HandleList(c)
}

// The id arguments are already available to the controllers via c.Params.

func (s *APIServer) GetProject(c *fiber.Ctx, id string) error {
	return controllers.GetProjectController().HandleGet(c)
}

func (s *APIServer) PostProjectMember(c *fiber.Ctx, id string) error {
	return controllers.GetProjectController().HandleAddMember(c)
}

func (s *APIServer) ListProjectMembers(c *fiber.Ctx, id string) error {
	return controllers.GetProjectController().HandleMembers(c)
}

func (s *APIServer) PostTimeEntry(c *fiber.Ctx) error {
	return controllers.GetTimeEntryController().HandleCreate(c)
}

func (s *APIServer) ListTimeEntries(c *fiber.Ctx) error {
	return controllers.GetTimeEntryController().HandleList(c)
}

func (s *APIServer) GetTimeEntry(c *fiber.Ctx, id string) error {
	return controllers.GetTimeEntryController().HandleGet(c)
}

func (s *APIServer) PutTimeEntry(c *fiber.Ctx, id string) error {
	return controllers.GetTimeEntryController().HandleUpdate(c)
}

func (s *APIServer) DeleteTimeEntry(c *fiber.Ctx, id string) error {
	return controllers.GetTimeEntryController().HandleDelete(c)
}

func (s *APIServer) PostPayment(c *fiber.Ctx) error {
	return controllers.GetPaymentController().HandleCreate(c)
}

func (s *APIServer) ListPayments(c *fiber.Ctx) error {
	return controllers.GetPaymentController().HandleList(c)
}

func (s *APIServer) GetPayment(c *fiber.Ctx, id string) error {
	return controllers.GetPaymentController().HandleGet(c)
}

func (s *APIServer) PostPaymentReceipt(c *fiber.Ctx, id string) error {
	return controllers.GetPaymentController().HandleUploadReceipt(c)
}

func (s *APIServer) PostPaymentSignedDocument(c *fiber.Ctx, id string) error {
	return controllers.GetPaymentController().HandleUploadSignedDocument(c)
}

func (s *APIServer) PostPaymentStatus(c *fiber.Ctx, id string) error {
	return controllers.GetPaymentController().HandleUpdateStatus(c)
}

func (s *APIServer) PostUpload(c *fiber.Ctx) error {
	return controllers.GetUploadController().HandleUpload(c)
}

func (s *APIServer) GetDashboard(c *fiber.Ctx) error {
	return controllers.GetDashboardController().HandleDashboard(c)
}
