package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/FreelanceFlow/app/repository"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/projects"
)

// ProjectController handles project and membership requests
type ProjectController struct {
	projects *projects.Service
}

func NewProjectController(svc *projects.Service) *ProjectController {
	return &ProjectController{projects: svc}
}

// HandleCreate handles POST /projects
func (pc *ProjectController) HandleCreate(c *fiber.Ctx) error {
	var in projects.CreateInput
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	p, err := pc.projects.Create(c.UserContext(), callerOf(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

// HandleList handles GET /projects
func (pc *ProjectController) HandleList(c *fiber.Ctx) error {
	list, err := pc.projects.List(c.UserContext(), callerOf(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"projects": list})
}

// HandleGet handles GET /projects/:id
func (pc *ProjectController) HandleGet(c *fiber.Ctx) error {
	p, err := pc.projects.Get(c.UserContext(), callerOf(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(p)
}

// HandleAddMember handles POST /projects/:id/members
func (pc *ProjectController) HandleAddMember(c *fiber.Ctx) error {
	var in projects.AddMemberInput
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	members, err := pc.projects.AddMember(c.UserContext(), callerOf(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"members": members})
}

// HandleMembers handles GET /projects/:id/members
func (pc *ProjectController) HandleMembers(c *fiber.Ctx) error {
	members, err := pc.projects.Members(c.UserContext(), callerOf(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"members": members})
}

var projectController *ProjectController

// InitializeProjectController wires the global project controller
func InitializeProjectController() {
	projectController = NewProjectController(projects.NewService(repository.GetGlobalRepositories()))
}

func GetProjectController() *ProjectController {
	if projectController == nil {
		InitializeProjectController()
	}
	return projectController
}
