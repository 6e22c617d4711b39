package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/FreelanceFlow/app/repository"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/timetracking"
)

// TimeEntryController handles time tracking requests
type TimeEntryController struct {
	entries *timetracking.Service
}

func NewTimeEntryController(svc *timetracking.Service) *TimeEntryController {
	return &TimeEntryController{entries: svc}
}

// HandleCreate handles POST /time-entries
func (tc *TimeEntryController) HandleCreate(c *fiber.Ctx) error {
	var in timetracking.EntryInput
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	entry, err := tc.entries.Create(c.UserContext(), callerOf(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

// HandleList handles GET /time-entries?project_id=&user_id=&unpaid=&completed=
func (tc *TimeEntryController) HandleList(c *fiber.Ctx) error {
	list, err := tc.entries.List(c.UserContext(), callerOf(c), timetracking.ListFilter{
		ProjectID: c.Query("project_id"),
		UserID:    c.Query("user_id"),
		Unpaid:    queryBool(c, "unpaid"),
		Completed: queryBool(c, "completed"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"time_entries": list})
}

// HandleGet handles GET /time-entries/:id
func (tc *TimeEntryController) HandleGet(c *fiber.Ctx) error {
	entry, err := tc.entries.Get(c.UserContext(), callerOf(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entry)
}

// HandleUpdate handles PUT /time-entries/:id
func (tc *TimeEntryController) HandleUpdate(c *fiber.Ctx) error {
	var in timetracking.UpdateInput
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	entry, err := tc.entries.Update(c.UserContext(), callerOf(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entry)
}

// HandleDelete handles DELETE /time-entries/:id
func (tc *TimeEntryController) HandleDelete(c *fiber.Ctx) error {
	if err := tc.entries.Delete(c.UserContext(), callerOf(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

var timeEntryController *TimeEntryController

// InitializeTimeEntryController wires the global time entry controller
func InitializeTimeEntryController() {
	timeEntryController = NewTimeEntryController(timetracking.NewService(repository.GetGlobalRepositories()))
}

func GetTimeEntryController() *TimeEntryController {
	if timeEntryController == nil {
		InitializeTimeEntryController()
	}
	return timeEntryController
}
