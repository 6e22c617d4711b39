package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/FreelanceFlow/app/repository"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/statistics"
)

type DashboardController struct {
	stats *statistics.Service
}

func NewDashboardController(stats *statistics.Service) *DashboardController {
	return &DashboardController{stats: stats}
}

// HandleDashboard handles GET /dashboard
func (dc *DashboardController) HandleDashboard(c *fiber.Ctx) error {
	dash, err := dc.stats.Dashboard(c.UserContext(), callerOf(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dash)
}

var dashboardController *DashboardController

func InitializeDashboardController() {
	dashboardController = NewDashboardController(statistics.NewService(repository.GetGlobalRepositories()))
}

func GetDashboardController() *DashboardController {
	if dashboardController == nil {
		InitializeDashboardController()
	}
	return dashboardController
}
