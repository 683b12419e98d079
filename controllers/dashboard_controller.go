package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"babyshop/dashboard"
	"babyshop/middleware"
	"babyshop/utils"
)

type DashboardController struct {
	Registry *dashboard.Registry
	Logger   *logrus.Entry
}

func NewDashboardController(reg *dashboard.Registry, logger *logrus.Entry) *DashboardController {
	return &DashboardController{
		Registry: reg,
		Logger:   logger,
	}
}

type ScreenSummary struct {
	Name   string `json:"name"`
	Title  string `json:"title"`
	Loaded bool   `json:"loaded"`
	Total  int    `json:"total"`
}

type DashboardOverview struct {
	User    interface{}     `json:"user"`
	Screens []ScreenSummary `json:"screens"`
}

// GetOverview returns the cards of the dashboard home: one per screen with the
// number of rows matching its current search.
func (dc *DashboardController) GetOverview(c *fiber.Ctx) error {
	d := middleware.CurrentDashboard(c)
	overview := DashboardOverview{
		User:    middleware.CurrentUser(c),
		Screens: make([]ScreenSummary, 0),
	}
	for _, name := range d.Names() {
		m, _ := d.Manager(name)
		st := m.State()
		overview.Screens = append(overview.Screens, ScreenSummary{
			Name:   name,
			Title:  m.Resource().Noun(),
			Loaded: st.Loaded,
			Total:  st.Page.Total,
		})
	}
	return c.JSON(utils.SuccessResponse(overview))
}

// Health reports liveness and how many dashboards are open.
func (dc *DashboardController) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":     "running",
		"version":    "1.0.0",
		"dashboards": dc.Registry.Len(),
	})
}
