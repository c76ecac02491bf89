// handlers/stats.go
package handlers

import (
	"chalk-table-service/services"

	"github.com/gofiber/fiber/v2"
)

// StatsHandler exposes leaderboards and game history.
type StatsHandler struct {
	Stats *services.StatsService
}

func SetupStatsRoutes(app *fiber.App, stats *services.StatsService) {
	h := &StatsHandler{Stats: stats}

	app.Get("/tables/:id/stats/leaderboard", h.Session)
	app.Get("/tables/:id/stats/window", h.Window)
	app.Get("/tables/:id/history", h.RecentGames)
}

func (h *StatsHandler) Session(c *fiber.Ctx) error {
	out, err := h.Stats.SessionLeaderboard(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *StatsHandler) Window(c *fiber.Ctx) error {
	out, err := h.Stats.WindowLeaderboard(c.Params("id"), c.Query("period", "day"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *StatsHandler) RecentGames(c *fiber.Ctx) error {
	records, err := h.Stats.RecentGames(c.Params("id"), c.QueryInt("limit"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"games": records})
}
