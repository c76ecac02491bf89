// handlers/tournament.go
package handlers

import (
	"chalk-table-service/models"
	"chalk-table-service/services"

	"github.com/gofiber/fiber/v2"
)

// TournamentHandler exposes the tournament engine.
type TournamentHandler struct {
	Tournaments *services.TournamentService
}

func SetupTournamentRoutes(app *fiber.App, tournaments *services.TournamentService) {
	h := &TournamentHandler{Tournaments: tournaments}

	app.Post("/tables/:id/tournament/start", h.Start)
	app.Post("/tables/:id/tournament/frame", h.ReportFrame)
	app.Post("/tables/:id/tournament/select", h.SelectMatch)
	app.Post("/tables/:id/tournament/finish", h.Finish)
	app.Get("/tables/:id/tournament/standings", h.Standings)
}

func (h *TournamentHandler) Start(c *fiber.Ctx) error {
	type Req struct {
		versioned
		Names  []string                `json:"names"`
		Format models.TournamentFormat `json:"format"`
		RaceTo int                     `json:"race_to"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	snap, err := h.Tournaments.StartTournament(c.Params("id"), req.expected(), req.Names, req.Format, req.RaceTo)
	return respondSnapshot(c, snap, err)
}

func (h *TournamentHandler) ReportFrame(c *fiber.Ctx) error {
	type Req struct {
		versioned
		Winner string `json:"winner"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	snap, err := h.Tournaments.ReportTournamentFrame(c.Params("id"), req.expected(), req.Winner)
	return respondSnapshot(c, snap, err)
}

func (h *TournamentHandler) SelectMatch(c *fiber.Ctx) error {
	type Req struct {
		versioned
		MatchID string `json:"match_id"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	snap, err := h.Tournaments.SelectTournamentMatch(c.Params("id"), req.expected(), req.MatchID)
	return respondSnapshot(c, snap, err)
}

func (h *TournamentHandler) Finish(c *fiber.Ctx) error {
	type Req struct {
		versioned
		Winner string `json:"winner"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	snap, err := h.Tournaments.FinishTournament(c.Params("id"), req.expected(), req.Winner)
	return respondSnapshot(c, snap, err)
}

// Standings returns the live round-robin or group tables. For knockout-only
// tournaments there is nothing to rank and the list is empty.
func (h *TournamentHandler) Standings(c *fiber.Ctx) error {
	snap, err := h.Tournaments.Store.Get(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	g := snap.Table.CurrentGame
	if g == nil || g.Tournament == nil {
		return c.Status(400).JSON(fiber.Map{"error": "no tournament in progress"})
	}
	ts := g.Tournament

	switch ts.Format {
	case models.FormatRoundRobin:
		return c.JSON(fiber.Map{
			"standings": services.Standings(ts.Matches, ts.PlayerNames),
		})
	case models.FormatGroupKnockout:
		type groupTable struct {
			Group     int                         `json:"group"`
			Standings []models.TournamentStanding `json:"standings"`
		}
		var groups []groupTable
		for _, grp := range ts.Groups {
			var matches []models.TournamentMatch
			for _, m := range ts.Matches {
				if m.Stage == models.StageGroup && m.GroupIndex == grp.Index {
					matches = append(matches, m)
				}
			}
			groups = append(groups, groupTable{
				Group:     grp.Index,
				Standings: services.Standings(matches, grp.Players),
			})
		}
		return c.JSON(fiber.Map{"groups": groups})
	default:
		return c.JSON(fiber.Map{"standings": []models.TournamentStanding{}})
	}
}
