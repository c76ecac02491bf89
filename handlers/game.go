// handlers/game.go
package handlers

import (
	"chalk-table-service/models"
	"chalk-table-service/services"

	"github.com/gofiber/fiber/v2"
)

// GameHandler exposes the game lifecycle: starting, finishing and cancelling
// games, the no-show flow, and killer rounds.
type GameHandler struct {
	Games   *services.GameService
	Killers *services.KillerService
}

func SetupGameRoutes(app *fiber.App, games *services.GameService, killers *services.KillerService) {
	h := &GameHandler{Games: games, Killers: killers}

	app.Post("/tables/:id/game/start", h.StartNext)
	app.Post("/tables/:id/game/result", h.ReportResult)
	app.Post("/tables/:id/game/cancel", h.Cancel)

	app.Post("/tables/:id/game/no-show/dismiss", h.DismissNoShow)
	app.Post("/tables/:id/game/no-show/selection", h.UpdateNoShowSelection)
	app.Post("/tables/:id/game/no-show/resolve", h.ResolveNoShows)

	app.Post("/tables/:id/killer/start", h.StartKiller)
	app.Post("/tables/:id/killer/eliminate", h.EliminateKillerPlayer)
	app.Post("/tables/:id/killer/finish", h.FinishKiller)
}

func (h *GameHandler) StartNext(c *fiber.Ctx) error {
	var req versioned
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	snap, err := h.Games.StartNextGame(c.Params("id"), req.expected())
	return respondSnapshot(c, snap, err)
}

func (h *GameHandler) ReportResult(c *fiber.Ctx) error {
	type Req struct {
		versioned
		WinningSide models.Side `json:"winning_side"`
		WinnerNames []string    `json:"winner_names"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	snap, err := h.Games.ReportResult(c.Params("id"), req.expected(), req.WinningSide, req.WinnerNames)
	return respondSnapshot(c, snap, err)
}

func (h *GameHandler) Cancel(c *fiber.Ctx) error {
	var req versioned
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	snap, err := h.Games.CancelGame(c.Params("id"), req.expected())
	return respondSnapshot(c, snap, err)
}

func (h *GameHandler) DismissNoShow(c *fiber.Ctx) error {
	var req versioned
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	snap, err := h.Games.DismissNoShow(c.Params("id"), req.expected())
	return respondSnapshot(c, snap, err)
}

func (h *GameHandler) UpdateNoShowSelection(c *fiber.Ctx) error {
	type Req struct {
		versioned
		EntryIDs []string `json:"entry_ids"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	snap, err := h.Games.UpdateNoShowSelection(c.Params("id"), req.expected(), req.EntryIDs)
	return respondSnapshot(c, snap, err)
}

func (h *GameHandler) ResolveNoShows(c *fiber.Ctx) error {
	type Req struct {
		versioned
		EntryIDs []string `json:"entry_ids"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	snap, err := h.Games.ResolveNoShows(c.Params("id"), req.expected(), req.EntryIDs)
	return respondSnapshot(c, snap, err)
}

func (h *GameHandler) StartKiller(c *fiber.Ctx) error {
	type Req struct {
		versioned
		Names []string `json:"names"`
		Lives int      `json:"lives"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	snap, err := h.Killers.StartKillerDirect(c.Params("id"), req.expected(), req.Names, req.Lives)
	return respondSnapshot(c, snap, err)
}

func (h *GameHandler) EliminateKillerPlayer(c *fiber.Ctx) error {
	type Req struct {
		versioned
		Name string `json:"name"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	snap, err := h.Killers.EliminateKillerPlayer(c.Params("id"), req.expected(), req.Name)
	return respondSnapshot(c, snap, err)
}

func (h *GameHandler) FinishKiller(c *fiber.Ctx) error {
	type Req struct {
		versioned
		Winner string `json:"winner"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	snap, err := h.Killers.FinishKillerGame(c.Params("id"), req.expected(), req.Winner)
	return respondSnapshot(c, snap, err)
}
