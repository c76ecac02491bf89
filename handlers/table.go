// handlers/table.go
package handlers

import (
	"chalk-table-service/models"
	"chalk-table-service/services"

	"github.com/gofiber/fiber/v2"
)

// TableHandler exposes table lifecycle and the live snapshot stream.
type TableHandler struct {
	Tables *services.TableService
}

func SetupTableRoutes(app *fiber.App, tables *services.TableService) {
	h := &TableHandler{Tables: tables}

	app.Post("/tables", h.Create)
	app.Get("/tables/code/:code", h.GetByCode)
	app.Get("/tables/:id", h.Get)
	app.Get("/tables/:id/events", tables.StreamTableSSE)
	app.Post("/tables/:id/reset", h.Reset)
	app.Patch("/tables/:id/settings", h.UpdateSettings)
}

func (h *TableHandler) Create(c *fiber.Ctx) error {
	type Req struct {
		Name string `json:"name"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	snap, err := h.Tables.CreateTable(req.Name)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(snap)
}

func (h *TableHandler) Get(c *fiber.Ctx) error {
	snap, err := h.Tables.GetTable(c.Params("id"))
	return respondSnapshot(c, snap, err)
}

func (h *TableHandler) GetByCode(c *fiber.Ctx) error {
	snap, err := h.Tables.FindByJoinCode(c.Params("code"))
	return respondSnapshot(c, snap, err)
}

func (h *TableHandler) Reset(c *fiber.Ctx) error {
	var req versioned
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	snap, err := h.Tables.ResetSession(c.Params("id"), req.expected())
	return respondSnapshot(c, snap, err)
}

func (h *TableHandler) UpdateSettings(c *fiber.Ctx) error {
	type Req struct {
		versioned
		Settings models.TableSettings `json:"settings"`

		WinLimitEnabled *bool `json:"win_limit_enabled"`
		SoundEnabled    *bool `json:"sound_enabled"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.WinLimitEnabled != nil {
		req.Settings.WinLimitEnabled = *req.WinLimitEnabled
	}
	if req.SoundEnabled != nil {
		req.Settings.SoundEnabled = *req.SoundEnabled
	}
	snap, err := h.Tables.UpdateSettings(c.Params("id"), req.expected(), req.Settings,
		req.WinLimitEnabled != nil, req.SoundEnabled != nil)
	return respondSnapshot(c, snap, err)
}
