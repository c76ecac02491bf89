// handlers/queue.go
package handlers

import (
	"time"

	"chalk-table-service/models"
	"chalk-table-service/services"

	"github.com/gofiber/fiber/v2"
)

// QueueHandler exposes queue sign-up and management.
type QueueHandler struct {
	Queues *services.QueueService
}

func SetupQueueRoutes(app *fiber.App, queues *services.QueueService) {
	h := &QueueHandler{Queues: queues}

	app.Post("/tables/:id/queue", h.Join)
	app.Delete("/tables/:id/queue/:entry", h.Leave)
	app.Patch("/tables/:id/queue/:entry/position", h.Reorder)
	app.Post("/tables/:id/queue/:entry/hold", h.Hold)
	app.Post("/tables/:id/queue/:entry/unhold", h.Unhold)
	app.Post("/tables/:id/queue/:entry/claim", h.Claim)
}

func (h *QueueHandler) Join(c *fiber.Ctx) error {
	type Req struct {
		versioned
		Names []string        `json:"names"`
		Mode  models.GameMode `json:"mode"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Mode == "" {
		req.Mode = models.ModeSingles
	}

	// A signed-in kiosk user claims the first name in the entry.
	claims := map[string]string{}
	if userID, ok := c.Locals("user_id").(string); ok && userID != "" && len(req.Names) > 0 {
		claims[req.Names[0]] = userID
	}

	snap, entryID, err := h.Queues.Enqueue(c.Params("id"), req.expected(), req.Names, req.Mode, claims)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"entry_id": entryID, "snapshot": snap})
}

func (h *QueueHandler) Leave(c *fiber.Ctx) error {
	var req versioned
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	snap, err := h.Queues.Remove(c.Params("id"), req.expected(), c.Params("entry"))
	return respondSnapshot(c, snap, err)
}

func (h *QueueHandler) Reorder(c *fiber.Ctx) error {
	type Req struct {
		versioned
		NewIndex int `json:"new_index"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	snap, err := h.Queues.Reorder(c.Params("id"), req.expected(), c.Params("entry"), req.NewIndex)
	return respondSnapshot(c, snap, err)
}

func (h *QueueHandler) Hold(c *fiber.Ctx) error {
	type Req struct {
		versioned
		Minutes int `json:"minutes"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	snap, err := h.Queues.Hold(c.Params("id"), req.expected(), c.Params("entry"),
		time.Duration(req.Minutes)*time.Minute)
	return respondSnapshot(c, snap, err)
}

func (h *QueueHandler) Unhold(c *fiber.Ctx) error {
	var req versioned
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	snap, err := h.Queues.Unhold(c.Params("id"), req.expected(), c.Params("entry"))
	return respondSnapshot(c, snap, err)
}

func (h *QueueHandler) Claim(c *fiber.Ctx) error {
	type Req struct {
		versioned
		PlayerName string `json:"player_name"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(401).JSON(fiber.Map{"error": "sign in to claim a spot"})
	}
	snap, err := h.Queues.Claim(c.Params("id"), req.expected(), c.Params("entry"), req.PlayerName, userID)
	return respondSnapshot(c, snap, err)
}
