package handlers

import (
	"errors"
	"log"

	"chalk-table-service/services"
	"chalk-table-service/store"

	"github.com/gofiber/fiber/v2"
)

// versioned is the optional optimistic-concurrency precondition clients may
// attach to any mutation. A missing version means "apply regardless".
type versioned struct {
	Version *int64 `json:"version"`
}

func (v versioned) expected() int64 {
	if v.Version == nil {
		return -1
	}
	return *v.Version
}

// respondError maps service errors onto HTTP statuses: rejected intents are
// 400, stale versions 409, unknown tables 404, everything else 500.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case services.IsValidation(err):
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, store.ErrVersionConflict):
		return c.Status(409).JSON(fiber.Map{"error": "table changed, reload and retry"})
	case errors.Is(err, store.ErrTableNotFound):
		return c.Status(404).JSON(fiber.Map{"error": "table not found"})
	default:
		log.Printf("[HTTP] %s %s failed: %v", c.Method(), c.Path(), err)
		return c.Status(500).JSON(fiber.Map{"error": "internal error"})
	}
}

func respondSnapshot(c *fiber.Ctx, snap store.Snapshot, err error) error {
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(snap)
}
