package handlers

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/auratask/internal/dto"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/migration"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// MigrationHandler lets operators replay a guest migration that failed
// during sign-in.
type MigrationHandler struct {
	engine *migration.Engine
}

func NewMigrationHandler(engine *migration.Engine) *MigrationHandler {
	return &MigrationHandler{engine: engine}
}

func (h *MigrationHandler) Run(c *fiber.Ctx) error {
	var req dto.MigrationRequest
	if err := c.BodyParser(&req); err != nil || req.GuestID == uuid.Nil || req.AuthID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "guest_id and auth_id are required",
		})
	}

	report, err := h.engine.Migrate(c.UserContext(), req.GuestID, req.AuthID)
	if err != nil {
		switch {
		case errors.Is(err, migration.ErrIdentityNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
		case errors.Is(err, migration.ErrAlreadyRetired):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
		case errors.Is(err, migration.ErrSameIdentity),
			errors.Is(err, migration.ErrNotGuest),
			errors.Is(err, migration.ErrInvalidTarget):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Migration failed",
		})
	}
	return c.JSON(report)
}
