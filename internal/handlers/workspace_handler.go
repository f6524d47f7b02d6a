package handlers

import (
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/auratask/internal/authctx"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/dto"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/services"
	"github.com/gofiber/fiber/v2"
)

type WorkspaceHandler struct {
	workspace *services.WorkspaceService
}

func NewWorkspaceHandler(workspace *services.WorkspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{workspace: workspace}
}

func (h *WorkspaceHandler) Get(c *fiber.Ctx) error {
	userID, err := authctx.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	ws, err := h.workspace.Load(c.UserContext(), userID)
	if err != nil {
		slog.Error("workspace load failed", "user_id", userID.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(ws)
}
