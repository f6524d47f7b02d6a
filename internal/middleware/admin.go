package middleware

import (
	"strings"

	"github.com/ahmetcoskunkizilkaya/auratask/internal/authctx"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/config"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/dto"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/store"
	"github.com/gofiber/fiber/v2"
)

// AdminRequired admits callers that present the configured admin token, are
// listed in ADMIN_EMAILS/ADMIN_USER_IDS, or carry role "admin" in the store.
// Guest tokens are never admins.
func AdminRequired(st store.Store, cfg *config.Config) fiber.Handler {
	adminEmails := parseCSV(cfg.AdminEmails)
	adminUserIDs := parseCSV(cfg.AdminUserIDs)

	return func(c *fiber.Ctx) error {
		if cfg.AdminToken != "" && c.Get("X-Admin-Token") == cfg.AdminToken {
			return c.Next()
		}

		userID, err := authctx.GetUserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}
		if authctx.IsGuest(c) {
			return forbidden(c)
		}

		if contains(adminEmails, authctx.GetEmail(c)) || contains(adminUserIDs, userID.String()) {
			return c.Next()
		}

		user, err := st.FindUser(c.UserContext(), userID)
		if err == nil && user.Role == "admin" {
			return c.Next()
		}
		return forbidden(c)
	}
}

func forbidden(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
		Error: true, Message: "Admin access required",
	})
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func contains(list []string, val string) bool {
	if val == "" {
		return false
	}
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}
