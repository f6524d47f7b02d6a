package authctx

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimsFromLocals(t *testing.T) {
	id := uuid.New()
	app := fiber.New()
	app.Get("/with", func(c *fiber.Ctx) error {
		c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{
			"sub": id.String(), "email": "g@auratask.temp", "is_guest": true,
		}})
		got, err := GetUserID(c)
		require.NoError(t, err)
		assert.Equal(t, id, got)
		assert.Equal(t, "g@auratask.temp", GetEmail(c))
		assert.True(t, IsGuest(c))
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Get("/without", func(c *fiber.Ctx) error {
		_, err := GetUserID(c)
		assert.ErrorIs(t, err, ErrNoIdentity)
		assert.False(t, IsGuest(c))
		assert.Empty(t, GetEmail(c))
		return c.SendStatus(fiber.StatusNoContent)
	})

	for _, path := range []string{"/with", "/without"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	}
}
