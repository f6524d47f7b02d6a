package session

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_RememberAndClear(t *testing.T) {
	backend := NewMemoryBackend()
	cache := New(backend)

	_, ok := cache.GuestID()
	assert.False(t, ok)

	id := uuid.New()
	cache.Remember(id, "token-1")
	cache.Touch(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))

	got, ok := cache.GuestID()
	require.True(t, ok)
	assert.Equal(t, id, got)
	assert.Equal(t, "token-1", cache.SessionToken())

	synced, ok := cache.LastSync()
	require.True(t, ok)
	assert.Equal(t, 2025, synced.Year())

	cache.Clear()
	assert.Equal(t, 0, backend.Len())
	_, ok = cache.GuestID()
	assert.False(t, ok)
	assert.Empty(t, cache.SessionToken())
}

func TestCache_MalformedGuestID(t *testing.T) {
	backend := NewMemoryBackend()
	backend.Set(KeyGuestID, "not-a-uuid")

	_, ok := New(backend).GuestID()
	assert.False(t, ok)
}

func TestCookieBackend_RoundTrip(t *testing.T) {
	app := fiber.New()
	app.Get("/set", func(c *fiber.Ctx) error {
		cache := New(NewCookieBackend(c, CookieOptions{MaxAge: time.Hour}))
		cache.Remember(uuid.MustParse("2b1f3c2e-1111-4a4a-9b9b-000000000001"), "tok")
		id, ok := cache.GuestID()
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendString(id.String())
	})
	app.Get("/read", func(c *fiber.Ctx) error {
		cache := New(NewCookieBackend(c, CookieOptions{}))
		id, ok := cache.GuestID()
		if !ok {
			return c.SendString("none")
		}
		return c.SendString(id.String() + "|" + cache.SessionToken())
	})
	app.Get("/clear", func(c *fiber.Ctx) error {
		cache := New(NewCookieBackend(c, CookieOptions{}))
		cache.Clear()
		if _, ok := cache.GuestID(); ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/set", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "2b1f3c2e-1111-4a4a-9b9b-000000000001", string(body))

	var setCookies []string
	for _, c := range resp.Cookies() {
		setCookies = append(setCookies, c.Name)
		assert.True(t, c.HttpOnly)
	}
	assert.Contains(t, setCookies, KeyGuestID)
	assert.Contains(t, setCookies, KeyGuestSession)

	issued := resp.Cookies()
	req := httptest.NewRequest("GET", "/read", nil)
	for _, c := range issued {
		req.AddCookie(c)
	}
	resp, err = app.Test(req)
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	assert.Equal(t, "2b1f3c2e-1111-4a4a-9b9b-000000000001|tok", string(body))

	req = httptest.NewRequest("GET", "/clear", nil)
	for _, c := range issued {
		req.AddCookie(c)
	}
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	for _, c := range resp.Cookies() {
		assert.True(t, strings.HasPrefix(c.Name, "auratask_"))
		assert.Empty(t, c.Value)
	}
}
