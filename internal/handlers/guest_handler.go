package handlers

import (
	"errors"
	"time"

	"github.com/ahmetcoskunkizilkaya/auratask/internal/dto"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/guest"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/identity"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/services"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/session"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/store"
	"github.com/gofiber/fiber/v2"
)

// GuestSessions builds guest managers bound to the cookies of one request.
type GuestSessions struct {
	store    store.Store
	provider identity.Provider
	cookies  session.CookieOptions
}

func NewGuestSessions(st store.Store, provider identity.Provider, cookies session.CookieOptions) *GuestSessions {
	return &GuestSessions{store: st, provider: provider, cookies: cookies}
}

func (g *GuestSessions) For(c *fiber.Ctx) *guest.Manager {
	cache := session.New(session.NewCookieBackend(c, g.cookies))
	return guest.NewManager(g.store, g.provider, cache)
}

type GuestHandler struct {
	sessions     *GuestSessions
	authService  *services.AuthService
	syncInterval time.Duration
}

func NewGuestHandler(sessions *GuestSessions, authService *services.AuthService, syncInterval time.Duration) *GuestHandler {
	return &GuestHandler{sessions: sessions, authService: authService, syncInterval: syncInterval}
}

// Init restores or creates the device's guest identity and returns an access
// token for it.
func (h *GuestHandler) Init(c *fiber.Ctx) error {
	user, err := h.sessions.For(c).InitializeGuestIdentity(c.UserContext())
	if err != nil {
		if errors.Is(err, guest.ErrProviderUnavailable) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Error: true, Message: "Guest mode is temporarily unavailable",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	token, err := h.authService.GuestAccessToken(user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	return c.JSON(dto.GuestInitResponse{
		AccessToken:         token,
		User:                services.ToUserResponse(user),
		SyncIntervalSeconds: int(h.syncInterval.Seconds()),
	})
}

func (h *GuestHandler) Status(c *fiber.Ctx) error {
	m := h.sessions.For(c)
	resp := dto.GuestStatusResponse{IsGuest: m.IsGuestIdentity()}
	if id, ok := m.CurrentGuestID(); ok {
		resp.GuestID = &id
	}
	if last, ok := m.LastSync(); ok {
		resp.LastSync = &last
	}
	return c.JSON(resp)
}

// Sync is hit on a timer and as a beacon when the page is closed.
func (h *GuestHandler) Sync(c *fiber.Ctx) error {
	synced := h.sessions.For(c).SynchronizeGuestState(c.UserContext())
	return c.JSON(dto.GuestSyncResponse{Synced: synced})
}

// Clear forgets the guest on this device only; the stored identity remains.
func (h *GuestHandler) Clear(c *fiber.Ctx) error {
	h.sessions.For(c).ClearLocalGuestState()
	return c.SendStatus(fiber.StatusNoContent)
}
