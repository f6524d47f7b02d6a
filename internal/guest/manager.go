// Package guest manages the anonymous identities a device can act as before
// its user signs in for real.
package guest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/ahmetcoskunkizilkaya/auratask/internal/identity"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/models"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/session"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/store"
	"github.com/google/uuid"
)

var ErrProviderUnavailable = errors.New("guest identity provider unavailable")

// Manager is bound to one device's session cache.
type Manager struct {
	store    store.Store
	provider identity.Provider
	cache    *session.Cache
	now      func() time.Time
}

func NewManager(st store.Store, provider identity.Provider, cache *session.Cache) *Manager {
	return &Manager{store: st, provider: provider, cache: cache, now: time.Now}
}

// InitializeGuestIdentity restores the device's guest identity when its
// session is still valid, or creates a new one. A provider-side identity whose
// store record could not be written is left behind; the next call restores it
// and writes the record then.
func (m *Manager) InitializeGuestIdentity(ctx context.Context) (*models.User, error) {
	user, err := m.restore(ctx)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	anon, err := m.provider.CreateAnonymousIdentity(ctx)
	if err != nil {
		slog.Error("anonymous identity creation failed", "action", "guest_init", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	m.cache.Remember(anon.ID, anon.SessionToken)

	user, err = m.getOrCreateRecord(ctx, anon.ID)
	if err != nil {
		slog.Error("guest record creation failed", "action", "guest_init", "guest_id", anon.ID.String(), "error", err)
		return nil, err
	}

	slog.Info("guest identity created", "guest_id", user.ID.String())
	return user, nil
}

// restore returns (nil, nil) when there is nothing usable to restore.
func (m *Manager) restore(ctx context.Context) (*models.User, error) {
	id, ok := m.cache.GuestID()
	token := m.cache.SessionToken()
	if !ok || token == "" {
		return nil, nil
	}

	restored, err := m.provider.RestoreSession(ctx, token)
	if err != nil {
		slog.Info("guest session not restorable", "guest_id", id.String(), "error", err)
		return nil, nil
	}
	if restored != id {
		slog.Warn("guest session belongs to another identity", "guest_id", id.String(), "session_id", restored.String())
		return nil, nil
	}

	user, err := m.getOrCreateRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsGuest || user.Retired() {
		// the identity was already absorbed by an account; start over
		m.cache.Clear()
		return nil, nil
	}

	slog.Info("guest identity restored", "guest_id", id.String())
	return user, nil
}

func (m *Manager) getOrCreateRecord(ctx context.Context, id uuid.UUID) (*models.User, error) {
	existing, err := m.store.FindUser(ctx, id)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to load guest record: %w", err)
	}

	user := NewGuestRecord(id)
	if err := m.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return m.store.FindUser(ctx, id)
		}
		return nil, fmt.Errorf("failed to create guest record: %w", err)
	}
	return user, nil
}

// NewGuestRecord builds the default store record for a new guest identity.
func NewGuestRecord(id uuid.UUID) *models.User {
	return &models.User{
		ID:           id,
		Email:        fmt.Sprintf("guest_%s@auratask.temp", id),
		Username:     fmt.Sprintf("Guest_%04d", rand.IntN(10000)),
		AuthProvider: models.ProviderGuest,
		Theme:        models.DefaultTheme,
		IsGuest:      true,
	}
}

// IsGuestIdentity reports whether this device currently acts as a guest.
// It never consults the store.
func (m *Manager) IsGuestIdentity() bool {
	_, ok := m.cache.GuestID()
	return ok
}

func (m *Manager) CurrentGuestID() (uuid.UUID, bool) {
	return m.cache.GuestID()
}

func (m *Manager) LastSync() (time.Time, bool) {
	return m.cache.LastSync()
}

// SynchronizeGuestState records guest liveness. Writes are persisted directly,
// so there is nothing buffered to flush.
func (m *Manager) SynchronizeGuestState(ctx context.Context) bool {
	if !m.IsGuestIdentity() {
		return false
	}
	m.cache.Touch(m.now())
	return true
}

// ClearLocalGuestState forgets the guest identity on this device. Call it only
// after a migration has committed.
func (m *Manager) ClearLocalGuestState() {
	m.cache.Clear()
}
