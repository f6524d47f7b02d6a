// Package session keeps the device-scoped record of which guest identity a
// client is acting as.
package session

import (
	"time"

	"github.com/google/uuid"
)

const (
	KeyGuestID      = "auratask_guest_id"
	KeyGuestSession = "auratask_guest_session"
	KeyLastSync     = "auratask_last_sync"
)

// Backend is the device-local key/value storage a Cache persists into.
type Backend interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}

type Cache struct {
	backend Backend
}

func New(backend Backend) *Cache {
	return &Cache{backend: backend}
}

// GuestID returns the cached guest id. A malformed value counts as absent.
func (c *Cache) GuestID() (uuid.UUID, bool) {
	raw, ok := c.backend.Get(KeyGuestID)
	if !ok || raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (c *Cache) SessionToken() string {
	token, _ := c.backend.Get(KeyGuestSession)
	return token
}

func (c *Cache) LastSync() (time.Time, bool) {
	raw, ok := c.backend.Get(KeyLastSync)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Remember records the guest identity this device now acts as.
func (c *Cache) Remember(id uuid.UUID, token string) {
	c.backend.Set(KeyGuestID, id.String())
	c.backend.Set(KeyGuestSession, token)
}

func (c *Cache) Touch(now time.Time) {
	c.backend.Set(KeyLastSync, now.UTC().Format(time.RFC3339))
}

// Clear removes every guest key.
func (c *Cache) Clear() {
	c.backend.Delete(KeyGuestID)
	c.backend.Delete(KeyGuestSession)
	c.backend.Delete(KeyLastSync)
}
