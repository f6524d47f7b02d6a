package dto

import (
	"time"

	"github.com/google/uuid"
)

type GuestInitResponse struct {
	AccessToken string       `json:"access_token"`
	User        UserResponse `json:"user"`
	// SyncIntervalSeconds tells the client how often to call /api/guest/sync.
	SyncIntervalSeconds int `json:"sync_interval_seconds"`
}

type GuestStatusResponse struct {
	IsGuest  bool       `json:"is_guest"`
	GuestID  *uuid.UUID `json:"guest_id,omitempty"`
	LastSync *time.Time `json:"last_sync,omitempty"`
}

type GuestSyncResponse struct {
	Synced bool `json:"synced"`
}

type MigrationRequest struct {
	GuestID uuid.UUID `json:"guest_id"`
	AuthID  uuid.UUID `json:"auth_id"`
}
