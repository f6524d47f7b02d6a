package dto

import (
	"time"

	"github.com/google/uuid"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type GoogleSignInRequest struct {
	IDToken string `json:"id_token"`
}

// AuthResponse is returned by every sign-in path. GuestMigrated is true when
// this device's guest data now belongs to the account; GuestMigrationFailed
// means it was not moved: GuestMigrationReason tells a rolled-back attempt
// (data still with the guest session) from a guest already merged elsewhere.
type AuthResponse struct {
	AccessToken          string       `json:"access_token"`
	RefreshToken         string       `json:"refresh_token"`
	User                 UserResponse `json:"user"`
	GuestMigrated        bool         `json:"guest_migrated"`
	GuestMigrationFailed bool         `json:"guest_migration_failed"`
	GuestMigrationReason string       `json:"guest_migration_reason,omitempty"`
	Message              string       `json:"message,omitempty"`
	Next                 string       `json:"next"`
}

type UserResponse struct {
	ID             uuid.UUID  `json:"id"`
	Email          string     `json:"email"`
	Username       string     `json:"username"`
	AuthProvider   string     `json:"auth_provider"`
	Avatar         *string    `json:"avatar,omitempty"`
	Theme          string     `json:"theme"`
	DarkMode       bool       `json:"dark_mode"`
	AuraPoints     int        `json:"aura_points"`
	CurrentStreak  int        `json:"current_streak"`
	LongestStreak  int        `json:"longest_streak"`
	OnboardingDone bool       `json:"onboarding_done"`
	IsGuest        bool       `json:"is_guest"`
	UpgradedAt     *time.Time `json:"guest_upgraded_at,omitempty"`
	UpgradedToID   *uuid.UUID `json:"guest_upgraded_to_id,omitempty"`
}

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}
