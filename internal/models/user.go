package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ProviderGuest  = "guest"
	ProviderEmail  = "email"
	ProviderGoogle = "google"

	DefaultTheme = "default"
)

// User is an AuraTask identity. Guest identities carry IsGuest until they are
// retired by a migration, after which GuestUpgradedAt and GuestUpgradedToID
// are set once and never reassigned.
type User struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Email             string         `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Username          string         `gorm:"size:100" json:"username"`
	Password          string         `gorm:"not null;default:''" json:"-"`
	Role              string         `gorm:"size:20;default:'user'" json:"role"`
	AuthProvider      string         `gorm:"size:50;default:'email'" json:"auth_provider"`
	GoogleSubject     *string        `gorm:"size:255;uniqueIndex" json:"-"`
	Avatar            *string        `gorm:"type:text" json:"avatar,omitempty"`
	Theme             string         `gorm:"size:30;default:'default'" json:"theme"`
	DarkMode          bool           `gorm:"default:false" json:"dark_mode"`
	AuraPoints        int            `gorm:"not null;default:0" json:"aura_points"`
	CurrentStreak     int            `gorm:"not null;default:0" json:"current_streak"`
	LongestStreak     int            `gorm:"not null;default:0" json:"longest_streak"`
	OnboardingDone    bool           `gorm:"not null;default:false" json:"onboarding_done"`
	IsGuest           bool           `gorm:"not null;default:false;index" json:"is_guest"`
	GuestUpgradedAt   *time.Time     `json:"guest_upgraded_at,omitempty"`
	GuestUpgradedToID *uuid.UUID     `gorm:"type:uuid;index" json:"guest_upgraded_to_id,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Retired reports whether a guest identity has already been absorbed by an
// authenticated one.
func (u *User) Retired() bool {
	return u.GuestUpgradedToID != nil
}
