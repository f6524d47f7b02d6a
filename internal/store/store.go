// Package store is the persistence boundary for identities and the entities
// they own. Every multi-step write goes through Store.Transaction, which is
// the only consistency mechanism the service relies on.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/ahmetcoskunkizilkaya/auratask/internal/models"
	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

type Store interface {
	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByGoogleSubject(ctx context.Context, subject string) (*models.User, error)
	// FindUserForUpdate reads a user and, inside a transaction, holds a row
	// lock on it until the transaction ends. Concurrent lockers of the same
	// row wait and then see the committed state.
	FindUserForUpdate(ctx context.Context, id uuid.UUID) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, id uuid.UUID, patch UserPatch) error

	ListTaskGroups(ctx context.Context, ownerID uuid.UUID, filter GroupFilter) ([]models.TaskGroup, error)
	CreateTaskGroup(ctx context.Context, group *models.TaskGroup) error

	// ListTasks returns tasks with their subtasks loaded, both ordered by position.
	ListTasks(ctx context.Context, ownerID uuid.UUID, filter TaskFilter) ([]models.Task, error)
	CreateTask(ctx context.Context, task *models.Task) error
	CreateSubtask(ctx context.Context, subtask *models.Subtask) error

	// Transaction runs fn against a transactional view of the store. Nothing
	// fn writes is visible to other callers unless fn returns nil.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// GroupFilter narrows ListTaskGroups. Zero value matches every group.
type GroupFilter struct {
	Name string
}

// TaskFilter narrows ListTasks. Zero value matches every task.
type TaskFilter struct {
	GroupID   *uuid.UUID
	Ungrouped bool
}

// UserPatch is a field-level update; nil fields are left untouched.
type UserPatch struct {
	Email             *string
	Username          *string
	Password          *string
	AuthProvider      *string
	GoogleSubject     *string
	Avatar            *string
	AuraPoints        *int
	CurrentStreak     *int
	LongestStreak     *int
	OnboardingDone    *bool
	IsGuest           *bool
	GuestUpgradedAt   *time.Time
	GuestUpgradedToID *uuid.UUID
}

func (p UserPatch) columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if p.Email != nil {
		cols["email"] = *p.Email
	}
	if p.Username != nil {
		cols["username"] = *p.Username
	}
	if p.Password != nil {
		cols["password"] = *p.Password
	}
	if p.AuthProvider != nil {
		cols["auth_provider"] = *p.AuthProvider
	}
	if p.GoogleSubject != nil {
		cols["google_subject"] = *p.GoogleSubject
	}
	if p.Avatar != nil {
		cols["avatar"] = *p.Avatar
	}
	if p.AuraPoints != nil {
		cols["aura_points"] = *p.AuraPoints
	}
	if p.CurrentStreak != nil {
		cols["current_streak"] = *p.CurrentStreak
	}
	if p.LongestStreak != nil {
		cols["longest_streak"] = *p.LongestStreak
	}
	if p.OnboardingDone != nil {
		cols["onboarding_done"] = *p.OnboardingDone
	}
	if p.IsGuest != nil {
		cols["is_guest"] = *p.IsGuest
	}
	if p.GuestUpgradedAt != nil {
		cols["guest_upgraded_at"] = *p.GuestUpgradedAt
	}
	if p.GuestUpgradedToID != nil {
		cols["guest_upgraded_to_id"] = *p.GuestUpgradedToID
	}
	return cols
}

func (p UserPatch) apply(u *models.User) {
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Password != nil {
		u.Password = *p.Password
	}
	if p.AuthProvider != nil {
		u.AuthProvider = *p.AuthProvider
	}
	if p.GoogleSubject != nil {
		s := *p.GoogleSubject
		u.GoogleSubject = &s
	}
	if p.Avatar != nil {
		s := *p.Avatar
		u.Avatar = &s
	}
	if p.AuraPoints != nil {
		u.AuraPoints = *p.AuraPoints
	}
	if p.CurrentStreak != nil {
		u.CurrentStreak = *p.CurrentStreak
	}
	if p.LongestStreak != nil {
		u.LongestStreak = *p.LongestStreak
	}
	if p.OnboardingDone != nil {
		u.OnboardingDone = *p.OnboardingDone
	}
	if p.IsGuest != nil {
		u.IsGuest = *p.IsGuest
	}
	if p.GuestUpgradedAt != nil {
		t := *p.GuestUpgradedAt
		u.GuestUpgradedAt = &t
	}
	if p.GuestUpgradedToID != nil {
		id := *p.GuestUpgradedToID
		u.GuestUpgradedToID = &id
	}
}

// Ptr is a convenience for building patches.
func Ptr[T any](v T) *T {
	return &v
}
