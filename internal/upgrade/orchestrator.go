// Package upgrade decides what happens to a device's guest data once the
// user finishes signing in.
package upgrade

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/auratask/internal/migration"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/models"
	"github.com/google/uuid"
)

// GuestState is the device-local view of the current guest.
type GuestState interface {
	CurrentGuestID() (uuid.UUID, bool)
	ClearLocalGuestState()
}

type Migrator interface {
	Migrate(ctx context.Context, guestID, authID uuid.UUID) (*migration.Report, error)
}

// Outcome is what an upgrade attempt did with the device's guest.
type Outcome int

const (
	// NoGuest: nothing to migrate; local state was cleared.
	NoGuest Outcome = iota
	Migrated
	// Failed: the migration rolled back and local state was kept for a retry.
	Failed
	// ClaimedElsewhere: the guest already belongs to another account. Local
	// state was cleared since no retry can succeed.
	ClaimedElsewhere
)

// OK reports whether the outcome counts as a successful upgrade.
func (o Outcome) OK() bool {
	return o == NoGuest || o == Migrated
}

type Orchestrator struct {
	migrator Migrator
}

func NewOrchestrator(m Migrator) *Orchestrator {
	return &Orchestrator{migrator: m}
}

// HandleAuthUpgrade migrates the device's guest data onto authUser. It returns
// false only when a migration was attempted and did not happen.
func (o *Orchestrator) HandleAuthUpgrade(ctx context.Context, guests GuestState, authUser *models.User) bool {
	return o.Upgrade(ctx, guests, authUser).OK()
}

func (o *Orchestrator) Upgrade(ctx context.Context, guests GuestState, authUser *models.User) Outcome {
	guestID, ok := guests.CurrentGuestID()
	if !ok || guestID == authUser.ID {
		guests.ClearLocalGuestState()
		return NoGuest
	}

	report, err := o.migrator.Migrate(ctx, guestID, authUser.ID)
	switch {
	case err == nil:
		guests.ClearLocalGuestState()
		slog.Info("guest upgraded",
			"action", "guest_upgrade",
			"guest_id", guestID.String(),
			"user_id", authUser.ID.String(),
			"already_migrated", report.AlreadyMigrated,
		)
		return Migrated
	case errors.Is(err, migration.ErrAlreadyRetired):
		guests.ClearLocalGuestState()
		slog.Warn("guest already upgraded to another account",
			"action", "guest_upgrade",
			"guest_id", guestID.String(),
			"user_id", authUser.ID.String(),
		)
		return ClaimedElsewhere
	default:
		slog.Error("guest upgrade failed, guest state kept",
			"action", "guest_upgrade",
			"guest_id", guestID.String(),
			"user_id", authUser.ID.String(),
			"error", err,
		)
		return Failed
	}
}
