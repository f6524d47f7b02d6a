// Package migration moves everything a guest identity owns onto an
// authenticated identity and retires the guest, all inside one store
// transaction.
package migration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/auratask/internal/models"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/store"
	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
)

var (
	ErrSameIdentity     = errors.New("guest and target identity are the same")
	ErrIdentityNotFound = errors.New("identity not found")
	ErrNotGuest         = errors.New("source identity is not a guest")
	ErrAlreadyRetired   = errors.New("guest identity already migrated to another account")
	ErrInvalidTarget    = errors.New("target identity is not an active account")
)

const upgradedSuffix = " (Upgraded)"

// Report describes what a committed migration did.
type Report struct {
	GuestID         uuid.UUID `json:"guest_id"`
	AuthID          uuid.UUID `json:"auth_id"`
	GroupsMerged    int       `json:"groups_merged"`
	GroupsCreated   int       `json:"groups_created"`
	TasksCopied     int       `json:"tasks_copied"`
	SubtasksCopied  int       `json:"subtasks_copied"`
	AlreadyMigrated bool      `json:"already_migrated"`
}

type Engine struct {
	store store.Store
	now   func() time.Time
}

func NewEngine(st store.Store) *Engine {
	return &Engine{store: st, now: time.Now}
}

// MigrateGuestData is Migrate reduced to a success flag. Failures are logged
// and reported; nothing is ever partially applied.
func (e *Engine) MigrateGuestData(ctx context.Context, guestID, authID uuid.UUID) bool {
	_, err := e.Migrate(ctx, guestID, authID)
	return err == nil
}

// Migrate re-homes the guest's groups, tasks and subtasks onto authID, merges
// the aggregate stats and retires the guest. Running it again for a guest
// already retired to authID is a no-op that reports AlreadyMigrated.
func (e *Engine) Migrate(ctx context.Context, guestID, authID uuid.UUID) (*Report, error) {
	if guestID == authID {
		return nil, ErrSameIdentity
	}

	span := sentry.StartSpan(ctx, "guest.migrate")
	span.SetData("guest_id", guestID.String())
	span.SetData("auth_id", authID.String())
	defer span.Finish()
	ctx = span.Context()

	var report *Report
	err := e.store.Transaction(ctx, func(tx store.Store) error {
		r, err := e.migrate(ctx, tx, guestID, authID)
		report = r
		return err
	})
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		slog.Error("guest migration failed",
			"action", "guest_migrate",
			"guest_id", guestID.String(),
			"auth_id", authID.String(),
			"error", err,
		)
		if !errors.Is(err, ErrAlreadyRetired) {
			sentry.CaptureException(err)
		}
		return nil, err
	}

	span.Status = sentry.SpanStatusOK
	slog.Info("guest migration committed",
		"guest_id", guestID.String(),
		"auth_id", authID.String(),
		"groups_merged", report.GroupsMerged,
		"groups_created", report.GroupsCreated,
		"tasks", report.TasksCopied,
		"subtasks", report.SubtasksCopied,
		"already_migrated", report.AlreadyMigrated,
	)
	return report, nil
}

func (e *Engine) migrate(ctx context.Context, tx store.Store, guestID, authID uuid.UUID) (*Report, error) {
	report := &Report{GuestID: guestID, AuthID: authID}

	// Both rows stay locked until commit: a concurrent migration of the same
	// guest waits here and then sees it retired, and two guests merging into
	// one account cannot lose each other's stats. Guest first, then account.
	guest, err := findIdentity(ctx, tx, guestID)
	if err != nil {
		return nil, err
	}
	auth, err := findIdentity(ctx, tx, authID)
	if err != nil {
		return nil, err
	}

	if guest.Retired() {
		if *guest.GuestUpgradedToID == authID {
			report.AlreadyMigrated = true
			return report, nil
		}
		return nil, ErrAlreadyRetired
	}
	if !guest.IsGuest {
		return nil, ErrNotGuest
	}
	if auth.IsGuest || auth.Retired() {
		return nil, ErrInvalidTarget
	}

	groupMap, err := e.rehomeGroups(ctx, tx, guestID, authID, report)
	if err != nil {
		return nil, fmt.Errorf("re-homing groups: %w", err)
	}
	if err := e.rehomeTasks(ctx, tx, guestID, authID, groupMap, report); err != nil {
		return nil, fmt.Errorf("re-homing tasks: %w", err)
	}
	if err := tx.UpdateUser(ctx, authID, MergeAggregates(guest, auth)); err != nil {
		return nil, fmt.Errorf("merging stats: %w", err)
	}
	if err := e.retire(ctx, tx, guest, authID); err != nil {
		return nil, fmt.Errorf("retiring guest: %w", err)
	}
	return report, nil
}

func findIdentity(ctx context.Context, tx store.Store, id uuid.UUID) (*models.User, error) {
	user, err := tx.FindUserForUpdate(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrIdentityNotFound, id)
	}
	return user, err
}

// rehomeGroups maps every guest group id to a group owned by authID, reusing
// an existing group with the same name instead of creating a duplicate.
func (e *Engine) rehomeGroups(ctx context.Context, tx store.Store, guestID, authID uuid.UUID, report *Report) (map[uuid.UUID]uuid.UUID, error) {
	guestGroups, err := tx.ListTaskGroups(ctx, guestID, store.GroupFilter{})
	if err != nil {
		return nil, err
	}
	authGroups, err := tx.ListTaskGroups(ctx, authID, store.GroupFilter{})
	if err != nil {
		return nil, err
	}

	byName := make(map[string]uuid.UUID, len(authGroups))
	for _, g := range authGroups {
		if _, seen := byName[g.Name]; !seen {
			byName[g.Name] = g.ID
		}
	}

	mapping := make(map[uuid.UUID]uuid.UUID, len(guestGroups))
	for _, g := range guestGroups {
		if existing, ok := byName[g.Name]; ok {
			mapping[g.ID] = existing
			report.GroupsMerged++
			continue
		}

		copied := &models.TaskGroup{
			UserID:      authID,
			Name:        g.Name,
			Emoji:       g.Emoji,
			Color:       g.Color,
			Description: g.Description,
			Position:    g.Position,
		}
		if err := tx.CreateTaskGroup(ctx, copied); err != nil {
			return nil, err
		}
		mapping[g.ID] = copied.ID
		byName[g.Name] = copied.ID
		report.GroupsCreated++
	}
	return mapping, nil
}

// rehomeTasks copies every guest task with its subtasks. Tasks are never
// deduplicated.
func (e *Engine) rehomeTasks(ctx context.Context, tx store.Store, guestID, authID uuid.UUID, groupMap map[uuid.UUID]uuid.UUID, report *Report) error {
	tasks, err := tx.ListTasks(ctx, guestID, store.TaskFilter{})
	if err != nil {
		return err
	}

	for _, t := range tasks {
		var groupID *uuid.UUID
		if t.TaskGroupID != nil {
			if mapped, ok := groupMap[*t.TaskGroupID]; ok {
				groupID = &mapped
			} else {
				slog.Warn("guest task points at a group the guest does not own, copying ungrouped",
					"guest_id", guestID.String(), "task_id", t.ID.String())
			}
		}

		copied := &models.Task{
			UserID:          authID,
			TaskGroupID:     groupID,
			Title:           t.Title,
			Description:     t.Description,
			Status:          t.Status,
			Priority:        t.Priority,
			ImportanceScore: t.ImportanceScore,
			UrgencyScore:    t.UrgencyScore,
			DueDate:         t.DueDate,
			CompletedAt:     t.CompletedAt,
			AuraPoints:      t.AuraPoints,
			Position:        t.Position,
		}
		if err := tx.CreateTask(ctx, copied); err != nil {
			return err
		}
		report.TasksCopied++

		for _, s := range t.Subtasks {
			sub := &models.Subtask{
				TaskID:    copied.ID,
				Title:     s.Title,
				Completed: s.Completed,
				Position:  s.Position,
			}
			if err := tx.CreateSubtask(ctx, sub); err != nil {
				return err
			}
			report.SubtasksCopied++
		}
	}
	return nil
}

// MergeAggregates returns the patch that lifts auth's stats to the pairwise
// maximum with guest's and ORs the onboarding flag.
func MergeAggregates(guest, auth *models.User) store.UserPatch {
	return store.UserPatch{
		AuraPoints:     store.Ptr(max(auth.AuraPoints, guest.AuraPoints)),
		CurrentStreak:  store.Ptr(max(auth.CurrentStreak, guest.CurrentStreak)),
		LongestStreak:  store.Ptr(max(auth.LongestStreak, guest.LongestStreak)),
		OnboardingDone: store.Ptr(auth.OnboardingDone || guest.OnboardingDone),
	}
}

func (e *Engine) retire(ctx context.Context, tx store.Store, guest *models.User, authID uuid.UUID) error {
	name := guest.Username
	if name == "" {
		name = "Guest"
	}
	now := e.now().UTC()
	return tx.UpdateUser(ctx, guest.ID, store.UserPatch{
		IsGuest:           store.Ptr(false),
		GuestUpgradedAt:   &now,
		GuestUpgradedToID: &authID,
		Username:          store.Ptr(name + upgradedSuffix),
	})
}
