package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/auratask/internal/models"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/store"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/store/storetest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(t *testing.T, s store.Store, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, Username: "user", AuthProvider: models.ProviderEmail}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func TestStore_CreateAndFindUser(t *testing.T) {
	for _, f := range storetest.Factories() {
		t.Run(f.Name, func(t *testing.T) {
			s := f.New(t)
			ctx := context.Background()

			u := newUser(t, s, "a@example.com")
			assert.NotEqual(t, uuid.Nil, u.ID)

			got, err := s.FindUser(ctx, u.ID)
			require.NoError(t, err)
			assert.Equal(t, "a@example.com", got.Email)
			assert.False(t, got.IsGuest)
			assert.Nil(t, got.GuestUpgradedToID)

			byEmail, err := s.FindUserByEmail(ctx, "a@example.com")
			require.NoError(t, err)
			assert.Equal(t, u.ID, byEmail.ID)
		})
	}
}

func TestStore_FindUser_NotFound(t *testing.T) {
	for _, f := range storetest.Factories() {
		t.Run(f.Name, func(t *testing.T) {
			s := f.New(t)
			_, err := s.FindUser(context.Background(), uuid.New())
			assert.ErrorIs(t, err, store.ErrNotFound)

			_, err = s.FindUserByGoogleSubject(context.Background(), "nobody")
			assert.ErrorIs(t, err, store.ErrNotFound)
		})
	}
}

func TestStore_FindUserForUpdate(t *testing.T) {
	for _, f := range storetest.Factories() {
		t.Run(f.Name, func(t *testing.T) {
			s := f.New(t)
			ctx := context.Background()
			u := newUser(t, s, "lock@example.com")

			got, err := s.FindUserForUpdate(ctx, u.ID)
			require.NoError(t, err)
			assert.Equal(t, "lock@example.com", got.Email)

			err = s.Transaction(ctx, func(tx store.Store) error {
				locked, err := tx.FindUserForUpdate(ctx, u.ID)
				if err != nil {
					return err
				}
				assert.Equal(t, u.ID, locked.ID)

				_, err = tx.FindUserForUpdate(ctx, uuid.New())
				assert.ErrorIs(t, err, store.ErrNotFound)
				return nil
			})
			require.NoError(t, err)
		})
	}
}

func TestStore_UpdateUser_Patch(t *testing.T) {
	for _, f := range storetest.Factories() {
		t.Run(f.Name, func(t *testing.T) {
			s := f.New(t)
			ctx := context.Background()
			u := newUser(t, s, "patch@example.com")

			target := uuid.New()
			at := time.Now().UTC().Truncate(time.Second)
			err := s.UpdateUser(ctx, u.ID, store.UserPatch{
				AuraPoints:        store.Ptr(42),
				GuestUpgradedAt:   &at,
				GuestUpgradedToID: &target,
			})
			require.NoError(t, err)

			got, err := s.FindUser(ctx, u.ID)
			require.NoError(t, err)
			assert.Equal(t, 42, got.AuraPoints)
			assert.Equal(t, "user", got.Username, "untouched fields keep their value")
			require.NotNil(t, got.GuestUpgradedToID)
			assert.Equal(t, target, *got.GuestUpgradedToID)
			require.NotNil(t, got.GuestUpgradedAt)
			assert.True(t, at.Equal(got.GuestUpgradedAt.UTC()))
		})
	}
}

func TestStore_UpdateUser_Missing(t *testing.T) {
	for _, f := range storetest.Factories() {
		t.Run(f.Name, func(t *testing.T) {
			s := f.New(t)
			err := s.UpdateUser(context.Background(), uuid.New(), store.UserPatch{AuraPoints: store.Ptr(1)})
			assert.ErrorIs(t, err, store.ErrNotFound)
		})
	}
}

func TestStore_ListTaskGroups_FilterAndOrder(t *testing.T) {
	for _, f := range storetest.Factories() {
		t.Run(f.Name, func(t *testing.T) {
			s := f.New(t)
			ctx := context.Background()
			owner := newUser(t, s, "groups@example.com")
			other := newUser(t, s, "other@example.com")

			require.NoError(t, s.CreateTaskGroup(ctx, &models.TaskGroup{UserID: owner.ID, Name: "Home", Position: 1}))
			require.NoError(t, s.CreateTaskGroup(ctx, &models.TaskGroup{UserID: owner.ID, Name: "Work", Position: 0}))
			require.NoError(t, s.CreateTaskGroup(ctx, &models.TaskGroup{UserID: other.ID, Name: "Work", Position: 0}))

			groups, err := s.ListTaskGroups(ctx, owner.ID, store.GroupFilter{})
			require.NoError(t, err)
			require.Len(t, groups, 2)
			assert.Equal(t, "Work", groups[0].Name)
			assert.Equal(t, "Home", groups[1].Name)

			work, err := s.ListTaskGroups(ctx, owner.ID, store.GroupFilter{Name: "Work"})
			require.NoError(t, err)
			require.Len(t, work, 1)
			assert.Equal(t, owner.ID, work[0].UserID)
		})
	}
}

func TestStore_ListTasks_WithSubtasks(t *testing.T) {
	for _, f := range storetest.Factories() {
		t.Run(f.Name, func(t *testing.T) {
			s := f.New(t)
			ctx := context.Background()
			owner := newUser(t, s, "tasks@example.com")

			group := &models.TaskGroup{UserID: owner.ID, Name: "Work"}
			require.NoError(t, s.CreateTaskGroup(ctx, group))

			grouped := &models.Task{UserID: owner.ID, TaskGroupID: &group.ID, Title: "Draft report"}
			require.NoError(t, s.CreateTask(ctx, grouped))
			loose := &models.Task{UserID: owner.ID, Title: "Buy milk", Position: 1}
			require.NoError(t, s.CreateTask(ctx, loose))

			require.NoError(t, s.CreateSubtask(ctx, &models.Subtask{TaskID: grouped.ID, Title: "Review", Position: 1}))
			require.NoError(t, s.CreateSubtask(ctx, &models.Subtask{TaskID: grouped.ID, Title: "Outline", Position: 0}))

			all, err := s.ListTasks(ctx, owner.ID, store.TaskFilter{})
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, "Draft report", all[0].Title)
			require.Len(t, all[0].Subtasks, 2)
			assert.Equal(t, "Outline", all[0].Subtasks[0].Title)
			assert.Equal(t, "Review", all[0].Subtasks[1].Title)
			assert.Empty(t, all[1].Subtasks)

			inGroup, err := s.ListTasks(ctx, owner.ID, store.TaskFilter{GroupID: &group.ID})
			require.NoError(t, err)
			require.Len(t, inGroup, 1)
			assert.Equal(t, grouped.ID, inGroup[0].ID)

			ungrouped, err := s.ListTasks(ctx, owner.ID, store.TaskFilter{Ungrouped: true})
			require.NoError(t, err)
			require.Len(t, ungrouped, 1)
			assert.Equal(t, loose.ID, ungrouped[0].ID)
		})
	}
}

func TestStore_Transaction_RollsBack(t *testing.T) {
	for _, f := range storetest.Factories() {
		t.Run(f.Name, func(t *testing.T) {
			s := f.New(t)
			ctx := context.Background()
			owner := newUser(t, s, "tx@example.com")
			boom := errors.New("boom")

			err := s.Transaction(ctx, func(tx store.Store) error {
				if err := tx.CreateTaskGroup(ctx, &models.TaskGroup{UserID: owner.ID, Name: "Ghost"}); err != nil {
					return err
				}
				if err := tx.UpdateUser(ctx, owner.ID, store.UserPatch{AuraPoints: store.Ptr(99)}); err != nil {
					return err
				}
				return boom
			})
			assert.ErrorIs(t, err, boom)

			groups, err := s.ListTaskGroups(ctx, owner.ID, store.GroupFilter{})
			require.NoError(t, err)
			assert.Empty(t, groups)

			got, err := s.FindUser(ctx, owner.ID)
			require.NoError(t, err)
			assert.Equal(t, 0, got.AuraPoints)
		})
	}
}

func TestStore_Transaction_Commits(t *testing.T) {
	for _, f := range storetest.Factories() {
		t.Run(f.Name, func(t *testing.T) {
			s := f.New(t)
			ctx := context.Background()
			owner := newUser(t, s, "commit@example.com")

			err := s.Transaction(ctx, func(tx store.Store) error {
				return tx.CreateTaskGroup(ctx, &models.TaskGroup{UserID: owner.ID, Name: "Kept"})
			})
			require.NoError(t, err)

			groups, err := s.ListTaskGroups(ctx, owner.ID, store.GroupFilter{})
			require.NoError(t, err)
			require.Len(t, groups, 1)
			assert.Equal(t, "Kept", groups[0].Name)
		})
	}
}

func TestMemoryStore_DuplicateEmail(t *testing.T) {
	s := store.NewMemoryStore()
	newUser(t, s, "dup@example.com")

	err := s.CreateUser(context.Background(), &models.User{Email: "dup@example.com"})
	assert.ErrorIs(t, err, store.ErrDuplicate)
}

func TestMemoryStore_CreateTask_UnknownOwner(t *testing.T) {
	s := store.NewMemoryStore()
	err := s.CreateTask(context.Background(), &models.Task{UserID: uuid.New(), Title: "orphan"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMemoryStore_ReadsDoNotAlias(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	avatar := "https://example.com/a.png"
	u := &models.User{Email: "alias@example.com", Username: "user", AuthProvider: models.ProviderGoogle, Avatar: &avatar}
	require.NoError(t, s.CreateUser(ctx, u))
	avatar = "changed by caller"

	target := uuid.New()
	upgradedAt := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, s.UpdateUser(ctx, u.ID, store.UserPatch{
		GoogleSubject:     store.Ptr("sub-1"),
		GuestUpgradedAt:   &upgradedAt,
		GuestUpgradedToID: &target,
	}))

	byID, err := s.FindUser(ctx, u.ID)
	require.NoError(t, err)
	*byID.GoogleSubject = "sub-2"
	*byID.Avatar = "overwritten"
	*byID.GuestUpgradedToID = uuid.New()
	*byID.GuestUpgradedAt = time.Time{}

	byEmail, err := s.FindUserByEmail(ctx, "alias@example.com")
	require.NoError(t, err)
	*byEmail.GoogleSubject = "sub-3"

	bySubject, err := s.FindUserByGoogleSubject(ctx, "sub-1")
	require.NoError(t, err, "stored subject unchanged by writes through returned users")
	*bySubject.Avatar = "again"

	got, err := s.FindUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "sub-1", *got.GoogleSubject)
	assert.Equal(t, "https://example.com/a.png", *got.Avatar)
	assert.Equal(t, target, *got.GuestUpgradedToID)
	assert.True(t, upgradedAt.Equal(*got.GuestUpgradedAt))

	_, err = s.FindUserByGoogleSubject(ctx, "sub-2")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
