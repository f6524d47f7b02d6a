package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/ahmetcoskunkizilkaya/auratask/internal/migration"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/models"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, st store.Store, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(func() (store.Store, func(), error) { return st, func() {}, nil })
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func seed(t *testing.T) (store.Store, *models.User, *models.User) {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemoryStore()
	g := &models.User{Email: "guest_x@auratask.temp", Username: "Guest_0001", AuthProvider: models.ProviderGuest, IsGuest: true}
	require.NoError(t, st.CreateUser(ctx, g))
	require.NoError(t, st.CreateTask(ctx, &models.Task{UserID: g.ID, Title: "t"}))
	a := &models.User{Email: "a@example.com", Username: "a"}
	require.NoError(t, st.CreateUser(ctx, a))
	return st, g, a
}

func TestMigrateCommand(t *testing.T) {
	st, g, a := seed(t)

	out, err := run(t, st, "migrate", "--guest", g.ID.String(), "--auth", a.ID.String())
	require.NoError(t, err)
	assert.Contains(t, out, "1 tasks")

	out, err = run(t, st, "migrate", "--guest", g.ID.String(), "--auth", a.ID.String(), "--json")
	require.NoError(t, err)
	var report migration.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.AlreadyMigrated)
}

func TestMigrateCommand_Errors(t *testing.T) {
	st, g, _ := seed(t)

	_, err := run(t, st, "migrate", "--guest", "nope", "--auth", uuid.NewString())
	assert.ErrorContains(t, err, "invalid --guest")

	_, err = run(t, st, "migrate", "--guest", g.ID.String(), "--auth", uuid.NewString())
	assert.ErrorIs(t, err, migration.ErrIdentityNotFound)

	_, err = run(t, st, "migrate", "--guest", g.ID.String())
	assert.Error(t, err, "--auth is required")
}

func TestShowCommand(t *testing.T) {
	st, g, a := seed(t)
	_, err := run(t, st, "migrate", "--guest", g.ID.String(), "--auth", a.ID.String())
	require.NoError(t, err)

	out, err := run(t, st, "show", "--id", g.ID.String())
	require.NoError(t, err)
	assert.Contains(t, out, "Guest_0001 (Upgraded)")
	assert.Contains(t, out, "upgraded to "+a.ID.String())

	out, err = run(t, st, "show", "--id", a.ID.String())
	require.NoError(t, err)
	assert.Contains(t, out, "tasks: 1")

	_, err = run(t, st, "show", "--id", uuid.NewString())
	assert.ErrorIs(t, err, store.ErrNotFound)
}
