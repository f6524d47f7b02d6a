package services

import (
	"context"
	"testing"

	"github.com/ahmetcoskunkizilkaya/auratask/internal/models"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkspaceService_Load(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	user := &models.User{Email: "ws@example.com"}
	require.NoError(t, st.CreateUser(ctx, user))
	work := &models.TaskGroup{UserID: user.ID, Name: "Work"}
	require.NoError(t, st.CreateTaskGroup(ctx, work))

	filed := &models.Task{UserID: user.ID, TaskGroupID: &work.ID, Title: "Filed"}
	require.NoError(t, st.CreateTask(ctx, filed))
	require.NoError(t, st.CreateSubtask(ctx, &models.Subtask{TaskID: filed.ID, Title: "Step"}))
	require.NoError(t, st.CreateTask(ctx, &models.Task{UserID: user.ID, Title: "Loose"}))

	ws, err := NewWorkspaceService(st).Load(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, ws.Groups, 1)
	assert.Equal(t, "Work", ws.Groups[0].Name)
	require.Len(t, ws.Groups[0].Tasks, 1)
	assert.Equal(t, "Filed", ws.Groups[0].Tasks[0].Title)
	require.Len(t, ws.Groups[0].Tasks[0].Subtasks, 1)
	require.Len(t, ws.Ungrouped, 1)
	assert.Equal(t, "Loose", ws.Ungrouped[0].Title)
}

func TestWorkspaceService_Empty(t *testing.T) {
	st := store.NewMemoryStore()
	user := &models.User{Email: "empty@example.com"}
	require.NoError(t, st.CreateUser(context.Background(), user))

	ws, err := NewWorkspaceService(st).Load(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, ws.Groups)
	assert.NotNil(t, ws.Ungrouped)
}
