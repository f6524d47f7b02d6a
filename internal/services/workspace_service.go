package services

import (
	"context"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/auratask/internal/dto"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/models"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/store"
	"github.com/google/uuid"
)

// WorkspaceService is the read model a client loads after sign-in.
type WorkspaceService struct {
	store store.Store
}

func NewWorkspaceService(st store.Store) *WorkspaceService {
	return &WorkspaceService{store: st}
}

func (s *WorkspaceService) Load(ctx context.Context, userID uuid.UUID) (*dto.WorkspaceResponse, error) {
	groups, err := s.store.ListTaskGroups(ctx, userID, store.GroupFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	tasks, err := s.store.ListTasks(ctx, userID, store.TaskFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	resp := &dto.WorkspaceResponse{
		Groups:    make([]dto.TaskGroupResponse, 0, len(groups)),
		Ungrouped: []dto.TaskResponse{},
	}
	index := make(map[uuid.UUID]int, len(groups))
	for i, g := range groups {
		index[g.ID] = i
		resp.Groups = append(resp.Groups, dto.TaskGroupResponse{
			ID:          g.ID,
			Name:        g.Name,
			Emoji:       g.Emoji,
			Color:       g.Color,
			Description: g.Description,
			Tasks:       []dto.TaskResponse{},
		})
	}

	for i := range tasks {
		t := toTaskResponse(&tasks[i])
		if tasks[i].TaskGroupID != nil {
			if gi, ok := index[*tasks[i].TaskGroupID]; ok {
				resp.Groups[gi].Tasks = append(resp.Groups[gi].Tasks, t)
				continue
			}
		}
		resp.Ungrouped = append(resp.Ungrouped, t)
	}
	return resp, nil
}

func toTaskResponse(t *models.Task) dto.TaskResponse {
	subtasks := make([]dto.SubtaskResponse, 0, len(t.Subtasks))
	for _, s := range t.Subtasks {
		subtasks = append(subtasks, dto.SubtaskResponse{
			ID: s.ID, Title: s.Title, Completed: s.Completed, Position: s.Position,
		})
	}
	return dto.TaskResponse{
		ID:              t.ID,
		Title:           t.Title,
		Description:     t.Description,
		Status:          t.Status,
		Priority:        t.Priority,
		ImportanceScore: t.ImportanceScore,
		UrgencyScore:    t.UrgencyScore,
		DueDate:         t.DueDate,
		CompletedAt:     t.CompletedAt,
		AuraPoints:      t.AuraPoints,
		Subtasks:        subtasks,
	}
}
