package dto

import (
	"time"

	"github.com/google/uuid"
)

type SubtaskResponse struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	Position  int       `json:"position"`
}

type TaskResponse struct {
	ID              uuid.UUID         `json:"id"`
	Title           string            `json:"title"`
	Description     *string           `json:"description,omitempty"`
	Status          string            `json:"status"`
	Priority        string            `json:"priority"`
	ImportanceScore *int              `json:"importance_score,omitempty"`
	UrgencyScore    *int              `json:"urgency_score,omitempty"`
	DueDate         *time.Time        `json:"due_date,omitempty"`
	CompletedAt     *time.Time        `json:"completed_at,omitempty"`
	AuraPoints      int               `json:"aura_points"`
	Subtasks        []SubtaskResponse `json:"subtasks"`
}

type TaskGroupResponse struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	Emoji       string         `json:"emoji"`
	Color       string         `json:"color"`
	Description *string        `json:"description,omitempty"`
	Tasks       []TaskResponse `json:"tasks"`
}

// WorkspaceResponse is everything the caller owns: groups with their tasks,
// plus tasks not filed under any group.
type WorkspaceResponse struct {
	Groups    []TaskGroupResponse `json:"groups"`
	Ungrouped []TaskResponse      `json:"ungrouped"`
}
