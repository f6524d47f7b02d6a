package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TaskStatusTodo       = "TODO"
	TaskStatusInProgress = "IN_PROGRESS"
	TaskStatusCompleted  = "COMPLETED"
	TaskStatusCancelled  = "CANCELLED"

	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
	PriorityUrgent = "URGENT"
)

type TaskGroup struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Emoji       string    `gorm:"size:16;default:'📝'" json:"emoji"`
	Color       string    `gorm:"size:7;default:'#3b82f6'" json:"color"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	Position    int       `gorm:"not null;default:0" json:"position"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	User        User      `gorm:"foreignKey:UserID" json:"-"`
}

func (g *TaskGroup) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

type Task struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	TaskGroupID     *uuid.UUID `gorm:"type:uuid;index" json:"task_group_id,omitempty"`
	Title           string     `gorm:"size:200;not null" json:"title"`
	Description     *string    `gorm:"type:text" json:"description,omitempty"`
	Status          string     `gorm:"size:20;not null;default:'TODO'" json:"status"`
	Priority        string     `gorm:"size:20;not null;default:'MEDIUM'" json:"priority"`
	ImportanceScore *int       `json:"importance_score,omitempty"`
	UrgencyScore    *int       `json:"urgency_score,omitempty"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	AuraPoints      int        `gorm:"not null;default:0" json:"aura_points"`
	Position        int        `gorm:"not null;default:0" json:"position"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	Subtasks        []Subtask  `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"subtasks"`
	User            User       `gorm:"foreignKey:UserID" json:"-"`
	TaskGroup       *TaskGroup `gorm:"foreignKey:TaskGroupID;constraint:OnDelete:SET NULL" json:"-"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

type Subtask struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TaskID    uuid.UUID `gorm:"type:uuid;not null;index" json:"task_id"`
	Title     string    `gorm:"size:200;not null" json:"title"`
	Completed bool      `gorm:"not null;default:false" json:"completed"`
	Position  int       `gorm:"not null;default:0" json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Subtask) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
