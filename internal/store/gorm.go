package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/auratask/internal/models"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const readRetryMaxElapsed = 5 * time.Second

// GormStore implements Store on top of GORM (postgres in production, sqlite
// in development and tests).
type GormStore struct {
	db   *gorm.DB
	inTx bool
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.findUser(ctx, "id = ?", id)
}

func (s *GormStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, "email = ?", email)
}

func (s *GormStore) FindUserByGoogleSubject(ctx context.Context, subject string) (*models.User, error) {
	return s.findUser(ctx, "google_subject = ?", subject)
}

// FindUserForUpdate issues SELECT ... FOR UPDATE. Dialects without row locks
// (sqlite) drop the clause; there the single writer connection serialises
// transactions instead.
func (s *GormStore) FindUserForUpdate(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if !s.inTx {
		return s.FindUser(ctx, id)
	}
	var user models.User
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) findUser(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	err := s.withRetry(ctx, func() error {
		return s.db.WithContext(ctx).Where(query, arg).First(&user).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *GormStore) UpdateUser(ctx context.Context, id uuid.UUID, patch UserPatch) error {
	cols := patch.columns()
	if len(cols) == 0 {
		_, err := s.FindUser(ctx, id)
		return err
	}

	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(cols)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) ListTaskGroups(ctx context.Context, ownerID uuid.UUID, filter GroupFilter) ([]models.TaskGroup, error) {
	var groups []models.TaskGroup
	err := s.withRetry(ctx, func() error {
		q := s.db.WithContext(ctx).Where("user_id = ?", ownerID)
		if filter.Name != "" {
			q = q.Where("name = ?", filter.Name)
		}
		return q.Order("position ASC, created_at ASC").Find(&groups).Error
	})
	return groups, translate(err)
}

func (s *GormStore) CreateTaskGroup(ctx context.Context, group *models.TaskGroup) error {
	return translate(s.db.WithContext(ctx).Omit(clause.Associations).Create(group).Error)
}

func (s *GormStore) ListTasks(ctx context.Context, ownerID uuid.UUID, filter TaskFilter) ([]models.Task, error) {
	var tasks []models.Task
	err := s.withRetry(ctx, func() error {
		q := s.db.WithContext(ctx).
			Preload("Subtasks", func(db *gorm.DB) *gorm.DB {
				return db.Order("position ASC, created_at ASC")
			}).
			Where("user_id = ?", ownerID)
		switch {
		case filter.GroupID != nil:
			q = q.Where("task_group_id = ?", *filter.GroupID)
		case filter.Ungrouped:
			q = q.Where("task_group_id IS NULL")
		}
		return q.Order("position ASC, created_at ASC").Find(&tasks).Error
	})
	return tasks, translate(err)
}

func (s *GormStore) CreateTask(ctx context.Context, task *models.Task) error {
	return translate(s.db.WithContext(ctx).Omit(clause.Associations).Create(task).Error)
}

func (s *GormStore) CreateSubtask(ctx context.Context, subtask *models.Subtask) error {
	return translate(s.db.WithContext(ctx).Create(subtask).Error)
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx, inTx: true})
	})
}

// withRetry retries reads that fail on transient connection errors. Inside a
// transaction the connection itself is gone, so the error is returned as is.
func (s *GormStore) withRetry(ctx context.Context, op func() error) error {
	if s.inTx {
		return op()
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = readRetryMaxElapsed
	return backoff.Retry(func() error {
		err := op()
		if err != nil && isRetryableError(err) {
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}, backoff.WithContext(bo, ctx))
}

func isRetryableError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, transient := range []string{
		"bad connection",
		"broken pipe",
		"connection reset",
		"connection refused",
		"i/o timeout",
		"database is locked",
	} {
		if strings.Contains(msg, transient) {
			return true
		}
	}
	return false
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key") {
		return ErrDuplicate
	}
	return err
}
