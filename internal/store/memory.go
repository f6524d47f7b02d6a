package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/auratask/internal/models"
	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and local tooling.
// Transactions run against a private copy that replaces the live data only
// when the callback succeeds; all access is serialised.
type MemoryStore struct {
	mu   sync.Mutex
	data *memData
}

type memData struct {
	users    map[uuid.UUID]models.User
	groups   map[uuid.UUID]models.TaskGroup
	tasks    map[uuid.UUID]models.Task
	subtasks map[uuid.UUID]models.Subtask
	// insertion sequence, breaks position ties the way created_at does in SQL
	seq   int64
	order map[uuid.UUID]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: &memData{
		users:    make(map[uuid.UUID]models.User),
		groups:   make(map[uuid.UUID]models.TaskGroup),
		tasks:    make(map[uuid.UUID]models.Task),
		subtasks: make(map[uuid.UUID]models.Subtask),
		order:    make(map[uuid.UUID]int64),
	}}
}

func (d *memData) clone() *memData {
	c := &memData{
		users:    make(map[uuid.UUID]models.User, len(d.users)),
		groups:   make(map[uuid.UUID]models.TaskGroup, len(d.groups)),
		tasks:    make(map[uuid.UUID]models.Task, len(d.tasks)),
		subtasks: make(map[uuid.UUID]models.Subtask, len(d.subtasks)),
		seq:      d.seq,
		order:    make(map[uuid.UUID]int64, len(d.order)),
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.groups {
		c.groups[k] = v
	}
	for k, v := range d.tasks {
		c.tasks[k] = v
	}
	for k, v := range d.subtasks {
		c.subtasks[k] = v
	}
	for k, v := range d.order {
		c.order[k] = v
	}
	return c
}

func (d *memData) track(id uuid.UUID) {
	d.seq++
	d.order[id] = d.seq
}

func (m *MemoryStore) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.data.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(u), nil
}

// FindUserForUpdate needs no extra locking: transactions already hold the
// store lock for their whole callback.
func (m *MemoryStore) FindUserForUpdate(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return m.FindUser(ctx, id)
}

// copyUser detaches the pointer fields of a stored user so callers cannot
// write through them into the store.
func copyUser(u models.User) *models.User {
	if u.GoogleSubject != nil {
		v := *u.GoogleSubject
		u.GoogleSubject = &v
	}
	if u.Avatar != nil {
		v := *u.Avatar
		u.Avatar = &v
	}
	if u.GuestUpgradedAt != nil {
		v := *u.GuestUpgradedAt
		u.GuestUpgradedAt = &v
	}
	if u.GuestUpgradedToID != nil {
		v := *u.GuestUpgradedToID
		u.GuestUpgradedToID = &v
	}
	return &u
}

func (m *MemoryStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.data.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) FindUserByGoogleSubject(ctx context.Context, subject string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.data.users {
		if u.GoogleSubject != nil && *u.GoogleSubject == subject {
			return copyUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if _, exists := m.data.users[user.ID]; exists {
		return ErrDuplicate
	}
	for _, u := range m.data.users {
		if u.Email == user.Email {
			return ErrDuplicate
		}
		if user.GoogleSubject != nil && u.GoogleSubject != nil && *u.GoogleSubject == *user.GoogleSubject {
			return ErrDuplicate
		}
	}

	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	if user.Theme == "" {
		user.Theme = models.DefaultTheme
	}
	if user.Role == "" {
		user.Role = "user"
	}
	m.data.users[user.ID] = *copyUser(*user)
	m.data.track(user.ID)
	return nil
}

func (m *MemoryStore) UpdateUser(ctx context.Context, id uuid.UUID, patch UserPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.data.users[id]
	if !ok {
		return ErrNotFound
	}
	if patch.Email != nil {
		for otherID, other := range m.data.users {
			if otherID != id && other.Email == *patch.Email {
				return ErrDuplicate
			}
		}
	}
	patch.apply(&u)
	u.UpdatedAt = time.Now().UTC()
	m.data.users[id] = u
	return nil
}

func (m *MemoryStore) ListTaskGroups(ctx context.Context, ownerID uuid.UUID, filter GroupFilter) ([]models.TaskGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var groups []models.TaskGroup
	for _, g := range m.data.groups {
		if g.UserID != ownerID {
			continue
		}
		if filter.Name != "" && g.Name != filter.Name {
			continue
		}
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Position != groups[j].Position {
			return groups[i].Position < groups[j].Position
		}
		return m.data.order[groups[i].ID] < m.data.order[groups[j].ID]
	})
	return groups, nil
}

func (m *MemoryStore) CreateTaskGroup(ctx context.Context, group *models.TaskGroup) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.data.users[group.UserID]; !ok {
		return ErrNotFound
	}
	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}
	if _, exists := m.data.groups[group.ID]; exists {
		return ErrDuplicate
	}
	now := time.Now().UTC()
	group.CreatedAt, group.UpdatedAt = now, now
	m.data.groups[group.ID] = *group
	m.data.track(group.ID)
	return nil
}

func (m *MemoryStore) ListTasks(ctx context.Context, ownerID uuid.UUID, filter TaskFilter) ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var tasks []models.Task
	for _, t := range m.data.tasks {
		if t.UserID != ownerID {
			continue
		}
		switch {
		case filter.GroupID != nil:
			if t.TaskGroupID == nil || *t.TaskGroupID != *filter.GroupID {
				continue
			}
		case filter.Ungrouped:
			if t.TaskGroupID != nil {
				continue
			}
		}
		t.Subtasks = m.subtasksOf(t.ID)
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].Position != tasks[j].Position {
			return tasks[i].Position < tasks[j].Position
		}
		return m.data.order[tasks[i].ID] < m.data.order[tasks[j].ID]
	})
	return tasks, nil
}

func (m *MemoryStore) subtasksOf(taskID uuid.UUID) []models.Subtask {
	subtasks := []models.Subtask{}
	for _, s := range m.data.subtasks {
		if s.TaskID == taskID {
			subtasks = append(subtasks, s)
		}
	}
	sort.Slice(subtasks, func(i, j int) bool {
		if subtasks[i].Position != subtasks[j].Position {
			return subtasks[i].Position < subtasks[j].Position
		}
		return m.data.order[subtasks[i].ID] < m.data.order[subtasks[j].ID]
	})
	return subtasks
}

func (m *MemoryStore) CreateTask(ctx context.Context, task *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.data.users[task.UserID]; !ok {
		return ErrNotFound
	}
	if task.TaskGroupID != nil {
		if _, ok := m.data.groups[*task.TaskGroupID]; !ok {
			return ErrNotFound
		}
	}
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	if _, exists := m.data.tasks[task.ID]; exists {
		return ErrDuplicate
	}
	if task.Status == "" {
		task.Status = models.TaskStatusTodo
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	now := time.Now().UTC()
	task.CreatedAt, task.UpdatedAt = now, now

	stored := *task
	stored.Subtasks = nil
	m.data.tasks[task.ID] = stored
	m.data.track(task.ID)
	return nil
}

func (m *MemoryStore) CreateSubtask(ctx context.Context, subtask *models.Subtask) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.data.tasks[subtask.TaskID]; !ok {
		return ErrNotFound
	}
	if subtask.ID == uuid.Nil {
		subtask.ID = uuid.New()
	}
	if _, exists := m.data.subtasks[subtask.ID]; exists {
		return ErrDuplicate
	}
	now := time.Now().UTC()
	subtask.CreatedAt, subtask.UpdatedAt = now, now
	m.data.subtasks[subtask.ID] = *subtask
	m.data.track(subtask.ID)
	return nil
}

// Transaction holds the store lock for the whole callback, so fn must only
// use the tx it is given.
func (m *MemoryStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &MemoryStore{data: m.data.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	m.data = tx.data
	return nil
}
