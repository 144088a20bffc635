package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskboard/taskboard-go/internal/model"
)

// MemoryStore keeps users and tasks in process memory. It backs the
// "memory" database driver and the service and handler tests.
type MemoryStore struct {
	mu    sync.Mutex
	users map[string]model.User
	tasks map[string]memoryTask
	seq   int64
	now   func() time.Time
}

// memoryTask remembers insertion order so equal timestamps still sort newest first.
type memoryTask struct {
	task model.Task
	seq  int64
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]model.User),
		tasks: make(map[string]memoryTask),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Users returns the user repository view of the store.
func (s *MemoryStore) Users() *MemoryUserRepository {
	return &MemoryUserRepository{store: s}
}

// Tasks returns the task repository view of the store.
func (s *MemoryStore) Tasks() *MemoryTaskRepository {
	return &MemoryTaskRepository{store: s}
}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// MemoryUserRepository is the in-memory counterpart of UserRepository.
type MemoryUserRepository struct {
	store *MemoryStore
}

// Create stores a new user with a generated ID. Emails are unique.
func (r *MemoryUserRepository) Create(ctx context.Context, email, passwordHash string) (*model.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return nil, ErrDuplicateEmail
		}
	}

	now := s.now()
	user := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users[user.ID] = user
	return &user, nil
}

// FindByEmail retrieves a user by their email address.
func (r *MemoryUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

// FindByID retrieves a user by their ID.
func (r *MemoryUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

// MemoryTaskRepository is the in-memory counterpart of TaskRepository.
type MemoryTaskRepository struct {
	store *MemoryStore
}

// Create stores a task with a generated ID and returns a copy of it.
func (r *MemoryTaskRepository) Create(ctx context.Context, task model.Task) (*model.Task, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	task.ID = uuid.NewString()
	task.CreatedAt = now
	task.UpdatedAt = now
	task = cloneTask(task)

	s.seq++
	s.tasks[task.ID] = memoryTask{task: task, seq: s.seq}

	out := cloneTask(task)
	return &out, nil
}

// Update applies a partial update and returns the stored record.
func (r *MemoryTaskRepository) Update(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error) {
	if patch.Empty() {
		return nil, ErrNothingToSave
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	mt, ok := s.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}

	patch.Apply(&mt.task)
	mt.task.UpdatedAt = s.now()
	s.tasks[id] = mt

	out := cloneTask(mt.task)
	return &out, nil
}

// Delete removes a task. It reports false when the ID is unknown.
func (r *MemoryTaskRepository) Delete(ctx context.Context, id string) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return false, nil
	}
	delete(s.tasks, id)
	return true, nil
}

// FindByID retrieves a task by its ID.
func (r *MemoryTaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	mt, ok := s.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	out := cloneTask(mt.task)
	return &out, nil
}

// FindByUserID retrieves all tasks of a user, newest first.
func (r *MemoryTaskRepository) FindByUserID(ctx context.Context, userID string) ([]model.Task, error) {
	return r.filter(func(t model.Task) bool { return t.UserID == userID }), nil
}

// FindByUserIDAndStatus retrieves a user's tasks in the given status, newest first.
func (r *MemoryTaskRepository) FindByUserIDAndStatus(ctx context.Context, userID string, status model.TaskStatus) ([]model.Task, error) {
	return r.filter(func(t model.Task) bool { return t.UserID == userID && t.Status == status }), nil
}

// filter returns matching tasks, newest created first.
func (r *MemoryTaskRepository) filter(match func(model.Task) bool) []model.Task {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []memoryTask
	for _, mt := range s.tasks {
		if match(mt.task) {
			matched = append(matched, mt)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.task.CreatedAt.Equal(b.task.CreatedAt) {
			return a.task.CreatedAt.After(b.task.CreatedAt)
		}
		return a.seq > b.seq
	})

	tasks := make([]model.Task, len(matched))
	for i, mt := range matched {
		tasks[i] = cloneTask(mt.task)
	}
	return tasks
}

// cloneTask copies the pointer fields so callers cannot mutate stored state.
func cloneTask(t model.Task) model.Task {
	if t.Description != nil {
		d := *t.Description
		t.Description = &d
	}
	if t.DueDate != nil {
		due := t.DueDate.UTC()
		t.DueDate = &due
	}
	return t
}
