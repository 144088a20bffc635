package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskboard/taskboard-go/internal/model"
)

var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrNothingToSave = errors.New("no fields to update")
)

// TaskRepository handles task persistence operations.
type TaskRepository struct {
	db *DB
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id, title, description, status, due_date, user_id, created_at, updated_at`

// Create inserts a task with a generated ID and returns the stored record.
func (r *TaskRepository) Create(ctx context.Context, task model.Task) (*model.Task, error) {
	now := time.Now().UTC()
	task.ID = uuid.NewString()
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.DueDate != nil {
		due := task.DueDate.UTC()
		task.DueDate = &due
	}

	query := r.db.rebind(`INSERT INTO tasks (` + taskColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.sql.ExecContext(ctx, query,
		task.ID, task.Title, task.Description, string(task.Status), task.DueDate,
		task.UserID, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &task, nil
}

// Update applies a partial update and returns the stored record.
// ErrTaskNotFound means no row matched the ID.
func (r *TaskRepository) Update(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error) {
	set, args := buildTaskUpdate(patch, time.Now().UTC())
	if set == "" {
		return nil, ErrNothingToSave
	}
	args = append(args, id)

	query := r.db.rebind(`UPDATE tasks SET ` + set + ` WHERE id = ?`)
	result, err := r.db.sql.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, ErrTaskNotFound
	}

	return r.FindByID(ctx, id)
}

// buildTaskUpdate renders the SET clause for the non-nil fields of patch.
// The clause is empty when nothing would change.
func buildTaskUpdate(patch model.TaskPatch, now time.Time) (string, []any) {
	if patch.Empty() {
		return "", nil
	}

	var (
		cols []string
		args []any
	)
	if patch.Title != nil {
		cols = append(cols, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Description != nil {
		cols = append(cols, "description = ?")
		args = append(args, model.NullableString(*patch.Description))
	}
	if patch.Status != nil {
		cols = append(cols, "status = ?")
		args = append(args, string(*patch.Status))
	}
	if patch.DueDate != nil {
		cols = append(cols, "due_date = ?")
		args = append(args, patch.DueDate.UTC())
	}
	cols = append(cols, "updated_at = ?")
	args = append(args, now)

	return strings.Join(cols, ", "), args
}

// Delete removes a task. It reports false when no row matched.
func (r *TaskRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.sql.ExecContext(ctx, r.db.rebind(`DELETE FROM tasks WHERE id = ?`), id)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}

// FindByID retrieves a task by its ID.
func (r *TaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	query := r.db.rebind(`SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`)

	task, err := scanTask(r.db.sql.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return task, nil
}

// FindByUserID retrieves all tasks of a user, newest first.
func (r *TaskRepository) FindByUserID(ctx context.Context, userID string) ([]model.Task, error) {
	query := r.db.rebind(`SELECT ` + taskColumns + ` FROM tasks
		WHERE user_id = ? ORDER BY created_at DESC`)
	return r.list(ctx, query, userID)
}

// FindByUserIDAndStatus retrieves a user's tasks in the given status, newest first.
func (r *TaskRepository) FindByUserIDAndStatus(ctx context.Context, userID string, status model.TaskStatus) ([]model.Task, error) {
	query := r.db.rebind(`SELECT ` + taskColumns + ` FROM tasks
		WHERE user_id = ? AND status = ? ORDER BY created_at DESC`)
	return r.list(ctx, query, userID, string(status))
}

func (r *TaskRepository) list(ctx context.Context, query string, args ...any) ([]model.Task, error) {
	rows, err := r.db.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}

	return tasks, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*model.Task, error) {
	var (
		t           model.Task
		status      string
		description sql.NullString
		dueDate     sql.NullTime
	)
	if err := row.Scan(
		&t.ID, &t.Title, &description, &status, &dueDate,
		&t.UserID, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}

	t.Status = model.TaskStatus(status)
	if description.Valid {
		t.Description = &description.String
	}
	if dueDate.Valid {
		due := dueDate.Time.UTC()
		t.DueDate = &due
	}
	return &t, nil
}
