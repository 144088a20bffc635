package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/taskboard/taskboard-go/internal/model"
	"github.com/taskboard/taskboard-go/internal/repository"
)

// TaskStore is the task store the task service depends on.
type TaskStore interface {
	Create(ctx context.Context, task model.Task) (*model.Task, error)
	Update(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error)
	Delete(ctx context.Context, id string) (bool, error)
	FindByID(ctx context.Context, id string) (*model.Task, error)
	FindByUserID(ctx context.Context, userID string) ([]model.Task, error)
	FindByUserIDAndStatus(ctx context.Context, userID string, status model.TaskStatus) ([]model.Task, error)
}

// CreateTaskInput is the payload of a task creation.
type CreateTaskInput struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Description *string `json:"description"`
	Status      string  `json:"status" validate:"omitempty,oneof=todo in_progress done"`
	DueDate     string  `json:"dueDate" validate:"required"`
	UserID      string  `json:"-"`
}

// UpdateTaskInput is a partial update. Nil fields are left unchanged, as is
// an empty due date.
type UpdateTaskInput struct {
	ID          string  `json:"-"`
	UserID      string  `json:"-"`
	Title       *string `json:"title" validate:"omitnil,min=1,max=255"`
	Description *string `json:"description"`
	Status      *string `json:"status" validate:"omitnil,oneof=todo in_progress done"`
	DueDate     *string `json:"dueDate"`
}

// TaskService handles task business logic. Every operation on an existing
// task checks that the caller owns it.
type TaskService struct {
	tasks TaskStore
}

// NewTaskService creates a new TaskService.
func NewTaskService(tasks TaskStore) *TaskService {
	return &TaskService{tasks: tasks}
}

// Create stores a new task for the caller. Status defaults to todo.
func (s *TaskService) Create(ctx context.Context, in CreateTaskInput) (*model.Task, error) {
	if in.UserID == "" {
		return nil, ErrUnauthorized
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	due, err := parseDueDate(in.DueDate)
	if err != nil {
		return nil, err
	}

	status := model.StatusTodo
	if in.Status != "" {
		status = model.TaskStatus(in.Status)
	}

	var description *string
	if in.Description != nil {
		description = model.NullableString(*in.Description)
	}

	task, err := s.tasks.Create(ctx, model.Task{
		Title:       in.Title,
		Description: description,
		Status:      status,
		DueDate:     &due,
		UserID:      in.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}
	return task, nil
}

// Get returns a task owned by userID.
func (s *TaskService) Get(ctx context.Context, id, userID string) (*model.Task, error) {
	return s.ownedTask(ctx, id, userID)
}

// List returns the caller's tasks, newest first, optionally filtered by status.
func (s *TaskService) List(ctx context.Context, userID, status string) ([]model.Task, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}

	var (
		tasks []model.Task
		err   error
	)
	if status != "" {
		st := model.TaskStatus(status)
		if !st.Valid() {
			return nil, fieldError("status", "must be one of: "+statusList())
		}
		tasks, err = s.tasks.FindByUserIDAndStatus(ctx, userID, st)
	} else {
		tasks, err = s.tasks.FindByUserID(ctx, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

// Update applies a partial update to a task owned by the caller.
func (s *TaskService) Update(ctx context.Context, in UpdateTaskInput) (*model.Task, error) {
	patch, err := buildPatch(in)
	if err != nil {
		return nil, err
	}

	if _, err := s.ownedTask(ctx, in.ID, in.UserID); err != nil {
		return nil, err
	}

	task, err := s.tasks.Update(ctx, in.ID, patch)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) || errors.Is(err, repository.ErrNothingToSave) {
			return nil, ErrUpdateFailed
		}
		return nil, fmt.Errorf("updating task: %w", err)
	}
	return task, nil
}

// buildPatch validates an update payload and converts it into a TaskPatch.
func buildPatch(in UpdateTaskInput) (model.TaskPatch, error) {
	if err := validateInput(in); err != nil {
		return model.TaskPatch{}, err
	}

	patch := model.TaskPatch{
		Title:       in.Title,
		Description: in.Description,
	}
	if in.Status != nil {
		st := model.TaskStatus(*in.Status)
		patch.Status = &st
	}
	if in.DueDate != nil && strings.TrimSpace(*in.DueDate) != "" {
		due, err := parseDueDate(*in.DueDate)
		if err != nil {
			return model.TaskPatch{}, err
		}
		patch.DueDate = &due
	}

	if patch.Empty() {
		return model.TaskPatch{}, fieldError("body", "at least one field must be provided")
	}
	return patch, nil
}

// Delete removes a task owned by the caller. Deleting twice reports ErrTaskNotFound.
func (s *TaskService) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.ownedTask(ctx, id, userID); err != nil {
		return err
	}

	deleted, err := s.tasks.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	if !deleted {
		return ErrTaskNotFound
	}
	return nil
}

// ownedTask fetches a task and checks its owner. A mismatch is reported as
// ErrUnauthorized rather than ErrTaskNotFound.
func (s *TaskService) ownedTask(ctx context.Context, id, userID string) (*model.Task, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("finding task: %w", err)
	}

	if task.UserID != userID {
		return nil, ErrUnauthorized
	}
	return task, nil
}

func statusList() string {
	names := make([]string, len(model.TaskStatuses))
	for i, st := range model.TaskStatuses {
		names[i] = string(st)
	}
	return strings.Join(names, ", ")
}
