package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/taskboard/taskboard-go/internal/model"
	"github.com/taskboard/taskboard-go/internal/repository"
)

func strPtr(s string) *string { return &s }

func newTestTaskService() *TaskService {
	return NewTaskService(repository.NewMemoryStore().Tasks())
}

func createTask(t *testing.T, svc *TaskService, userID, title string) *model.Task {
	t.Helper()
	task, err := svc.Create(context.Background(), CreateTaskInput{
		Title:   title,
		DueDate: "2025-01-01T00:00:00Z",
		UserID:  userID,
	})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	return task
}

func TestCreate_Defaults(t *testing.T) {
	svc := newTestTaskService()

	task, err := svc.Create(context.Background(), CreateTaskInput{
		Title:       "A",
		Description: strPtr(""),
		DueDate:     "2025-01-01",
		UserID:      "u1",
	})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	if task.ID == "" {
		t.Error("Create() should assign an ID")
	}
	if task.Status != model.StatusTodo {
		t.Errorf("Status = %q, want todo", task.Status)
	}
	if task.Description != nil {
		t.Errorf("Description = %q, want nil", *task.Description)
	}
	if task.UserID != "u1" {
		t.Errorf("UserID = %q, want u1", task.UserID)
	}
	want := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if task.DueDate == nil || !task.DueDate.Equal(want) {
		t.Errorf("DueDate = %v, want %v", task.DueDate, want)
	}
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name  string
		in    CreateTaskInput
		field string
	}{
		{name: "missing title", in: CreateTaskInput{DueDate: "2025-01-01", UserID: "u1"}, field: "title"},
		{name: "bad status", in: CreateTaskInput{Title: "A", Status: "blocked", DueDate: "2025-01-01", UserID: "u1"}, field: "status"},
		{name: "missing due date", in: CreateTaskInput{Title: "A", UserID: "u1"}, field: "dueDate"},
		{name: "bad due date", in: CreateTaskInput{Title: "A", DueDate: "tomorrow", UserID: "u1"}, field: "dueDate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestTaskService().Create(context.Background(), tt.in)

			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Fields[0].Field != tt.field {
				t.Errorf("field = %q, want %q", ve.Fields[0].Field, tt.field)
			}
		})
	}
}

func TestCreate_RequiresUser(t *testing.T) {
	_, err := newTestTaskService().Create(context.Background(), CreateTaskInput{Title: "A", DueDate: "2025-01-01"})
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestUpdate_Owner(t *testing.T) {
	svc := newTestTaskService()
	ctx := context.Background()
	task := createTask(t, svc, "u1", "A")

	updated, err := svc.Update(ctx, UpdateTaskInput{ID: task.ID, UserID: "u1", Status: strPtr("done")})
	if err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}
	if updated.Status != model.StatusDone {
		t.Errorf("Status = %q, want done", updated.Status)
	}
	if updated.Title != "A" {
		t.Errorf("Title = %q, want unchanged", updated.Title)
	}

	got, err := svc.Get(ctx, task.ID, "u1")
	if err != nil {
		t.Fatalf("Get() unexpected error: %v", err)
	}
	if got.Status != model.StatusDone {
		t.Errorf("Get() status = %q, want done", got.Status)
	}
}

func TestOwnership(t *testing.T) {
	svc := newTestTaskService()
	ctx := context.Background()
	task := createTask(t, svc, "u1", "A")

	if _, err := svc.Get(ctx, task.ID, "u2"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Get() error = %v, want ErrUnauthorized", err)
	}
	if _, err := svc.Update(ctx, UpdateTaskInput{ID: task.ID, UserID: "u2", Title: strPtr("x")}); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Update() error = %v, want ErrUnauthorized", err)
	}
	if err := svc.Delete(ctx, task.ID, "u2"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Delete() error = %v, want ErrUnauthorized", err)
	}

	got, err := svc.Get(ctx, task.ID, "u1")
	if err != nil {
		t.Fatalf("Get() unexpected error: %v", err)
	}
	if got.Title != "A" {
		t.Errorf("Title = %q, foreign update must not apply", got.Title)
	}
}

func TestNotFound(t *testing.T) {
	svc := newTestTaskService()
	ctx := context.Background()

	if _, err := svc.Get(ctx, "missing", "u1"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Get() error = %v, want ErrTaskNotFound", err)
	}
	if _, err := svc.Update(ctx, UpdateTaskInput{ID: "missing", UserID: "u1", Title: strPtr("x")}); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Update() error = %v, want ErrTaskNotFound", err)
	}
	if err := svc.Delete(ctx, "missing", "u1"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Delete() error = %v, want ErrTaskNotFound", err)
	}
}

func TestDelete_Twice(t *testing.T) {
	svc := newTestTaskService()
	ctx := context.Background()
	task := createTask(t, svc, "u1", "A")

	if err := svc.Delete(ctx, task.ID, "u1"); err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}
	if err := svc.Delete(ctx, task.ID, "u1"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("second Delete() error = %v, want ErrTaskNotFound", err)
	}
}

func TestUpdate_Validation(t *testing.T) {
	svc := newTestTaskService()
	ctx := context.Background()
	task := createTask(t, svc, "u1", "A")

	tests := []struct {
		name  string
		in    UpdateTaskInput
		field string
	}{
		{name: "empty patch", in: UpdateTaskInput{ID: task.ID, UserID: "u1"}, field: "body"},
		{name: "empty title", in: UpdateTaskInput{ID: task.ID, UserID: "u1", Title: strPtr("")}, field: "title"},
		{name: "bad status", in: UpdateTaskInput{ID: task.ID, UserID: "u1", Status: strPtr("later")}, field: "status"},
		{name: "bad due date", in: UpdateTaskInput{ID: task.ID, UserID: "u1", DueDate: strPtr("soon")}, field: "dueDate"},
		{name: "blank due date only", in: UpdateTaskInput{ID: task.ID, UserID: "u1", DueDate: strPtr(" ")}, field: "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Update(ctx, tt.in)

			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Fields[0].Field != tt.field {
				t.Errorf("field = %q, want %q", ve.Fields[0].Field, tt.field)
			}
		})
	}
}

func TestUpdate_ClearsDescription(t *testing.T) {
	svc := newTestTaskService()
	ctx := context.Background()

	task, err := svc.Create(ctx, CreateTaskInput{Title: "A", Description: strPtr("notes"), DueDate: "2025-01-01", UserID: "u1"})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	updated, err := svc.Update(ctx, UpdateTaskInput{ID: task.ID, UserID: "u1", Description: strPtr("")})
	if err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}
	if updated.Description != nil {
		t.Errorf("Description = %q, want nil", *updated.Description)
	}
}

// vanishingStore loses every task between the ownership check and the write.
type vanishingStore struct {
	*repository.MemoryTaskRepository
}

func (vanishingStore) Update(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error) {
	return nil, repository.ErrTaskNotFound
}

func TestUpdate_Failed(t *testing.T) {
	store := vanishingStore{repository.NewMemoryStore().Tasks()}
	svc := NewTaskService(store)
	task := createTask(t, svc, "u1", "A")

	_, err := svc.Update(context.Background(), UpdateTaskInput{ID: task.ID, UserID: "u1", Title: strPtr("B")})
	if !errors.Is(err, ErrUpdateFailed) {
		t.Errorf("expected ErrUpdateFailed, got %v", err)
	}
}

func TestList(t *testing.T) {
	svc := newTestTaskService()
	ctx := context.Background()

	first := createTask(t, svc, "u1", "first")
	second := createTask(t, svc, "u1", "second")
	createTask(t, svc, "u2", "foreign")

	if _, err := svc.Update(ctx, UpdateTaskInput{ID: first.ID, UserID: "u1", Status: strPtr("done")}); err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}

	all, err := svc.List(ctx, "u1", "")
	if err != nil {
		t.Fatalf("List() unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("List() returned %d tasks, want 2", len(all))
	}
	for _, task := range all {
		if task.UserID != "u1" {
			t.Errorf("List() leaked task of %q", task.UserID)
		}
	}

	done, err := svc.List(ctx, "u1", "done")
	if err != nil {
		t.Fatalf("List(done) unexpected error: %v", err)
	}
	if len(done) != 1 || done[0].ID != first.ID {
		t.Errorf("List(done) = %+v, want only %q", done, first.ID)
	}

	todo, err := svc.List(ctx, "u1", "todo")
	if err != nil {
		t.Fatalf("List(todo) unexpected error: %v", err)
	}
	if len(todo) != 1 || todo[0].ID != second.ID {
		t.Errorf("List(todo) = %+v, want only %q", todo, second.ID)
	}

	empty, err := svc.List(ctx, "nobody", "")
	if err != nil {
		t.Fatalf("List(nobody) unexpected error: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("List(nobody) = %#v, want empty non-nil slice", empty)
	}

	_, err = svc.List(ctx, "u1", "blocked")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("List(blocked) error = %v, want ValidationError", err)
	}
	if want := "must be one of: todo, in_progress, done"; ve.Fields[0].Message != want {
		t.Errorf("List(blocked) message = %q, want %q", ve.Fields[0].Message, want)
	}
	if _, err := svc.List(ctx, "", ""); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("List(\"\") error = %v, want ErrUnauthorized", err)
	}
}

func TestUpdate_BlankDueDateKeepsValue(t *testing.T) {
	svc := newTestTaskService()
	ctx := context.Background()
	task := createTask(t, svc, "u1", "A")

	updated, err := svc.Update(ctx, UpdateTaskInput{ID: task.ID, UserID: "u1", Title: strPtr("B"), DueDate: strPtr("")})
	if err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}
	if updated.DueDate == nil || !updated.DueDate.Equal(*task.DueDate) {
		t.Errorf("DueDate = %v, want unchanged %v", updated.DueDate, task.DueDate)
	}
}
