package service

import (
	"context"
	"errors"
	"time"

	"github.com/taskline/taskline-go/internal/model"
	"github.com/taskline/taskline-go/internal/repository"
)

var (
	ErrTaskNotFound = errors.New("task not found")

	// ErrForbidden means the caller is authenticated but does not own the
	// task. Distinct from not-found on purpose.
	ErrForbidden = errors.New("not the owner of this task")
)

// PageSize is the fixed number of tasks per list page.
const PageSize = 9

const maxTitleLength = 255

// createStatuses are the statuses a task may be created with. "in progress"
// is only reachable through update.
var createStatuses = map[string]bool{
	model.StatusPending:   true,
	model.StatusCompleted: true,
}

// updateStatuses are the statuses an update may set. Any status may move to
// any other; there is no transition graph.
var updateStatuses = map[string]bool{
	model.StatusPending:    true,
	model.StatusInProgress: true,
	model.StatusCompleted:  true,
}

// TaskService handles task business logic: validation, ownership checks and
// pagination on top of the repository.
type TaskService struct {
	repo *repository.TaskRepository
}

// NewTaskService creates a new TaskService.
func NewTaskService(repo *repository.TaskRepository) *TaskService {
	return &TaskService{repo: repo}
}

// canManage reports whether the user owns the task. Update and delete require
// it; reads and creates do not.
func canManage(userID int64, task *model.Task) bool {
	return task.UserID == userID
}

// List returns one fixed-size page of tasks in insertion order, visible to
// any authenticated user. Pages are 1-based; a page past the end yields empty
// data rather than an error.
func (s *TaskService) List(ctx context.Context, page int) (model.TaskPage, error) {
	if page < 1 {
		page = 1
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return model.TaskPage{}, err
	}

	tasks, err := s.repo.List(ctx, PageSize, (page-1)*PageSize)
	if err != nil {
		return model.TaskPage{}, err
	}

	lastPage := int((total + PageSize - 1) / PageSize)
	if lastPage < 1 {
		lastPage = 1
	}

	data := make([]model.TaskResponse, len(tasks))
	for i := range tasks {
		data[i] = model.TaskResponseFrom(&tasks[i])
	}

	return model.TaskPage{
		Data: data,
		Meta: model.PageMeta{
			CurrentPage: page,
			PerPage:     PageSize,
			Total:       total,
			LastPage:    lastPage,
		},
	}, nil
}

// Create validates and persists a new task owned by the calling user.
func (s *TaskService) Create(ctx context.Context, userID int64, req model.CreateTaskRequest) (model.TaskResponse, error) {
	ve := model.NewValidationError()

	if req.Title == "" {
		ve.Add("title", "The title field is required.")
	} else if len(req.Title) > maxTitleLength {
		ve.Add("title", "The title must not be greater than 255 characters.")
	}

	var dueDate time.Time
	if req.DueDate == "" {
		ve.Add("due_date", "The due date field is required.")
	} else {
		parsed, err := time.Parse(model.DueDateFormat, req.DueDate)
		if err != nil {
			ve.Add("due_date", "The due date is not a valid date.")
		} else {
			dueDate = parsed
		}
	}

	if req.Status == "" {
		ve.Add("status", "The status field is required.")
	} else if !createStatuses[req.Status] {
		ve.Add("status", "The selected status is invalid.")
	}

	if ve.HasErrors() {
		return model.TaskResponse{}, ve
	}

	task := &model.Task{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     dueDate,
		Status:      req.Status,
	}

	if err := s.repo.Create(ctx, task); err != nil {
		return model.TaskResponse{}, err
	}

	return model.TaskResponseFrom(task), nil
}

// Get retrieves a single task. Any authenticated user may read any task.
func (s *TaskService) Get(ctx context.Context, id int64) (model.TaskResponse, error) {
	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return model.TaskResponse{}, ErrTaskNotFound
		}
		return model.TaskResponse{}, err
	}

	return model.TaskResponseFrom(task), nil
}

// Update applies a partial update to a task. The ownership check runs before
// field validation, so a non-owner always sees ErrForbidden regardless of the
// payload. Unsupplied fields are left untouched; description may be cleared
// with an explicit null.
func (s *TaskService) Update(ctx context.Context, userID, id int64, req model.UpdateTaskRequest) (model.TaskResponse, error) {
	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return model.TaskResponse{}, ErrTaskNotFound
		}
		return model.TaskResponse{}, err
	}

	if !canManage(userID, task) {
		return model.TaskResponse{}, ErrForbidden
	}

	ve := model.NewValidationError()

	if req.HasTitle {
		switch {
		case req.Title == nil || *req.Title == "":
			ve.Add("title", "The title field is required.")
		case len(*req.Title) > maxTitleLength:
			ve.Add("title", "The title must not be greater than 255 characters.")
		}
	}

	var dueDate time.Time
	if req.HasDueDate {
		if req.DueDate == nil {
			ve.Add("due_date", "The due date is not a valid date.")
		} else if parsed, err := time.Parse(model.DueDateFormat, *req.DueDate); err != nil {
			ve.Add("due_date", "The due date is not a valid date.")
		} else {
			dueDate = parsed
		}
	}

	if req.HasStatus {
		if req.Status == nil || !updateStatuses[*req.Status] {
			ve.Add("status", "The selected status is invalid.")
		}
	}

	if ve.HasErrors() {
		return model.TaskResponse{}, ve
	}

	if req.HasTitle {
		task.Title = *req.Title
	}
	if req.HasDescription {
		task.Description = req.Description
	}
	if req.HasDueDate {
		task.DueDate = dueDate
	}
	if req.HasStatus {
		task.Status = *req.Status
	}

	if err := s.repo.Update(ctx, task); err != nil {
		return model.TaskResponse{}, err
	}

	return model.TaskResponseFrom(task), nil
}

// Delete hard-deletes a task after the ownership check.
func (s *TaskService) Delete(ctx context.Context, userID, id int64) error {
	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return ErrTaskNotFound
		}
		return err
	}

	if !canManage(userID, task) {
		return ErrForbidden
	}

	err = s.repo.Delete(ctx, task.ID)
	if errors.Is(err, repository.ErrTaskNotFound) {
		// Raced with a concurrent delete; the task is gone either way.
		return ErrTaskNotFound
	}
	return err
}
