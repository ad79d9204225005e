package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/taskline/taskline-go/internal/model"
)

var ErrTaskNotFound = errors.New("task not found")

// TaskRepository handles task persistence operations.
type TaskRepository struct {
	db *sql.DB
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a new task and sets the generated ID on the task struct.
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	query := `INSERT INTO tasks (user_id, title, description, due_date, status) VALUES (?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		task.UserID, task.Title, task.Description, task.DueDate, task.Status,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	task.ID = id
	return nil
}

// GetByID retrieves a task by its ID.
func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*model.Task, error) {
	query := `SELECT id, user_id, title, description, due_date, status, created_at, updated_at
		FROM tasks WHERE id = ?`

	task := &model.Task{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&task.ID, &task.UserID, &task.Title, &task.Description,
		&task.DueDate, &task.Status, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	return task, nil
}

// List retrieves a slice of tasks in insertion order. Reads are not scoped to
// an owner. An offset past the end yields an empty slice.
func (r *TaskRepository) List(ctx context.Context, limit, offset int) ([]model.Task, error) {
	query := `SELECT id, user_id, title, description, due_date, status, created_at, updated_at
		FROM tasks ORDER BY id ASC LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(
			&t.ID, &t.UserID, &t.Title, &t.Description,
			&t.DueDate, &t.Status, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}

	return tasks, rows.Err()
}

// Count returns the total number of tasks.
func (r *TaskRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&n)
	return n, err
}

// Update writes the mutable columns of a task. The owner column is immutable
// and never part of the statement. Concurrent updates are last-write-wins.
func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	query := `UPDATE tasks SET title = ?, description = ?, due_date = ?, status = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		task.Title, task.Description, task.DueDate, task.Status, task.ID,
	)
	if err != nil {
		return err
	}

	// RowsAffected can legitimately be zero when nothing changed, so a
	// missing row is detected by the caller's prior read, not here.
	_, err = result.RowsAffected()
	return err
}

// Delete hard-deletes a task.
func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrTaskNotFound
	}

	return nil
}
