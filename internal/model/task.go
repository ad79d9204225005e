package model

import (
	"encoding/json"
	"time"
)

// Task statuses. Creation only accepts pending and completed; "in progress"
// is reachable through update. There is no transition graph beyond that —
// any status may move to any other.
const (
	StatusPending    = "pending"
	StatusInProgress = "in progress"
	StatusCompleted  = "completed"
)

// DueDateFormat is the wire format for task due dates.
const DueDateFormat = "2006-01-02"

// Task represents a task in the database. Description is nullable.
type Task struct {
	ID          int64
	UserID      int64
	Title       string
	Description *string
	DueDate     time.Time
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateTaskRequest represents a task creation request.
type CreateTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	DueDate     string  `json:"due_date"`
	Status      string  `json:"status"`
}

// UpdateTaskRequest represents a partial task update. Only fields present in
// the request body are applied; description may be set to JSON null to clear
// it, so presence is tracked separately from the pointer values.
type UpdateTaskRequest struct {
	Title       *string
	Description *string
	DueDate     *string
	Status      *string

	HasTitle       bool
	HasDescription bool
	HasDueDate     bool
	HasStatus      bool
}

// UnmarshalJSON records which keys were supplied so that an explicit null can
// be distinguished from an absent field.
func (r *UpdateTaskRequest) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if v, ok := raw["title"]; ok {
		r.HasTitle = true
		if err := json.Unmarshal(v, &r.Title); err != nil {
			return err
		}
	}
	if v, ok := raw["description"]; ok {
		r.HasDescription = true
		if err := json.Unmarshal(v, &r.Description); err != nil {
			return err
		}
	}
	if v, ok := raw["due_date"]; ok {
		r.HasDueDate = true
		if err := json.Unmarshal(v, &r.DueDate); err != nil {
			return err
		}
	}
	if v, ok := raw["status"]; ok {
		r.HasStatus = true
		if err := json.Unmarshal(v, &r.Status); err != nil {
			return err
		}
	}

	return nil
}

// TaskResponse represents a task in API responses.
type TaskResponse struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	DueDate     string  `json:"due_date"`
	Status      string  `json:"status"`
	UserID      int64   `json:"user_id"`
}

// TaskResponseFrom converts a Task to its API representation.
func TaskResponseFrom(t *Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate.Format(DueDateFormat),
		Status:      t.Status,
		UserID:      t.UserID,
	}
}

// TaskPage is a page of tasks with pagination metadata.
type TaskPage struct {
	Data []TaskResponse `json:"data"`
	Meta PageMeta       `json:"meta"`
}

// PageMeta describes the pagination state of a TaskPage.
type PageMeta struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	LastPage    int   `json:"last_page"`
}
