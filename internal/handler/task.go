package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/taskline/taskline-go/internal/middleware"
	"github.com/taskline/taskline-go/internal/model"
	"github.com/taskline/taskline-go/internal/service"
)

// TaskHandler handles HTTP requests for task operations.
type TaskHandler struct {
	service *service.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(svc *service.TaskService) *TaskHandler {
	return &TaskHandler{service: svc}
}

// HandleListTasks handles GET /api/tasks requests. The page is taken from the
// "page" query parameter, defaulting to 1.
func (h *TaskHandler) HandleListTasks(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			page = n
		}
	}

	resp, err := h.service.List(r.Context(), page)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleCreateTask handles POST /api/tasks requests. The authenticated user
// becomes the owner of the new task.
func (h *TaskHandler) HandleCreateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("Unauthenticated."))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB

	var req model.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return
	}

	resp, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		var ve *model.ValidationError
		if errors.As(err, &ve) {
			writeValidationError(w, ve)
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// HandleGetTask handles GET /api/tasks/{id} requests. Reads are not gated by
// ownership.
func (h *TaskHandler) HandleGetTask(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse("Task not found."))
		return
	}

	resp, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse("Task not found."))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleUpdateTask handles PUT /api/tasks/{id} requests. Only the owner may
// update; the ownership check runs before field validation.
func (h *TaskHandler) HandleUpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("Unauthenticated."))
		return
	}

	id, err := taskID(r)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse("Task not found."))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB

	var req model.UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return
	}

	resp, err := h.service.Update(r.Context(), userID, id, req)
	if err != nil {
		var ve *model.ValidationError
		switch {
		case errors.Is(err, service.ErrTaskNotFound):
			writeJSON(w, http.StatusNotFound, errorResponse("Task not found."))
		case errors.Is(err, service.ErrForbidden):
			writeJSON(w, http.StatusForbidden, errorResponse("This action is unauthorized."))
		case errors.As(err, &ve):
			writeValidationError(w, ve)
		default:
			writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleDeleteTask handles DELETE /api/tasks/{id} requests. Only the owner
// may delete; deletion is permanent.
func (h *TaskHandler) HandleDeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("Unauthenticated."))
		return
	}

	id, err := taskID(r)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse("Task not found."))
		return
	}

	err = h.service.Delete(r.Context(), userID, id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTaskNotFound):
			writeJSON(w, http.StatusNotFound, errorResponse("Task not found."))
		case errors.Is(err, service.ErrForbidden):
			writeJSON(w, http.StatusForbidden, errorResponse("This action is unauthorized."))
		default:
			writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// taskID parses the {id} URL parameter.
func taskID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
