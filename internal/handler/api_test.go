package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/taskline/taskline-go/internal/middleware"
	"github.com/taskline/taskline-go/internal/repository"
	"github.com/taskline/taskline-go/internal/service"
	"github.com/taskline/taskline-go/internal/testutil"
)

// newTestServer wires the full API against an in-memory database, mirroring
// the router in cmd/api.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	db := testutil.NewDB(t)

	authService := service.NewAuthService(repository.NewUserRepository(db), repository.NewTokenRepository(db))
	taskService := service.NewTaskService(repository.NewTaskRepository(db))

	authHandler := NewAuthHandler(authService)
	taskHandler := NewTaskHandler(taskService)

	r := chi.NewRouter()
	r.Post("/api/register", authHandler.HandleRegister)
	r.Post("/api/login", authHandler.HandleLogin)
	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(authService))
		r.Post("/api/logout", authHandler.HandleLogout)
		r.Get("/api/tasks", taskHandler.HandleListTasks)
		r.Post("/api/tasks", taskHandler.HandleCreateTask)
		r.Get("/api/tasks/{id}", taskHandler.HandleGetTask)
		r.Put("/api/tasks/{id}", taskHandler.HandleUpdateTask)
		r.Delete("/api/tasks/{id}", taskHandler.HandleDeleteTask)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doRequest(t *testing.T, srv *httptest.Server, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request body: %v", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, srv.URL+path, reader)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
	return body
}

func registerUser(t *testing.T, srv *httptest.Server, name, email string) string {
	t.Helper()

	resp := doRequest(t, srv, http.MethodPost, "/api/register", "", map[string]string{
		"name": name, "email": email, "password": "secret123",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register %s: status %d", email, resp.StatusCode)
	}

	token, _ := decodeBody(t, resp)["token"].(string)
	if token == "" {
		t.Fatalf("register %s: empty token", email)
	}
	return token
}

func TestRegisterAndLogin(t *testing.T) {
	srv := newTestServer(t)

	token := registerUser(t, srv, "Alice", "alice@example.com")

	resp := doRequest(t, srv, http.MethodPost, "/api/login", "", map[string]string{
		"email": "alice@example.com", "password": "secret123",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want 200", resp.StatusCode)
	}
	loginToken, _ := decodeBody(t, resp)["token"].(string)
	if loginToken == "" || loginToken == token {
		t.Errorf("login token = %q, want a fresh non-empty token", loginToken)
	}
}

func TestRegisterValidationResponse(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, srv, http.MethodPost, "/api/register", "", map[string]string{
		"email": "not-an-email", "password": "123",
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("register status = %d, want 422", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	errs, _ := body["errors"].(map[string]any)
	for _, field := range []string{"name", "email", "password"} {
		if errs[field] == nil {
			t.Errorf("register 422 missing %q in errors: %v", field, errs)
		}
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	srv := newTestServer(t)

	registerUser(t, srv, "Alice", "alice@example.com")

	resp := doRequest(t, srv, http.MethodPost, "/api/register", "", map[string]string{
		"name": "Imposter", "email": "alice@example.com", "password": "hunter22",
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("duplicate register status = %d, want 422", resp.StatusCode)
	}

	errs, _ := decodeBody(t, resp)["errors"].(map[string]any)
	if errs["email"] == nil {
		t.Errorf("duplicate register missing email error: %v", errs)
	}
}

func TestLoginFailureBodiesIndistinguishable(t *testing.T) {
	srv := newTestServer(t)

	registerUser(t, srv, "Alice", "alice@example.com")

	readBody := func(email, password string) (int, string) {
		resp := doRequest(t, srv, http.MethodPost, "/api/login", "", map[string]string{
			"email": email, "password": password,
		})
		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("reading body: %v", err)
		}
		return resp.StatusCode, string(raw)
	}

	wrongStatus, wrongBody := readBody("alice@example.com", "wrong-password")
	unknownStatus, unknownBody := readBody("nobody@example.com", "secret123")

	if wrongStatus != http.StatusUnprocessableEntity || unknownStatus != http.StatusUnprocessableEntity {
		t.Fatalf("login failure statuses = %d, %d, want 422, 422", wrongStatus, unknownStatus)
	}
	if wrongBody != unknownBody {
		t.Errorf("login failure bodies differ:\n%s\n%s", wrongBody, unknownBody)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, srv, http.MethodGet, "/api/tasks", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated list status = %d, want 401", resp.StatusCode)
	}
	if msg := decodeBody(t, resp)["message"]; msg != "Unauthenticated." {
		t.Errorf("unauthenticated message = %v", msg)
	}

	resp = doRequest(t, srv, http.MethodGet, "/api/tasks", "bogus-token", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("invalid token status = %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestTaskLifecycle(t *testing.T) {
	srv := newTestServer(t)

	aliceToken := registerUser(t, srv, "Alice", "alice@example.com")
	bobToken := registerUser(t, srv, "Bob", "bob@example.com")

	// Alice creates a task.
	resp := doRequest(t, srv, http.MethodPost, "/api/tasks", aliceToken, map[string]any{
		"title": "Write spec", "due_date": "2026-01-01", "status": "pending",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}
	created := decodeBody(t, resp)
	if created["user_id"] != float64(1) {
		t.Errorf("create user_id = %v, want 1", created["user_id"])
	}
	if created["status"] != "pending" || created["due_date"] != "2026-01-01" {
		t.Errorf("create body = %v", created)
	}
	if created["description"] != nil {
		t.Errorf("create description = %v, want null", created["description"])
	}
	taskPath := fmt.Sprintf("/api/tasks/%v", created["id"])

	// Any authenticated user can read it.
	resp = doRequest(t, srv, http.MethodGet, taskPath, bobToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("cross-user get status = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()

	// Bob cannot update it.
	resp = doRequest(t, srv, http.MethodPut, taskPath, bobToken, map[string]any{"status": "completed"})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("cross-user update status = %d, want 403", resp.StatusCode)
	}
	resp.Body.Close()

	// Alice updates only the status; the title survives.
	resp = doRequest(t, srv, http.MethodPut, taskPath, aliceToken, map[string]any{"status": "completed"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("owner update status = %d, want 200", resp.StatusCode)
	}
	updated := decodeBody(t, resp)
	if updated["status"] != "completed" || updated["title"] != "Write spec" {
		t.Errorf("partial update body = %v", updated)
	}

	// Bob cannot delete it either.
	resp = doRequest(t, srv, http.MethodDelete, taskPath, bobToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("cross-user delete status = %d, want 403", resp.StatusCode)
	}
	resp.Body.Close()

	// Alice deletes it for good.
	resp = doRequest(t, srv, http.MethodDelete, taskPath, aliceToken, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("owner delete status = %d, want 204", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doRequest(t, srv, http.MethodGet, taskPath, aliceToken, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestCreateTaskRejectsInProgress(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "Alice", "alice@example.com")

	resp := doRequest(t, srv, http.MethodPost, "/api/tasks", token, map[string]any{
		"title": "Sneaky", "due_date": "2026-01-01", "status": "in progress",
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("create status = %d, want 422", resp.StatusCode)
	}

	errs, _ := decodeBody(t, resp)["errors"].(map[string]any)
	if errs["status"] == nil {
		t.Errorf("create 422 missing status error: %v", errs)
	}
}

func TestGetTaskInvalidID(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "Alice", "alice@example.com")

	resp := doRequest(t, srv, http.MethodGet, "/api/tasks/not-a-number", token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("non-numeric id status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLogoutRevokesEverySession(t *testing.T) {
	srv := newTestServer(t)

	first := registerUser(t, srv, "Alice", "alice@example.com")

	resp := doRequest(t, srv, http.MethodPost, "/api/login", "", map[string]string{
		"email": "alice@example.com", "password": "secret123",
	})
	second, _ := decodeBody(t, resp)["token"].(string)

	resp = doRequest(t, srv, http.MethodPost, "/api/logout", first, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout status = %d, want 200", resp.StatusCode)
	}
	if msg := decodeBody(t, resp)["message"]; msg != "User Logged out !" {
		t.Errorf("logout message = %v", msg)
	}

	// Both sessions are gone, not just the one that logged out.
	for _, token := range []string{first, second} {
		resp := doRequest(t, srv, http.MethodGet, "/api/tasks", token, nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("list after logout status = %d, want 401", resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestListTasksPaginated(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "Alice", "alice@example.com")

	for i := 1; i <= 10; i++ {
		resp := doRequest(t, srv, http.MethodPost, "/api/tasks", token, map[string]any{
			"title": fmt.Sprintf("task %d", i), "due_date": "2026-06-15", "status": "pending",
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create %d status = %d", i, resp.StatusCode)
		}
		resp.Body.Close()
	}

	resp := doRequest(t, srv, http.MethodGet, "/api/tasks?page=2", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d, want 200", resp.StatusCode)
	}
	body := decodeBody(t, resp)

	data, _ := body["data"].([]any)
	if len(data) != 1 {
		t.Errorf("page 2 = %d tasks, want 1", len(data))
	}

	meta, _ := body["meta"].(map[string]any)
	if meta["total"] != float64(10) || meta["per_page"] != float64(9) || meta["last_page"] != float64(2) {
		t.Errorf("page 2 meta = %v", meta)
	}

	// Out-of-range pages are empty, not errors.
	resp = doRequest(t, srv, http.MethodGet, "/api/tasks?page=5", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("out-of-range list status = %d, want 200", resp.StatusCode)
	}
	if data, _ := decodeBody(t, resp)["data"].([]any); len(data) != 0 {
		t.Errorf("page 5 = %d tasks, want 0", len(data))
	}
}
