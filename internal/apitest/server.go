// Package apitest runs an in-memory stand-in for the remote task API so
// client code can be exercised end to end in tests.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// User is a stored account.
type User struct {
	ID       string
	Name     string
	Email    string
	Password string
	Role     string
	Created  time.Time
}

// Task is a stored task.
type Task struct {
	ID              string
	OwnerID         string
	AssignedByID    string
	Title           string
	Description     string
	Status          string
	CompletionNotes string
	CreatedAt       time.Time
}

// Attendance is a stored attendance record.
type Attendance struct {
	UserID string
	Date   string
	Status string
}

// Interceptor may answer a request before the fake handles it. Returning
// true means the response was written.
type Interceptor func(w http.ResponseWriter, r *http.Request) bool

// Server is a fake of the remote API served over httptest.
type Server struct {
	Server *httptest.Server

	mu          sync.Mutex
	users       map[string]*User
	tasks       map[string]*Task
	attendance  map[string]*Attendance
	tokens      map[string]string
	requests    []string
	interceptor Interceptor
}

// New starts a fake API and stops it when the test ends.
func New(t *testing.T) *Server {
	t.Helper()

	s := &Server{
		users:      make(map[string]*User),
		tasks:      make(map[string]*Task),
		attendance: make(map[string]*Attendance),
		tokens:     make(map[string]string),
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Server.Close)
	return s
}

// BaseURL is the API root to configure clients with.
func (s *Server) BaseURL() string {
	return s.Server.URL + "/api"
}

// AddUser stores an account and returns its id.
func (s *Server) AddUser(name, email, password, role string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.users[id] = &User{ID: id, Name: name, Email: email, Password: password, Role: role, Created: time.Now()}
	return id
}

// AddTask stores a task owned by ownerID and returns its id.
func (s *Server) AddTask(ownerID, assignedByID, title, status string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.tasks[id] = &Task{
		ID:           id,
		OwnerID:      ownerID,
		AssignedByID: assignedByID,
		Title:        title,
		Description:  title,
		Status:       status,
		CreatedAt:    time.Now().UTC(),
	}
	return id
}

// IssueToken returns a valid bearer token for userID.
func (s *Server) IssueToken(userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueTokenLocked(userID)
}

func (s *Server) issueTokenLocked(userID string) string {
	token := "tok-" + uuid.NewString()
	s.tokens[token] = userID
	return token
}

// RevokeTokens invalidates every issued token.
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]string)
}

// Tasks returns the stored tasks for ownerID.
func (s *Server) Tasks(ownerID string) []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Task
	for _, t := range s.sortedTasksLocked() {
		if t.OwnerID == ownerID {
			out = append(out, *t)
		}
	}
	return out
}

// Attendance returns every stored attendance record.
func (s *Server) Attendance() []Attendance {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Attendance, 0, len(s.attendance))
	for _, a := range s.attendance {
		out = append(out, *a)
	}
	return out
}

// Requests returns "METHOD /path" for every request received so far.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// ResetRequests forgets recorded requests.
func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

// Intercept installs fn in front of every handler; nil removes it.
func (s *Server) Intercept(fn Interceptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interceptor = fn
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Get("/me", s.handleMe)
			r.Get("/me/tasks", s.handleMyTasks)
			r.Patch("/me/tasks/{taskID}", s.handleUpdateMyTask)
			r.Post("/me/tasks/{taskID}/accept", s.handleAcceptTask)
			r.Post("/me/attendance", s.handleMarkAttendance)
			r.Get("/me/attendance", s.handleMyAttendance)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)

				r.Post("/register", s.handleRegister)
				r.Get("/users", s.handleListUsers)
				r.Delete("/users/{userID}", s.handleDeleteUser)
				r.Post("/users/{userID}/tasks", s.handleCreateTask)
				r.Get("/users/{userID}/tasks", s.handleUserTasks)
				r.Delete("/users/{userID}/tasks/{taskID}", s.handleDeleteTask)
				r.Get("/attendance", s.handleAttendanceForDate)
				r.Delete("/attendance/clear", s.handleClearAttendance)
			})
		})
	})
	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+strings.TrimPrefix(r.URL.Path, "/api"))
		intercept := s.interceptor
		s.mu.Unlock()

		if intercept != nil && intercept(w, r) {
			return
		}
		next.ServeHTTP(w, r)
	})
}

type ctxKey int

const userKey ctxKey = iota

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decode(r *http.Request, out any) error {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func (s *Server) sortedTasksLocked() []*Task {
	out := make([]*Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *Server) sortedUsersLocked() []*User {
	out := make([]*User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Created.Equal(out[j].Created) {
			return out[i].ID < out[j].ID
		}
		return out[i].Created.Before(out[j].Created)
	})
	return out
}

func sortAttendance(records []*Attendance) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Date == records[j].Date {
			return records[i].UserID < records[j].UserID
		}
		return records[i].Date < records[j].Date
	})
}
