package apitest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

var statusRank = map[string]int{"pending": 0, "accepted": 1, "in_progress": 2, "completed": 3}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "No token, authorization denied")
			return
		}

		s.mu.Lock()
		userID, ok := s.tokens[token]
		_, exists := s.users[userID]
		s.mu.Unlock()
		if !ok || !exists {
			writeError(w, http.StatusUnauthorized, "Token is not valid")
			return
		}

		ctx := context.WithValue(r.Context(), userKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		caller := s.users[callerID(r)]
		s.mu.Unlock()
		if caller == nil || caller.Role != "admin" {
			writeError(w, http.StatusForbidden, "Access denied. Admin only.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func callerID(r *http.Request) string {
	id, _ := r.Context().Value(userKey).(string)
	return id
}

func userJSON(u *User) map[string]any {
	return map[string]any{"_id": u.ID, "name": u.Name, "email": u.Email, "role": u.Role}
}

func (s *Server) refLocked(id string) any {
	if u, ok := s.users[id]; ok {
		return map[string]any{"_id": u.ID, "name": u.Name, "email": u.Email}
	}
	return nil
}

// taskJSON renders a task. The real API embeds the assignee object on some
// endpoints and sends only its id on others; embed selects the form.
func (s *Server) taskJSONLocked(t *Task, embed bool) map[string]any {
	var assignedTo any = t.OwnerID
	if embed {
		assignedTo = s.refLocked(t.OwnerID)
	}
	out := map[string]any{
		"_id":         t.ID,
		"title":       t.Title,
		"description": t.Description,
		"assignedTo":  assignedTo,
		"assignedBy":  s.refLocked(t.AssignedByID),
		"status":      t.Status,
		"createdAt":   t.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
	}
	if t.CompletionNotes != "" {
		out["completionNotes"] = t.CompletionNotes
	}
	return out
}

func (s *Server) attendanceJSONLocked(a *Attendance) map[string]any {
	name := ""
	if u, ok := s.users[a.UserID]; ok {
		name = u.Name
	}
	return map[string]any{
		"userId": a.UserID,
		"name":   name,
		"date":   a.Date + "T00:00:00.000Z",
		"status": a.Status,
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, req.Email) && u.Password == req.Password {
			token := s.issueTokenLocked(u.ID)
			writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": userJSON(u)})
			return
		}
	}
	writeError(w, http.StatusUnauthorized, "Invalid credentials")
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, userJSON(s.users[callerID(r)]))
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Name, email and password are required")
		return
	}
	if req.Role == "" {
		req.Role = "user"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, req.Email) {
			writeError(w, http.StatusBadRequest, "User already exists")
			return
		}
	}
	id := uuid.NewString()
	u := &User{ID: id, Name: req.Name, Email: req.Email, Password: req.Password, Role: req.Role, Created: time.Now()}
	s.users[id] = u
	writeJSON(w, http.StatusCreated, map[string]any{"message": "User registered successfully", "user": userJSON(u)})
}

func (s *Server) handleListUsers(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := s.sortedTasksLocked()
	out := make([]map[string]any, 0, len(s.users))
	for _, u := range s.sortedUsersLocked() {
		entry := userJSON(u)
		owned := []map[string]any{}
		for _, t := range tasks {
			if t.OwnerID == u.ID {
				owned = append(owned, s.taskJSONLocked(t, false))
			}
		}
		entry["tasks"] = owned
		out = append(out, entry)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "userID")

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	delete(s.users, id)
	for tid, t := range s.tasks {
		if t.OwnerID == id {
			delete(s.tasks, tid)
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User and associated tasks deleted"})
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "userID")
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Status      string `json:"status"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Title == "" || req.Description == "" {
		writeError(w, http.StatusBadRequest, "Title and description are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[ownerID]; !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	t := &Task{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		AssignedByID: callerID(r),
		Title:        req.Title,
		Description:  req.Description,
		Status:       "pending",
		CreatedAt:    time.Now().UTC(),
	}
	s.tasks[t.ID] = t
	writeJSON(w, http.StatusCreated, s.taskJSONLocked(t, true))
}

func (s *Server) handleUserTasks(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "userID")

	s.mu.Lock()
	defer s.mu.Unlock()
	out := []map[string]any{}
	for _, t := range s.sortedTasksLocked() {
		if t.OwnerID == ownerID {
			out = append(out, s.taskJSONLocked(t, true))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "userID")
	taskID := chi.URLParam(r, "taskID")

	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok || t.OwnerID != ownerID {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	delete(s.tasks, taskID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted"})
}

func (s *Server) handleMyTasks(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []map[string]any{}
	for _, t := range s.sortedTasksLocked() {
		if t.OwnerID == callerID(r) {
			out = append(out, s.taskJSONLocked(t, false))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) ownTaskLocked(w http.ResponseWriter, r *http.Request) *Task {
	t, ok := s.tasks[chi.URLParam(r, "taskID")]
	if !ok || t.OwnerID != callerID(r) {
		writeError(w, http.StatusNotFound, "Task not found")
		return nil
	}
	return t
}

func (s *Server) handleAcceptTask(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.ownTaskLocked(w, r)
	if t == nil {
		return
	}
	if t.Status != "pending" {
		writeError(w, http.StatusBadRequest, "Only pending tasks can be accepted")
		return
	}
	t.Status = "accepted"
	writeJSON(w, http.StatusOK, s.taskJSONLocked(t, false))
}

func (s *Server) handleUpdateMyTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status          string `json:"status"`
		CompletionNotes string `json:"completionNotes"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.ownTaskLocked(w, r)
	if t == nil {
		return
	}
	next, ok := statusRank[req.Status]
	if !ok || next <= statusRank[t.Status] {
		writeError(w, http.StatusBadRequest, "Invalid status transition")
		return
	}
	t.Status = req.Status
	t.CompletionNotes = req.CompletionNotes
	writeJSON(w, http.StatusOK, s.taskJSONLocked(t, false))
}

func (s *Server) handleMarkAttendance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date   string `json:"date"`
		Status string `json:"status"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date")
		return
	}
	if req.Status == "" {
		req.Status = "present"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := callerID(r) + "|" + req.Date
	rec, ok := s.attendance[key]
	if !ok {
		rec = &Attendance{UserID: callerID(r), Date: req.Date}
		s.attendance[key] = rec
	}
	rec.Status = req.Status
	writeJSON(w, http.StatusOK, s.attendanceJSONLocked(rec))
}

func (s *Server) handleMyAttendance(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []map[string]any{}
	for _, a := range s.sortedAttendanceLocked() {
		if a.UserID == callerID(r) {
			out = append(out, s.attendanceJSONLocked(a))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAttendanceForDate(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := []map[string]any{}
	for _, a := range s.sortedAttendanceLocked() {
		if a.Date == date {
			out = append(out, s.attendanceJSONLocked(a))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleClearAttendance(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.attendance)
	s.attendance = make(map[string]*Attendance)
	writeJSON(w, http.StatusOK, map[string]any{"message": "Attendance records cleared", "deletedCount": n})
}

func (s *Server) sortedAttendanceLocked() []*Attendance {
	out := make([]*Attendance, 0, len(s.attendance))
	for _, a := range s.attendance {
		out = append(out, a)
	}
	sortAttendance(out)
	return out
}
