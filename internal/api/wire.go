package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rpggio/taskdesk/internal/domain/attendance"
	"github.com/rpggio/taskdesk/internal/domain/task"
	"github.com/rpggio/taskdesk/internal/domain/user"
)

// The server identifies documents by "_id"; some payloads use "id".
type wireID struct {
	UnderscoreID string `json:"_id"`
	ID           string `json:"id"`
}

func (w wireID) value() string {
	if w.UnderscoreID != "" {
		return w.UnderscoreID
	}
	return w.ID
}

type wireUser struct {
	wireID
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  string     `json:"role"`
	Tasks []wireTask `json:"tasks"`
}

func (w wireUser) summary() user.Summary {
	return user.Summary{
		ID:    w.value(),
		Name:  w.Name,
		Email: w.Email,
		Role:  user.Role(w.Role),
	}
}

// wireRef accepts a user reference sent either as a bare id or as an
// embedded user object.
type wireRef struct {
	ref user.Ref
}

func (w *wireRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		w.ref = user.Ref{}
		return nil
	}
	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		w.ref = user.Ref{ID: id}
		return nil
	}
	var obj struct {
		wireID
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("user reference: %w", err)
	}
	w.ref = user.Ref{ID: obj.value(), Name: obj.Name, Email: obj.Email}
	return nil
}

// wireTime accepts RFC 3339 strings, numeric offsets without a colon,
// bare dates and epoch milliseconds.
type wireTime struct {
	t time.Time
}

var wireTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	attendance.DateLayout,
}

func (w *wireTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		w.t = time.Time{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			w.t = time.Time{}
			return nil
		}
		for _, layout := range wireTimeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				w.t = t.UTC()
				return nil
			}
		}
		return fmt.Errorf("invalid timestamp %q", s)
	}
	ms, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp %s", data)
	}
	w.t = time.UnixMilli(ms).UTC()
	return nil
}

// wireStatus rejects statuses outside the task lifecycle while decoding.
type wireStatus struct {
	s task.Status
}

func (w *wireStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("task status: %w", err)
	}
	st, err := task.ParseStatus(raw)
	if err != nil {
		return err
	}
	w.s = st
	return nil
}

type wireTask struct {
	wireID
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	AssignedTo      wireRef    `json:"assignedTo"`
	AssignedBy      wireRef    `json:"assignedBy"`
	Status          wireStatus `json:"status"`
	CompletionNotes string     `json:"completionNotes"`
	CreatedAt       wireTime   `json:"createdAt"`
}

func (w wireTask) task() task.Task {
	return task.Task{
		ID:              w.value(),
		Title:           w.Title,
		Description:     w.Description,
		AssignedTo:      w.AssignedTo.ref,
		AssignedBy:      w.AssignedBy.ref,
		Status:          w.Status.s,
		CompletionNotes: w.CompletionNotes,
		CreatedAt:       w.CreatedAt.t,
	}
}

func tasksFromWire(in []wireTask) []task.Task {
	out := make([]task.Task, 0, len(in))
	for _, w := range in {
		out = append(out, w.task())
	}
	return out
}

type wireAttendance struct {
	UserID string          `json:"userId"`
	User   wireRef         `json:"user"`
	Name   string          `json:"name"`
	Date   attendance.Date `json:"date"`
	Status string          `json:"status"`
}

func (w wireAttendance) record() attendance.Record {
	rec := attendance.Record{
		UserID: w.UserID,
		Name:   w.Name,
		Date:   w.Date,
		Status: attendance.Status(w.Status),
	}
	if rec.UserID == "" {
		rec.UserID = w.User.ref.ID
	}
	if rec.Name == "" {
		rec.Name = w.User.ref.Name
	}
	return rec
}

func recordsFromWire(in []wireAttendance) []attendance.Record {
	out := make([]attendance.Record, 0, len(in))
	for _, w := range in {
		out = append(out, w.record())
	}
	return out
}
