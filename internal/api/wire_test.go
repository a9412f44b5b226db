package api

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rpggio/taskdesk/internal/domain/task"
	"github.com/rpggio/taskdesk/internal/domain/user"
	"github.com/stretchr/testify/require"
)

func TestWireRef(t *testing.T) {
	var byID wireRef
	require.NoError(t, json.Unmarshal([]byte(`"u1"`), &byID))
	require.Equal(t, user.Ref{ID: "u1"}, byID.ref)

	var byObject wireRef
	require.NoError(t, json.Unmarshal([]byte(`{"_id":"u2","name":"Uma","email":"uma@example.com"}`), &byObject))
	require.Equal(t, user.Ref{ID: "u2", Name: "Uma", Email: "uma@example.com"}, byObject.ref)

	var null wireRef
	require.NoError(t, json.Unmarshal([]byte(`null`), &null))
	require.Equal(t, user.Ref{}, null.ref)
}

func TestWireTime(t *testing.T) {
	var s wireTime
	require.NoError(t, json.Unmarshal([]byte(`"2024-01-05T10:20:30.123+02:00"`), &s))
	require.Equal(t, time.Date(2024, 1, 5, 8, 20, 30, 123000000, time.UTC), s.t)

	var ms wireTime
	require.NoError(t, json.Unmarshal([]byte(`1704450030000`), &ms))
	require.Equal(t, time.Date(2024, 1, 5, 10, 20, 30, 0, time.UTC), ms.t)

	var noColon wireTime
	require.NoError(t, json.Unmarshal([]byte(`"2024-01-05T10:20:30.000+0000"`), &noColon))
	require.Equal(t, time.Date(2024, 1, 5, 10, 20, 30, 0, time.UTC), noColon.t)

	var dateOnly wireTime
	require.NoError(t, json.Unmarshal([]byte(`"2024-01-05"`), &dateOnly))
	require.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), dateOnly.t)

	var bad wireTime
	require.Error(t, json.Unmarshal([]byte(`"yesterday"`), &bad))
}

func TestWireTasksDecodeOddTimestamps(t *testing.T) {
	var tasks []wireTask
	require.NoError(t, json.Unmarshal([]byte(`[
		{"_id":"t1","title":"A","status":"pending","createdAt":"2024-01-05"},
		{"_id":"t2","title":"B","status":"accepted","createdAt":"2024-01-05T10:20:30+0000"}
	]`), &tasks))
	out := tasksFromWire(tasks)
	require.Len(t, out, 2)
	require.Equal(t, task.StatusAccepted, out[1].Status)
}

func TestWireTaskRejectsUnknownStatus(t *testing.T) {
	var w wireTask
	err := json.Unmarshal([]byte(`{"_id":"t1","title":"A","status":"archived"}`), &w)
	require.ErrorIs(t, err, task.ErrInvalidStatus)
}

func TestWireAttendanceFallsBackToEmbeddedUser(t *testing.T) {
	var w wireAttendance
	require.NoError(t, json.Unmarshal([]byte(`{"user":{"_id":"u1","name":"Uma"},"date":"2024-01-05T00:00:00.000Z","status":"present"}`), &w))
	rec := w.record()
	require.Equal(t, "u1", rec.UserID)
	require.Equal(t, "Uma", rec.Name)
	require.Equal(t, "2024-01-05", rec.Date.String())
}

func TestErrorMessage(t *testing.T) {
	require.Equal(t, "boom", errorMessage(400, []byte(`{"error":"boom"}`)))
	require.Equal(t, "HTTP error! status: 500", errorMessage(500, []byte(`{"message":"x"}`)))
	require.Equal(t, "HTTP error! status: 404", errorMessage(404, nil))
}
