package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/rpggio/taskdesk/internal/domain/attendance"
)

// MarkAttendance records the caller as present on date. The server keeps at
// most one record per (user, date).
func (c *Client) MarkAttendance(ctx context.Context, date attendance.Date) (attendance.Record, error) {
	var resp wireAttendance
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/me/attendance",
		body:   map[string]string{"date": date.String()},
		auth:   true,
	}, &resp)
	if err != nil {
		return attendance.Record{}, err
	}
	return resp.record(), nil
}

// MyAttendance returns the caller's attendance history.
func (c *Client) MyAttendance(ctx context.Context) ([]attendance.Record, error) {
	var resp []wireAttendance
	if err := c.do(ctx, request{method: http.MethodGet, path: "/auth/me/attendance", auth: true}, &resp); err != nil {
		return nil, err
	}
	return recordsFromWire(resp), nil
}

// AttendanceForDate returns every record for one day.
func (c *Client) AttendanceForDate(ctx context.Context, date attendance.Date) ([]attendance.Record, error) {
	var resp []wireAttendance
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/auth/attendance",
		query:  url.Values{"date": {date.String()}},
		auth:   true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return recordsFromWire(resp), nil
}

// ClearAttendance deletes every attendance record.
func (c *Client) ClearAttendance(ctx context.Context) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		path:   "/auth/attendance/clear",
		auth:   true,
	}, nil)
}
