package attendance

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the attendance mark for one day.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
)

// DateLayout is the wire and display format of a Date.
const DateLayout = "2006-01-02"

// ErrInvalidDate indicates a value that is neither a calendar date nor a timestamp.
var ErrInvalidDate = errors.New("invalid attendance date")

// Date is a calendar day with no time component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the UTC calendar day of t.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the current UTC calendar day.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate accepts either YYYY-MM-DD or an RFC 3339 timestamp, the latter
// being reduced to its UTC calendar day.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return DateOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return DateOf(t), nil
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// IsZero reports whether d is unset.
func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, data)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Record is one user's attendance for one day. (UserID, Date) is its identity.
type Record struct {
	UserID string `json:"user_id"`
	Name   string `json:"name,omitempty"`
	Date   Date   `json:"date"`
	Status Status `json:"status"`
}

