package model

import (
	"errors"
	"strings"
	"time"
)

// TaskKind selects one of the two task tables.  Homework and assignments
// share one shape and one code path; the kind only decides the table and
// the words used in responses.
type TaskKind string

const (
	KindHomework   TaskKind = "homework"
	KindAssignment TaskKind = "assignment"
)

// Table returns the SQL table backing the kind.  The value comes from a
// closed set so it is safe to splice into queries.
func (k TaskKind) Table() string {
	if k == KindAssignment {
		return "assignments"
	}
	return "homework"
}

// Singular is the JSON key wrapping one task in a response.
func (k TaskKind) Singular() string { return string(k) }

// Plural is the JSON key wrapping a task list in a response.
func (k TaskKind) Plural() string { return k.Table() }

// Label is the capitalised noun used in human-readable messages.
func (k TaskKind) Label() string {
	if k == KindAssignment {
		return "Assignment"
	}
	return "Homework"
}

// TaskStatus is the progress marker of a task.  Any value may follow any
// other; there is no transition table.
type TaskStatus string

const (
	StatusPending   TaskStatus = "Pending"
	StatusCompleted TaskStatus = "Completed"
	StatusOverdue   TaskStatus = "Overdue"
)

// Valid reports whether s is one of the allowed statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusOverdue:
		return true
	}
	return false
}

// DateLayout is the calendar-date wire format for due dates.
const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date")

// Date is a calendar day.  It scans from a MySQL DATE column (with
// parseTime=true) and serialises as YYYY-MM-DD.
type Date struct {
	time.Time
}

// ParseDate accepts a plain calendar date or a full RFC 3339 timestamp,
// keeping only the day part.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{DateLayout, time.RFC3339, time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}, nil
		}
	}
	return Date{}, ErrInvalidDate
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string { return d.Format(DateLayout) }

// Before reports whether d falls on an earlier calendar day than the day
// t falls on in its own location.
func (d Date) Before(t time.Time) bool {
	y, m, day := t.Date()
	today := time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	return d.Time.Before(today)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
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

// Task is one row of either the `homework` or the `assignments` table,
// joined with the assignee's name.  A nil AssignedTo marks a global task
// that every student can see.
type Task struct {
	ID                 uint64     `json:"id"`
	Subject            string     `json:"subject"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	DueDate            Date       `json:"due_date"`
	Status             TaskStatus `json:"status"`
	CreatedBy          uint64     `json:"created_by"`
	AssignedTo         *uint64    `json:"assigned_to"`
	AssignedToName     *string    `json:"assigned_to_name"`
	AssignedToUsername *string    `json:"assigned_to_username"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// IsGlobal reports whether the task has no assignee.
func (t *Task) IsGlobal() bool { return t.AssignedTo == nil }

// VisibleTo reports whether the identity may see the task: admins see
// everything, students see their own and global tasks.
func (t *Task) VisibleTo(id Identity) bool {
	if id.IsAdmin() {
		return true
	}
	return t.AssignedTo == nil || *t.AssignedTo == id.ID
}
