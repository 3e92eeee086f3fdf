package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	DefaultEventColor = "#3788d8"
	DefaultTodoColor  = "#3b82f6"
	DefaultPriority   = 1
	DefaultDuration   = 30
	DefaultCategory   = "TASK"
)

// ErrInvalidRecord is wrapped by every decode validation failure.
var ErrInvalidRecord = errors.New("invalid record")

// ID is a row identifier. The remote store may hand out numbers or UUID
// strings; both decode to the same string form.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// EventRecord is an events table row.
type EventRecord struct {
	ID                ID      `json:"id,omitempty"`
	Title             string  `json:"title"`
	Description       *string `json:"description"`
	StartTime         string  `json:"start_time"`
	EndTime           *string `json:"end_time"`
	AllDay            bool    `json:"all_day"`
	Color             *string `json:"color"`
	Location          *string `json:"location"`
	IsRecurring       bool    `json:"is_recurring"`
	SeriesID          *string `json:"series_id"`
	RecurrenceRule    *string `json:"recurrence_rule"`
	RecurrenceEndDate *string `json:"recurrence_end_date"`
	CreatedBy         string  `json:"created_by,omitempty"`
}

func (r EventRecord) Validate() error {
	switch {
	case r.ID == "":
		return fmt.Errorf("event: %w: missing id", ErrInvalidRecord)
	case r.Title == "":
		return fmt.Errorf("event %s: %w: missing title", r.ID, ErrInvalidRecord)
	case r.StartTime == "":
		return fmt.Errorf("event %s: %w: missing start_time", r.ID, ErrInvalidRecord)
	}
	return nil
}

// Event is the calendar widget's event shape.
type Event struct {
	ID            ID         `json:"id"`
	Title         string     `json:"title"`
	Start         string     `json:"start"`
	End           *string    `json:"end"`
	AllDay        bool       `json:"allDay"`
	Color         string     `json:"color"`
	ExtendedProps EventProps `json:"extendedProps"`
}

type EventProps struct {
	Description       *string `json:"description"`
	Location          *string `json:"location"`
	IsRecurring       bool    `json:"isRecurring"`
	SeriesID          *string `json:"seriesId"`
	RecurrenceRule    *string `json:"recurrenceRule"`
	RecurrenceEndDate *string `json:"recurrenceEndDate"`
	CreatedBy         string  `json:"createdBy,omitempty"`
}

// EventInput is what the calendar submits on create or edit.
type EventInput struct {
	ID          ID     `json:"id,omitempty"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Start       string `json:"start" binding:"required"`
	End         string `json:"end"`
	AllDay      bool   `json:"allDay"`
	Color       string `json:"color"`
	Location    string `json:"location"`
}

// TodoRecord is a todos table row.
type TodoRecord struct {
	ID          ID      `json:"id,omitempty"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"due_date"`
	Completed   bool    `json:"completed"`
	Priority    *int    `json:"priority"`
	Category    *string `json:"category"`
	Duration    *int    `json:"duration"`
	Color       *string `json:"color"`
	CreatedBy   string  `json:"created_by,omitempty"`
}

func (r TodoRecord) Validate() error {
	switch {
	case r.ID == "":
		return fmt.Errorf("todo: %w: missing id", ErrInvalidRecord)
	case r.Title == "":
		return fmt.Errorf("todo %s: %w: missing title", r.ID, ErrInvalidRecord)
	}
	return nil
}

// Todo is the todo list's item shape.
type Todo struct {
	ID          ID      `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"dueDate"`
	Completed   bool    `json:"completed"`
	Priority    int     `json:"priority"`
	Category    *string `json:"category"`
	Color       string  `json:"color"`
	Duration    int     `json:"duration"`
}

type TodoInput struct {
	ID          ID      `json:"id,omitempty"`
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description"`
	DueDate     *string `json:"dueDate"`
	Completed   bool    `json:"completed"`
	Priority    int     `json:"priority"`
	Category    string  `json:"category"`
	Duration    int     `json:"duration"`
	Color       string  `json:"color"`
}

// UserProfile is a user_profiles row.
type UserProfile struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	University string `json:"university"`
	Major      string `json:"major"`
	YearLevel  string `json:"year_level"`
	Semester   *int   `json:"semester"`
}

type SignUpForm struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	University string `json:"university"`
	Major      string `json:"major"`
	YearLevel  string `json:"year_level"`
	Semester   string `json:"semester"`
}
