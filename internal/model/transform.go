package model

import (
	"strconv"
	"strings"
)

var categoryColors = map[string]string{
	"MEETING":      "#ef4444",
	"PRESENTATION": "#f59e0b",
	"WORK":         "#3b82f6",
	"ADMIN":        "#10b981",
	"REVIEW":       "#8b5cf6",
	"PERSONAL":     "#ec4899",
	"URGENT":       "#dc2626",
	"LOW":          "#64748b",
}

// CategoryColor maps a todo category to its display color. Lookup ignores
// case; unknown or missing categories get DefaultTodoColor.
func CategoryColor(category string) string {
	if color, ok := categoryColors[strings.ToUpper(strings.TrimSpace(category))]; ok {
		return color
	}
	return DefaultTodoColor
}

func (r EventRecord) ToEvent() Event {
	color := DefaultEventColor
	if r.Color != nil && *r.Color != "" {
		color = *r.Color
	}
	return Event{
		ID:     r.ID,
		Title:  r.Title,
		Start:  r.StartTime,
		End:    r.EndTime,
		AllDay: r.AllDay,
		Color:  color,
		ExtendedProps: EventProps{
			Description:       r.Description,
			Location:          r.Location,
			IsRecurring:       r.IsRecurring,
			SeriesID:          r.SeriesID,
			RecurrenceRule:    r.RecurrenceRule,
			RecurrenceEndDate: r.RecurrenceEndDate,
			CreatedBy:         r.CreatedBy,
		},
	}
}

// Record maps the input to a row owned by ownerID. Recurrence is not editable
// from the calendar, so those columns are reset.
func (in EventInput) Record(ownerID string) EventRecord {
	color := in.Color
	if color == "" {
		color = DefaultEventColor
	}
	return EventRecord{
		Title:       in.Title,
		Description: optional(in.Description),
		StartTime:   in.Start,
		EndTime:     optional(in.End),
		AllDay:      in.AllDay,
		Color:       &color,
		Location:    optional(in.Location),
		CreatedBy:   ownerID,
	}
}

func (r TodoRecord) ToTodo() Todo {
	priority := DefaultPriority
	if r.Priority != nil && *r.Priority != 0 {
		priority = *r.Priority
	}
	duration := DefaultDuration
	if r.Duration != nil && *r.Duration > 0 {
		duration = *r.Duration
	}
	category := ""
	if r.Category != nil {
		category = *r.Category
	}
	return Todo{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate,
		Completed:   r.Completed,
		Priority:    priority,
		Category:    r.Category,
		Color:       CategoryColor(category),
		Duration:    duration,
	}
}

func (in TodoInput) Record(ownerID string) TodoRecord {
	priority := in.Priority
	if priority == 0 {
		priority = DefaultPriority
	}
	category := in.Category
	if category == "" {
		category = DefaultCategory
	}
	duration := in.Duration
	if duration <= 0 {
		duration = DefaultDuration
	}
	color := in.Color
	if color == "" {
		color = DefaultTodoColor
	}

	var due *string
	if in.DueDate != nil && *in.DueDate != "" {
		due = in.DueDate
	}
	return TodoRecord{
		Title:       in.Title,
		Description: optional(in.Description),
		DueDate:     due,
		Completed:   in.Completed,
		Priority:    &priority,
		Category:    &category,
		Duration:    &duration,
		Color:       &color,
		CreatedBy:   ownerID,
	}
}

// Metadata is the profile data embedded in the auth identity.
func (f SignUpForm) Metadata() map[string]any {
	return map[string]any{
		"first_name": f.FirstName,
		"last_name":  f.LastName,
		"university": f.University,
		"major":      f.Major,
		"year_level": f.YearLevel,
		"semester":   f.Semester,
	}
}

// Profile builds the user_profiles row. A semester that is not a number is
// stored as null.
func (f SignUpForm) Profile(userID string) UserProfile {
	p := UserProfile{
		UserID:     userID,
		Email:      f.Email,
		FirstName:  f.FirstName,
		LastName:   f.LastName,
		University: f.University,
		Major:      f.Major,
		YearLevel:  f.YearLevel,
	}
	if n, err := strconv.Atoi(strings.TrimSpace(f.Semester)); err == nil {
		p.Semester = &n
	}
	return p
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
