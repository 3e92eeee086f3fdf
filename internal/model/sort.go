package model

import (
	"sort"
	"time"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// compareTimestamps orders parseable timestamps chronologically. Unparseable
// values sort after every parseable one and among themselves by string.
func compareTimestamps(a, b string) int {
	ta, okA := parseTimestamp(a)
	tb, okB := parseTimestamp(b)
	switch {
	case okA && okB:
		return ta.Compare(tb)
	case okA:
		return -1
	case okB:
		return 1
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// SortEvents orders events by start time, earliest first.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return compareTimestamps(events[i].Start, events[j].Start) < 0
	})
}

// SortTodos orders todos by due date ascending with undated todos last, then
// by priority descending.
func SortTodos(todos []Todo) {
	sort.SliceStable(todos, func(i, j int) bool {
		a, b := todos[i], todos[j]
		aDue, bDue := dueDate(a), dueDate(b)
		switch {
		case aDue == "" && bDue != "":
			return false
		case aDue != "" && bDue == "":
			return true
		case aDue != "" && bDue != "":
			if c := compareTimestamps(aDue, bDue); c != 0 {
				return c < 0
			}
		}
		return a.Priority > b.Priority
	})
}

func dueDate(t Todo) string {
	if t.DueDate == nil {
		return ""
	}
	return *t.DueDate
}
