package models

import (
	"time"
)

// QuietHours is a daily window during which reminder ticks are consumed
// without being delivered. Start == End disables the window.
type QuietHours struct {
	Start    string         `json:"start"` // HH:MM format
	End      string         `json:"end"`   // HH:MM format
	Location *time.Location `json:"-"`
}

// Enabled reports whether the window covers any time at all.
func (q QuietHours) Enabled() bool {
	return q.Start != "" && q.End != "" && q.Start != q.End
}

// Contains checks if t falls inside the quiet window
func (q QuietHours) Contains(t time.Time) bool {
	if !q.Enabled() {
		return false
	}

	loc := q.Location
	if loc == nil {
		loc = time.Local
	}
	local := t.In(loc)
	current := local.Hour()*60 + local.Minute()

	start, ok := minutesOfDay(q.Start)
	if !ok {
		return false
	}
	end, ok := minutesOfDay(q.End)
	if !ok {
		return false
	}

	// Window spans midnight (e.g., 22:00 - 08:00)
	if start > end {
		return current >= start || current < end
	}
	return current >= start && current < end
}

// minutesOfDay parses "HH:MM" into minutes since midnight
func minutesOfDay(s string) (int, bool) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

// ValidClock reports whether s is a well-formed HH:MM time.
func ValidClock(s string) bool {
	_, ok := minutesOfDay(s)
	return ok
}
