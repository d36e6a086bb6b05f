package models

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// AllowedIntervals lists the reminder periods, in minutes, a user can pick.
var AllowedIntervals = []int{1, 5, 10, 30, 60, 90, 120}

const DefaultIntervalMinutes = 10

// IsAllowedInterval reports whether minutes is one of AllowedIntervals.
func IsAllowedInterval(minutes int) bool {
	return slices.Contains(AllowedIntervals, minutes)
}

// ReminderConfig is what the user asked the reminder scheduler to do.
type ReminderConfig struct {
	IntervalMinutes int  `json:"interval_minutes"`
	Enabled         bool `json:"enabled"`
}

// DefaultReminderConfig returns the startup configuration: default interval,
// disabled until notification permission is granted.
func DefaultReminderConfig() ReminderConfig {
	return ReminderConfig{IntervalMinutes: DefaultIntervalMinutes}
}

// Period returns the tick period of the reminder timer.
func (c ReminderConfig) Period() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// Validate checks the interval against AllowedIntervals.
func (c ReminderConfig) Validate() error {
	if !IsAllowedInterval(c.IntervalMinutes) {
		return fmt.Errorf("interval %d minutes: %w", c.IntervalMinutes, ErrInvalidConfigValue)
	}
	return nil
}

// PermissionState is the last known answer of the notification capability.
type PermissionState int

const (
	PermissionUnknown PermissionState = iota
	PermissionGranted
	PermissionDenied
)

func (p PermissionState) String() string {
	switch p {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// AlertFired is emitted once per reminder tick that was delivered.
type AlertFired struct {
	ID string    `json:"id"`
	At time.Time `json:"at"`
}

// NewAlertFired stamps a new alert with a random ID. The ID is what the
// acknowledgment buttons carry back.
func NewAlertFired(at time.Time) AlertFired {
	return AlertFired{ID: uuid.NewString(), At: at}
}

// Notification is a one-shot popup. AlertID is set for reminder prompts that
// expect an acknowledgment and empty for informational notifications.
type Notification struct {
	Title   string
	Body    string
	Icon    string
	AlertID string
}

// NeedsAck returns true if this notification is a reminder prompt
func (n Notification) NeedsAck() bool {
	return n.AlertID != ""
}
