package models

import (
	"fmt"
	"slices"
	"time"
)

// AllowedGoals lists the daily goals (in glasses) a user can pick.
var AllowedGoals = []int{4, 6, 8, 10, 12}

const DefaultGoal = 8

// IsAllowedGoal reports whether goal is one of AllowedGoals.
func IsAllowedGoal(goal int) bool {
	return slices.Contains(AllowedGoals, goal)
}

// HydrationState is the intake counter for the current day.
type HydrationState struct {
	Intake int `json:"intake"`
	Goal   int `json:"goal"`
}

// NewHydrationState creates an empty counter with the given goal.
func NewHydrationState(goal int) (*HydrationState, error) {
	if !IsAllowedGoal(goal) {
		return nil, fmt.Errorf("goal %d: %w", goal, ErrInvalidConfigValue)
	}
	return &HydrationState{Goal: goal}, nil
}

// AddGlass logs one glass. goalReached is true only on the call that brings
// intake exactly to the goal, so additions past the goal never re-fire it.
func (h *HydrationState) AddGlass() (newIntake int, goalReached bool) {
	h.Intake++
	return h.Intake, h.Intake == h.Goal
}

// Reset zeroes the intake for a new day. The goal is kept.
func (h *HydrationState) Reset() {
	h.Intake = 0
}

// SetGoal replaces the goal. Values outside AllowedGoals are rejected and the
// previous goal stays in place.
func (h *HydrationState) SetGoal(goal int) error {
	if !IsAllowedGoal(goal) {
		return fmt.Errorf("goal %d: %w", goal, ErrInvalidConfigValue)
	}
	h.Goal = goal
	return nil
}

// Remaining returns how many glasses are left until the goal, never negative.
func (h *HydrationState) Remaining() int {
	return max(h.Goal-h.Intake, 0)
}

// Progress returns intake/goal clamped to [0, 1].
func (h *HydrationState) Progress() float64 {
	if h.Goal <= 0 {
		return 0
	}
	return min(float64(h.Intake)/float64(h.Goal), 1)
}

// GoalReached is emitted when AddGlass crosses the goal from below.
type GoalReached struct {
	Intake int       `json:"intake"`
	Goal   int       `json:"goal"`
	At     time.Time `json:"at"`
}
