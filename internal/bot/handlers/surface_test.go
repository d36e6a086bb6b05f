package handlers

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hray3182/Hydrate/internal/models"
	"github.com/hray3182/Hydrate/internal/session"
)

func TestSurface_Celebration(t *testing.T) {
	api := &mockSender{}
	s := NewSurface(api)

	s.OnGoalReached(chatID, models.GoalReached{Intake: 8, Goal: 8})
	first, ok := api.find("Goal reached!")
	if !ok {
		t.Fatal("expected celebration message")
	}
	if !strings.Contains(textOf(first.c), "8 glasses") {
		t.Errorf("unexpected celebration %q", textOf(first.c))
	}

	// A second celebration replaces the first one.
	s.OnGoalReached(chatID, models.GoalReached{Intake: 8, Goal: 8})
	if !api.deleted(first.id) {
		t.Error("expected the previous celebration deleted")
	}
	second, _ := api.find("Goal reached!")

	s.OnCelebrationEnded(chatID)
	if !api.deleted(second.id) {
		t.Error("expected the celebration deleted when it ends")
	}

	before := len(api.requests)
	s.OnCelebrationEnded(chatID)
	if len(api.requests) != before {
		t.Error("ending twice should not delete anything")
	}
}

func TestSurface_DayRollover(t *testing.T) {
	api := &mockSender{}
	s := NewSurface(api)

	s.OnDayRollover(chatID, session.Snapshot{
		ChatID:    chatID,
		Hydration: models.HydrationState{Goal: 8},
	})

	msg, ok := api.last().(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("expected a message, got %T", api.last())
	}
	if !strings.HasPrefix(msg.Text, "🌅 New day!") || !strings.Contains(msg.Text, "0 / 8") {
		t.Errorf("unexpected text %q", msg.Text)
	}
	if !msg.DisableNotification {
		t.Error("day rollover should be silent")
	}
}

func TestSurface_PermissionResolved(t *testing.T) {
	tests := []struct {
		name     string
		snap     session.Snapshot
		err      error
		wantText string
	}{
		{
			name: "granted",
			snap: session.Snapshot{Active: true, Permission: models.PermissionGranted},
		},
		{
			name:     "denied",
			snap:     session.Snapshot{Permission: models.PermissionDenied},
			err:      fmt.Errorf("reminders: %w", models.ErrPermissionDenied),
			wantText: "Reminders stay off",
		},
		{
			name:     "delivery failed",
			err:      models.ErrAlertDeliveryFailed,
			wantText: "could not be delivered",
		},
		{
			name:     "other error",
			err:      errors.New("boom"),
			wantText: "Something went wrong",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mockSender{}
			NewSurface(api).OnPermissionResolved(chatID, tt.snap, tt.err)

			got := api.lastText()
			if tt.wantText == "" {
				if got != "" {
					t.Errorf("expected no message, got %q", got)
				}
				return
			}
			if !strings.Contains(got, tt.wantText) {
				t.Errorf("got %q, want it to contain %q", got, tt.wantText)
			}
		})
	}
}

func TestErrorText(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("goal 7: %w", models.ErrInvalidConfigValue), "That value isn't available"},
		{models.ErrPermissionUnavailable, "Notifications aren't available in this chat, reminders stay off"},
		{session.ErrSessionClosed, "This session has ended. Send /start to begin again"},
		{session.ErrUnknownAlert, "This reminder was already handled"},
	}
	for _, tt := range tests {
		if got := errorText(tt.err); got != tt.want {
			t.Errorf("errorText(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
