package handlers

import (
	"context"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hray3182/Hydrate/internal/format"
	"github.com/hray3182/Hydrate/internal/models"
	"github.com/hray3182/Hydrate/internal/session"
)

// handleSettings shows the settings menu
func (h *Handlers) handleSettings(ctx context.Context, s *session.Session, msg *tgbotapi.Message) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		log.Printf("Failed to get session snapshot: %v", err)
		h.sendMessage(msg.Chat.ID, errorText(err))
		return
	}
	h.sendMessageWithKeyboard(msg.Chat.ID, buildSettingsMainText(snap), buildSettingsMainKeyboard(snap))
}

// handleSettingsCallback handles "settings:main|goal|interval". Close is
// handled before a session is looked up.
func (h *Handlers) handleSettingsCallback(ctx context.Context, s *session.Session, callback *tgbotapi.CallbackQuery, action string) {
	chatID := callback.Message.Chat.ID
	messageID := callback.Message.MessageID

	snap, err := s.Snapshot(ctx)
	if err != nil {
		h.answerCallbackWithAlert(callback.ID, errorText(err))
		return
	}
	h.answerCallback(callback.ID, "")

	switch action {
	case "main":
		h.showSettingsMain(chatID, messageID, snap)
	case "goal":
		h.editMessageWithKeyboard(chatID, messageID, buildGoalPickerText(snap), buildGoalPickerKeyboard())
	case "interval":
		h.editMessageWithKeyboard(chatID, messageID, buildIntervalPickerText(snap), h.buildIntervalPickerKeyboard())
	}
}

// --- Main Menu ---

func buildSettingsMainText(snap session.Snapshot) string {
	reminders := "❌ Off"
	if snap.Active {
		reminders = "✅ On"
	}
	permission := map[models.PermissionState]string{
		models.PermissionUnknown: "not asked yet",
		models.PermissionGranted: "allowed",
		models.PermissionDenied:  "not allowed",
	}[snap.Permission]

	return fmt.Sprintf("⚙️ **Settings**\n\n🎯 Daily goal: %s\n⏱ Interval: %s\n🔔 Reminders: %s\n🔐 Notifications: %s",
		format.GoalLabel(snap.Hydration.Goal),
		format.IntervalLabel(snap.Reminders.IntervalMinutes),
		reminders,
		permission,
	)
}

func buildSettingsMainKeyboard(snap session.Snapshot) tgbotapi.InlineKeyboardMarkup {
	toggleLabel := "🔔 Turn on reminders"
	if snap.Active {
		toggleLabel = "🔕 Turn off reminders"
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎯 Daily goal", "settings:goal"),
			tgbotapi.NewInlineKeyboardButtonData("⏱ Interval", "settings:interval"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(toggleLabel, "remind:toggle"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🧪 Test notification", "remind:test"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Close", "settings:close"),
		),
	)
}

func (h *Handlers) showSettingsMain(chatID int64, messageID int, snap session.Snapshot) {
	h.editMessageWithKeyboard(chatID, messageID, buildSettingsMainText(snap), buildSettingsMainKeyboard(snap))
}
