package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hray3182/Hydrate/internal/format"
	"github.com/hray3182/Hydrate/internal/models"
	"github.com/hray3182/Hydrate/internal/platform/telegram"
	"github.com/hray3182/Hydrate/internal/session"
)

func (h *Handlers) handleReminders(ctx context.Context, s *session.Session, msg *tgbotapi.Message) {
	snap, err := s.ToggleReminders(ctx)
	if err != nil {
		h.sendMessage(msg.Chat.ID, errorText(err))
		return
	}
	switch {
	case snap.Requesting:
		// The consent message is on its way; the outcome is reported by the surface.
	case snap.Active:
		h.sendMessage(msg.Chat.ID, "🔔 Reminders on, every "+format.IntervalLabel(snap.Reminders.IntervalMinutes))
	default:
		h.sendMessage(msg.Chat.ID, "🔕 Reminders off")
	}
}

func (h *Handlers) handleInterval(ctx context.Context, s *session.Session, msg *tgbotapi.Message) {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		snap, err := s.Snapshot(ctx)
		if err != nil {
			h.sendMessage(msg.Chat.ID, errorText(err))
			return
		}
		h.sendMessageWithKeyboard(msg.Chat.ID, buildIntervalPickerText(snap), h.buildIntervalPickerKeyboard())
		return
	}

	minutes, err := strconv.Atoi(strings.TrimSuffix(args, "m"))
	if err != nil {
		h.sendMessage(msg.Chat.ID, "Please give the interval in minutes\nUsage: /interval 30")
		return
	}
	snap, err := s.SetInterval(ctx, minutes)
	if err != nil {
		text := errorText(err)
		if errors.Is(err, models.ErrInvalidConfigValue) {
			text = fmt.Sprintf("%s. Pick one of: %s minutes", text, joinInts(models.AllowedIntervals))
		}
		h.sendMessage(msg.Chat.ID, text)
		return
	}

	text := "⏱ Reminder interval set to " + format.IntervalLabel(snap.Reminders.IntervalMinutes)
	if !snap.Active {
		text += "\nTurn reminders on with /reminders"
	}
	h.sendMessage(msg.Chat.ID, text)
}

func (h *Handlers) handleTest(ctx context.Context, s *session.Session, msg *tgbotapi.Message) {
	if _, err := s.TestNotification(ctx); err != nil {
		h.sendMessage(msg.Chat.ID, errorText(err))
	}
}

func (h *Handlers) handleRemindCallback(ctx context.Context, s *session.Session, callback *tgbotapi.CallbackQuery, action string) {
	chatID := callback.Message.Chat.ID

	switch action {
	case "toggle":
		snap, err := s.ToggleReminders(ctx)
		if err != nil {
			h.answerCallbackWithAlert(callback.ID, errorText(err))
			return
		}
		answer := "Reminders off"
		switch {
		case snap.Requesting:
			answer = "Allow reminders in the message below"
		case snap.Active:
			answer = "Reminders on"
		}
		h.answerCallback(callback.ID, answer)
		h.editStatus(chatID, callback.Message.MessageID, snap)

	case "test":
		if _, err := s.TestNotification(ctx); err != nil {
			h.answerCallbackWithAlert(callback.ID, errorText(err))
			return
		}
		h.answerCallback(callback.ID, "Test sent")

	default:
		h.answerCallback(callback.ID, "")
	}
}

func (h *Handlers) handleIntervalCallback(ctx context.Context, s *session.Session, callback *tgbotapi.CallbackQuery, value string) {
	minutes, err := strconv.Atoi(value)
	if err != nil {
		h.answerCallback(callback.ID, "")
		return
	}
	snap, err := s.SetInterval(ctx, minutes)
	if err != nil {
		h.answerCallbackWithAlert(callback.ID, errorText(err))
		return
	}
	h.answerCallback(callback.ID, "Every "+format.IntervalLabel(minutes))
	h.showSettingsMain(callback.Message.Chat.ID, callback.Message.MessageID, snap)
}

// handleAckCallback handles "remind_ack:<alertID>:log|dismiss". The prompt
// message is removed either way; only the latest prompt counts.
func (h *Handlers) handleAckCallback(ctx context.Context, s *session.Session, callback *tgbotapi.CallbackQuery, parts []string) {
	chatID := callback.Message.Chat.ID
	if len(parts) != 2 {
		h.answerCallback(callback.ID, "")
		return
	}
	alertID, logged := parts[0], parts[1] == "log"

	snap, err := s.Acknowledge(ctx, alertID, logged)
	if err != nil {
		if !errors.Is(err, session.ErrUnknownAlert) {
			log.Printf("Failed to acknowledge reminder %s: %v", alertID, err)
		}
		h.answerCallback(callback.ID, errorText(err))
		h.deleteMessage(chatID, callback.Message.MessageID)
		return
	}

	h.deleteMessage(chatID, callback.Message.MessageID)
	if !logged {
		h.answerCallback(callback.ID, "Dismissed")
		return
	}
	h.answerCallback(callback.ID, "🥤 Logged!")
	h.sendStatus(chatID, snap)
}

// handlePermissionCallback answers the consent prompt of the chat's session.
func (h *Handlers) handlePermissionCallback(callback *tgbotapi.CallbackQuery, action string) {
	chatID := callback.Message.Chat.ID
	granted := callback.Data == telegram.CallbackPermAllow

	s, ok := h.sessions.Get(chatID)
	if !ok || !s.ResolvePermission(granted) {
		h.answerCallback(callback.ID, "This request has expired")
		h.deleteMessage(chatID, callback.Message.MessageID)
		return
	}

	answer := "Reminders stay off"
	if granted {
		answer = "Reminders allowed"
	}
	log.Printf("Chat %d answered permission prompt: %s", chatID, action)
	h.answerCallback(callback.ID, answer)
}

func buildIntervalPickerText(snap session.Snapshot) string {
	return fmt.Sprintf("⏱ **Reminder interval**\n\nCurrent interval: %s", format.IntervalLabel(snap.Reminders.IntervalMinutes))
}

// buildIntervalPickerKeyboard lists the allowed intervals. The short testing
// intervals only show up in dev mode.
func (h *Handlers) buildIntervalPickerKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, m := range models.AllowedIntervals {
		if m < models.DefaultIntervalMinutes && !h.devMode {
			continue
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(format.IntervalLabel(m), fmt.Sprintf("interval:%d", m)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", "settings:main"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
