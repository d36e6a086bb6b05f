package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hray3182/Hydrate/internal/format"
	"github.com/hray3182/Hydrate/internal/models"
	"github.com/hray3182/Hydrate/internal/session"
)

const progressWidth = 8

func buildStatusText(snap session.Snapshot) string {
	hyd := snap.Hydration

	var sb strings.Builder
	sb.WriteString("💧 **Today's water**\n\n")
	sb.WriteString(format.ProgressBar(hyd.Intake, hyd.Goal, progressWidth))
	sb.WriteString(fmt.Sprintf("\n`%d / %d` glasses (%s)\n", hyd.Intake, hyd.Goal, format.Percent(hyd.Intake, hyd.Goal)))

	switch remaining := hyd.Remaining(); {
	case remaining == 0:
		sb.WriteString("🎉 Goal reached, nice work!\n")
	case remaining == 1:
		sb.WriteString("Just 1 more glass to go\n")
	default:
		sb.WriteString(fmt.Sprintf("%d more glasses to go\n", remaining))
	}

	sb.WriteString("\n🔔 Reminders: ")
	sb.WriteString(reminderStatus(snap))
	return sb.String()
}

func reminderStatus(snap session.Snapshot) string {
	switch {
	case snap.Active:
		return "every " + format.IntervalLabel(snap.Reminders.IntervalMinutes)
	case snap.Requesting:
		return "waiting for your permission"
	case snap.Permission == models.PermissionDenied:
		return "off (permission needed)"
	default:
		return "off"
	}
}

func buildStatusKeyboard(snap session.Snapshot) tgbotapi.InlineKeyboardMarkup {
	toggleLabel := "🔔 Turn on reminders"
	if snap.Active {
		toggleLabel = "🔕 Turn off reminders"
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🥤 +1 glass", "water:add"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(toggleLabel, "remind:toggle"),
			tgbotapi.NewInlineKeyboardButtonData("⚙️ Settings", "settings:main"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("↩️ Reset day", "water:reset"),
		),
	)
}

func (h *Handlers) sendStatus(chatID int64, snap session.Snapshot) {
	h.sendMessageWithKeyboard(chatID, buildStatusText(snap), buildStatusKeyboard(snap))
}

func (h *Handlers) editStatus(chatID int64, messageID int, snap session.Snapshot) {
	h.editMessageWithKeyboard(chatID, messageID, buildStatusText(snap), buildStatusKeyboard(snap))
}

func (h *Handlers) handleStatus(ctx context.Context, s *session.Session, msg *tgbotapi.Message) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		h.sendMessage(msg.Chat.ID, errorText(err))
		return
	}
	h.sendStatus(msg.Chat.ID, snap)
}

func (h *Handlers) handleDrink(ctx context.Context, s *session.Session, msg *tgbotapi.Message) {
	snap, err := s.AddGlass(ctx)
	if err != nil {
		h.sendMessage(msg.Chat.ID, errorText(err))
		return
	}
	h.sendStatus(msg.Chat.ID, snap)
}

func (h *Handlers) handleReset(ctx context.Context, s *session.Session, msg *tgbotapi.Message) {
	snap, err := s.Reset(ctx)
	if err != nil {
		h.sendMessage(msg.Chat.ID, errorText(err))
		return
	}
	h.sendStatus(msg.Chat.ID, snap)
}

func (h *Handlers) handleGoal(ctx context.Context, s *session.Session, msg *tgbotapi.Message) {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		snap, err := s.Snapshot(ctx)
		if err != nil {
			h.sendMessage(msg.Chat.ID, errorText(err))
			return
		}
		h.sendMessageWithKeyboard(msg.Chat.ID, buildGoalPickerText(snap), buildGoalPickerKeyboard())
		return
	}

	goal, err := strconv.Atoi(args)
	if err != nil {
		h.sendMessage(msg.Chat.ID, "Please give a number of glasses\nUsage: /goal 8")
		return
	}
	snap, err := s.SetGoal(ctx, goal)
	if err != nil {
		h.sendMessage(msg.Chat.ID, fmt.Sprintf("%s. Pick one of: %s", errorText(err), joinInts(models.AllowedGoals)))
		return
	}
	h.sendMessage(msg.Chat.ID, "🎯 Daily goal set to "+format.GoalLabel(snap.Hydration.Goal))
}

func (h *Handlers) handleWaterCallback(ctx context.Context, s *session.Session, callback *tgbotapi.CallbackQuery, action string) {
	var (
		snap session.Snapshot
		err  error
	)
	switch action {
	case "add":
		snap, err = s.AddGlass(ctx)
	case "reset":
		snap, err = s.Reset(ctx)
	default:
		h.answerCallback(callback.ID, "")
		return
	}
	if err != nil {
		h.answerCallbackWithAlert(callback.ID, errorText(err))
		return
	}

	text := ""
	if action == "add" {
		text = fmt.Sprintf("%d / %d", snap.Hydration.Intake, snap.Hydration.Goal)
	}
	h.answerCallback(callback.ID, text)
	h.editStatus(callback.Message.Chat.ID, callback.Message.MessageID, snap)
}

func (h *Handlers) handleGoalCallback(ctx context.Context, s *session.Session, callback *tgbotapi.CallbackQuery, value string) {
	goal, err := strconv.Atoi(value)
	if err != nil {
		h.answerCallback(callback.ID, "")
		return
	}
	snap, err := s.SetGoal(ctx, goal)
	if err != nil {
		h.answerCallbackWithAlert(callback.ID, errorText(err))
		return
	}
	h.answerCallback(callback.ID, "Goal: "+format.GoalLabel(goal))
	h.showSettingsMain(callback.Message.Chat.ID, callback.Message.MessageID, snap)
}

func buildGoalPickerText(snap session.Snapshot) string {
	return fmt.Sprintf("🎯 **Daily goal**\n\nCurrent goal: %s", format.GoalLabel(snap.Hydration.Goal))
}

func buildGoalPickerKeyboard() tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	for _, g := range models.AllowedGoals {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(strconv.Itoa(g), fmt.Sprintf("goal:%d", g)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		row,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", "settings:main"),
		),
	)
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
