package handlers

import (
	"context"
	"errors"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hray3182/Hydrate/internal/format"
	"github.com/hray3182/Hydrate/internal/models"
	"github.com/hray3182/Hydrate/internal/platform/telegram"
	"github.com/hray3182/Hydrate/internal/session"
)

// Sessions is the part of session.Manager the handlers use.
type Sessions interface {
	GetOrStart(chatID int64) (*session.Session, error)
	Get(chatID int64) (*session.Session, bool)
	Close(chatID int64) bool
}

type Handlers struct {
	api      telegram.Sender
	sessions Sessions
	devMode  bool
}

func New(api telegram.Sender, sessions Sessions, devMode bool) *Handlers {
	return &Handlers{
		api:      api,
		sessions: sessions,
		devMode:  devMode,
	}
}

// Commands lists the bot commands for the Telegram command menu.
func Commands() []tgbotapi.BotCommand {
	return []tgbotapi.BotCommand{
		{Command: "start", Description: "Start tracking today's water"},
		{Command: "drink", Description: "Log a glass of water"},
		{Command: "status", Description: "Show today's progress"},
		{Command: "reset", Description: "Reset today's count"},
		{Command: "goal", Description: "Set the daily goal"},
		{Command: "interval", Description: "Set the reminder interval"},
		{Command: "reminders", Description: "Turn reminders on or off"},
		{Command: "settings", Description: "Open settings"},
		{Command: "test", Description: "Send a test notification"},
		{Command: "stop", Description: "End the session"},
		{Command: "help", Description: "Show help"},
	}
}

func (h *Handlers) HandleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "help":
		h.handleHelp(msg)
		return
	case "stop":
		h.handleStop(msg)
		return
	}

	s, err := h.sessions.GetOrStart(chatID)
	if err != nil {
		log.Printf("Failed to start session for chat %d: %v", chatID, err)
		h.sendMessage(chatID, "Could not start a session, please try again later")
		return
	}

	switch msg.Command() {
	case "start":
		h.handleStart(ctx, s, msg)
	case "drink":
		h.handleDrink(ctx, s, msg)
	case "status":
		h.handleStatus(ctx, s, msg)
	case "reset":
		h.handleReset(ctx, s, msg)
	case "goal":
		h.handleGoal(ctx, s, msg)
	case "interval":
		h.handleInterval(ctx, s, msg)
	case "reminders":
		h.handleReminders(ctx, s, msg)
	case "settings":
		h.handleSettings(ctx, s, msg)
	case "test":
		h.handleTest(ctx, s, msg)
	default:
		h.sendMessage(chatID, "Unknown command, use /help to see what I can do")
	}
}

// HandleMessage treats a bare "+1" or water emoji as a logged glass.
func (h *Handlers) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	switch strings.TrimSpace(msg.Text) {
	case "+1", "💧", "🥤":
	default:
		h.sendMessage(msg.Chat.ID, "Send /drink (or just +1) after each glass, or /help for everything else")
		return
	}

	s, err := h.sessions.GetOrStart(msg.Chat.ID)
	if err != nil {
		log.Printf("Failed to start session for chat %d: %v", msg.Chat.ID, err)
		return
	}
	h.handleDrink(ctx, s, msg)
}

func (h *Handlers) HandleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil {
		h.answerCallback(callback.ID, "")
		return
	}
	chatID := callback.Message.Chat.ID

	parts := strings.Split(callback.Data, ":")
	if len(parts) < 2 {
		h.answerCallback(callback.ID, "")
		return
	}

	// Consent answers go straight to the waiting prompt, not through the loop.
	if parts[0] == "perm" {
		h.handlePermissionCallback(callback, parts[1])
		return
	}

	if parts[0] == "settings" && parts[1] == "close" {
		h.answerCallback(callback.ID, "")
		h.deleteMessage(chatID, callback.Message.MessageID)
		return
	}

	s, err := h.sessions.GetOrStart(chatID)
	if err != nil {
		log.Printf("Failed to start session for chat %d: %v", chatID, err)
		h.answerCallbackWithAlert(callback.ID, "Could not start a session")
		return
	}

	switch parts[0] {
	case "water":
		h.handleWaterCallback(ctx, s, callback, parts[1])
	case "goal":
		h.handleGoalCallback(ctx, s, callback, parts[1])
	case "interval":
		h.handleIntervalCallback(ctx, s, callback, parts[1])
	case "remind":
		h.handleRemindCallback(ctx, s, callback, parts[1])
	case "remind_ack":
		h.handleAckCallback(ctx, s, callback, parts[1:])
	case "settings":
		h.handleSettingsCallback(ctx, s, callback, parts[1])
	default:
		h.answerCallback(callback.ID, "")
	}
}

func (h *Handlers) handleStart(ctx context.Context, s *session.Session, msg *tgbotapi.Message) {
	name := "there"
	if msg.From != nil && msg.From.FirstName != "" {
		name = msg.From.FirstName
	}
	h.sendMessage(msg.Chat.ID, "👋 Hi "+name+"!\n\n"+
		"I'll help you drink enough water today. Log each glass with /drink or the button below, "+
		"and turn on /reminders to get a nudge every few minutes.\n\n"+
		"Use /help to see all commands")
	h.handleStatus(ctx, s, msg)
}

func (h *Handlers) handleHelp(msg *tgbotapi.Message) {
	text := `📖 **Commands**

**Water**
/drink - Log a glass
/status - Today's progress
/reset - Start the count over
/goal <glasses> - Daily goal (4, 6, 8, 10, 12)

**Reminders**
/reminders - Turn reminders on or off
/interval <minutes> - Reminder interval
/test - Send a test notification

/settings - All settings
/stop - End the session and stop reminders

💡 You can also just send +1`
	h.sendMessage(msg.Chat.ID, text)
}

func (h *Handlers) handleStop(msg *tgbotapi.Message) {
	if !h.sessions.Close(msg.Chat.ID) {
		h.sendMessage(msg.Chat.ID, "Nothing to stop. Send /start to begin")
		return
	}
	h.sendMessage(msg.Chat.ID, "👋 Session ended, reminders are off. Send /start to begin again")
}

// errorText turns a core error into something the user can act on.
func errorText(err error) string {
	switch {
	case errors.Is(err, models.ErrInvalidConfigValue):
		return "That value isn't available"
	case errors.Is(err, models.ErrPermissionUnavailable):
		return "Notifications aren't available in this chat, reminders stay off"
	case errors.Is(err, models.ErrPermissionDenied):
		return "Reminders need your permission. Use /reminders to allow them"
	case errors.Is(err, models.ErrAlertDeliveryFailed):
		return "The notification could not be delivered"
	case errors.Is(err, session.ErrSessionClosed):
		return "This session has ended. Send /start to begin again"
	case errors.Is(err, session.ErrUnknownAlert):
		return "This reminder was already handled"
	default:
		return "Something went wrong, please try again later"
	}
}

func (h *Handlers) answerCallback(callbackID string, text string) {
	answer := tgbotapi.NewCallback(callbackID, text)
	if _, err := h.api.Request(answer); err != nil {
		log.Printf("Failed to answer callback: %v", err)
	}
}

func (h *Handlers) answerCallbackWithAlert(callbackID string, text string) {
	answer := tgbotapi.NewCallbackWithAlert(callbackID, text)
	if _, err := h.api.Request(answer); err != nil {
		log.Printf("Failed to answer callback with alert: %v", err)
	}
}

func (h *Handlers) sendMessage(chatID int64, text string) {
	parsed := format.ParseMarkdown(text)
	msg := tgbotapi.NewMessage(chatID, parsed.Text)
	msg.Entities = parsed.Entities
	if _, err := h.api.Send(msg); err != nil {
		log.Printf("Failed to send message: %v", err)
	}
}

func (h *Handlers) sendMessageWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	parsed := format.ParseMarkdown(text)
	msg := tgbotapi.NewMessage(chatID, parsed.Text)
	msg.Entities = parsed.Entities
	msg.ReplyMarkup = keyboard
	if _, err := h.api.Send(msg); err != nil {
		log.Printf("Failed to send message with keyboard: %v", err)
	}
}

func (h *Handlers) editMessageWithKeyboard(chatID int64, messageID int, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	parsed := format.ParseMarkdown(text)
	edit := tgbotapi.NewEditMessageText(chatID, messageID, parsed.Text)
	edit.Entities = parsed.Entities
	edit.ReplyMarkup = &keyboard
	if _, err := h.api.Send(edit); err != nil {
		log.Printf("Failed to edit message with keyboard: %v", err)
	}
}

func (h *Handlers) deleteMessage(chatID int64, messageID int) {
	deleteMsg := tgbotapi.NewDeleteMessage(chatID, messageID)
	if _, err := h.api.Request(deleteMsg); err != nil {
		log.Printf("Failed to delete message: %v", err)
	}
}
