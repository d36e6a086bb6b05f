package telegram

import (
	"context"
	"log"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hray3182/Hydrate/internal/format"
	"github.com/hray3182/Hydrate/internal/models"
)

const consentText = "🔔 **Allow water reminders?**\n\nI'll send you a reminder to drink water on the interval you choose."

// Consent is the permission capability of one chat. The user answers the
// prompt with an inline button; the bot's callback handler calls Resolve.
type Consent struct {
	api    Sender
	chatID int64

	mu        sync.Mutex
	decision  models.PermissionState
	pending   chan bool
	promptMsg int
}

func NewConsent(api Sender, chatID int64) *Consent {
	return &Consent{api: api, chatID: chatID}
}

func (c *Consent) Supported() bool {
	return true
}

// Status probes the chat with a chat action. A 403 means the user blocked the
// bot; otherwise the last answer to the prompt stands.
func (c *Consent) Status(ctx context.Context) (models.PermissionState, error) {
	if err := ctx.Err(); err != nil {
		return models.PermissionUnknown, err
	}
	if _, err := c.api.Request(tgbotapi.NewChatAction(c.chatID, tgbotapi.ChatTyping)); err != nil {
		if IsBlocked(err) {
			c.setDecision(models.PermissionDenied)
			return models.PermissionDenied, nil
		}
		return models.PermissionUnknown, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.decision, nil
}

// Prompt sends the consent message and waits for Resolve or ctx.
// A chat that already granted, and is still reachable, resolves at once.
func (c *Consent) Prompt(ctx context.Context) (models.PermissionState, error) {
	if state, err := c.Status(ctx); err == nil && state == models.PermissionGranted {
		return state, nil
	}

	c.mu.Lock()
	if c.pending == nil {
		c.pending = make(chan bool, 1)
	}
	pending := c.pending
	c.mu.Unlock()

	parsed := format.ParseMarkdown(consentText)
	msg := tgbotapi.NewMessage(c.chatID, parsed.Text)
	msg.Entities = parsed.Entities
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Allow reminders", CallbackPermAllow),
			tgbotapi.NewInlineKeyboardButtonData("❌ Not now", CallbackPermDeny),
		),
	)
	sent, err := c.api.Send(msg)
	if err != nil {
		c.clearPending(pending)
		if IsBlocked(err) {
			c.setDecision(models.PermissionDenied)
			return models.PermissionDenied, nil
		}
		return models.PermissionUnknown, err
	}

	c.mu.Lock()
	c.promptMsg = sent.MessageID
	c.mu.Unlock()

	select {
	case granted := <-pending:
		state := models.PermissionDenied
		if granted {
			state = models.PermissionGranted
		}
		c.setDecision(state)
		return state, nil
	case <-ctx.Done():
		c.clearPending(pending)
		return models.PermissionUnknown, ctx.Err()
	}
}

// Resolve answers the pending prompt. It returns false if nothing is waiting.
func (c *Consent) Resolve(granted bool) bool {
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	msgID := c.promptMsg
	c.promptMsg = 0
	c.mu.Unlock()

	if pending == nil {
		return false
	}
	pending <- granted

	if msgID != 0 {
		deleteMsg := tgbotapi.NewDeleteMessage(c.chatID, msgID)
		if _, err := c.api.Request(deleteMsg); err != nil {
			log.Printf("Failed to delete consent message %d: %v", msgID, err)
		}
	}
	return true
}

func (c *Consent) setDecision(state models.PermissionState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decision = state
}

func (c *Consent) clearPending(ch chan bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == ch {
		c.pending = nil
		c.promptMsg = 0
	}
}
