package telegram

import (
	"context"
	"log"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hray3182/Hydrate/internal/format"
	"github.com/hray3182/Hydrate/internal/models"
)

// Notifier shows notifications as chat messages. Reminder prompts get
// acknowledgment buttons and replace the previous unanswered prompt.
type Notifier struct {
	api    Sender
	chatID int64

	mu         sync.Mutex
	lastPrompt int
}

func NewNotifier(api Sender, chatID int64) *Notifier {
	return &Notifier{api: api, chatID: chatID}
}

func (n *Notifier) Notify(ctx context.Context, note models.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if note.NeedsAck() {
		n.deleteLastPrompt()
	}

	text := "💧 **" + note.Title + "**\n\n" + note.Body
	parsed := format.ParseMarkdown(text)

	var markup any
	if note.NeedsAck() {
		markup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🥤 I drank a glass", AckData(note.AlertID, true)),
				tgbotapi.NewInlineKeyboardButtonData("Dismiss", AckData(note.AlertID, false)),
			),
		)
	}

	var chattable tgbotapi.Chattable
	if note.Icon != "" {
		photo := tgbotapi.NewPhoto(n.chatID, tgbotapi.FileURL(note.Icon))
		photo.Caption = parsed.Text
		photo.CaptionEntities = parsed.Entities
		photo.ReplyMarkup = markup
		chattable = photo
	} else {
		msg := tgbotapi.NewMessage(n.chatID, parsed.Text)
		msg.Entities = parsed.Entities
		msg.ReplyMarkup = markup
		chattable = msg
	}

	sent, err := n.api.Send(chattable)
	if err != nil {
		return classify(err)
	}

	if note.NeedsAck() {
		n.mu.Lock()
		n.lastPrompt = sent.MessageID
		n.mu.Unlock()
	}
	return nil
}

// deleteLastPrompt removes an unanswered prompt so reminders never pile up
func (n *Notifier) deleteLastPrompt() {
	n.mu.Lock()
	msgID := n.lastPrompt
	n.lastPrompt = 0
	n.mu.Unlock()

	if msgID == 0 {
		return
	}
	deleteMsg := tgbotapi.NewDeleteMessage(n.chatID, msgID)
	if _, err := n.api.Request(deleteMsg); err != nil {
		// The user may have deleted it already
		log.Printf("Failed to delete old reminder message %d: %v", msgID, err)
	}
}
