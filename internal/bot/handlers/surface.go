package handlers

import (
	"errors"
	"fmt"
	"log"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hray3182/Hydrate/internal/format"
	"github.com/hray3182/Hydrate/internal/models"
	"github.com/hray3182/Hydrate/internal/platform/telegram"
	"github.com/hray3182/Hydrate/internal/session"
)

// Surface renders session events into the chat. The goal celebration is a
// message that is deleted again when the celebration ends.
type Surface struct {
	api telegram.Sender

	mu           sync.Mutex
	celebrations map[int64]int
}

func NewSurface(api telegram.Sender) *Surface {
	return &Surface{
		api:          api,
		celebrations: make(map[int64]int),
	}
}

func (s *Surface) OnGoalReached(chatID int64, ev models.GoalReached) {
	text := fmt.Sprintf("🎉🎉🎉\n\n**Goal reached!**\nThat's %s today. Well done!", format.GoalLabel(ev.Intake))
	parsed := format.ParseMarkdown(text)
	msg := tgbotapi.NewMessage(chatID, parsed.Text)
	msg.Entities = parsed.Entities

	sent, err := s.api.Send(msg)
	if err != nil {
		log.Printf("Failed to send celebration: %v", err)
		return
	}

	s.mu.Lock()
	prev := s.celebrations[chatID]
	s.celebrations[chatID] = sent.MessageID
	s.mu.Unlock()

	if prev != 0 {
		s.delete(chatID, prev)
	}
}

func (s *Surface) OnCelebrationEnded(chatID int64) {
	s.mu.Lock()
	msgID := s.celebrations[chatID]
	delete(s.celebrations, chatID)
	s.mu.Unlock()

	if msgID != 0 {
		s.delete(chatID, msgID)
	}
}

// OnAlertFired only logs; the notifier already put the prompt in the chat.
func (s *Surface) OnAlertFired(chatID int64, ev models.AlertFired) {
	log.Printf("Reminder %s fired for chat %d", ev.ID, chatID)
}

func (s *Surface) OnDayRollover(chatID int64, snap session.Snapshot) {
	text := "🌅 **New day!** Your count starts over.\n\n" + buildStatusText(snap)
	parsed := format.ParseMarkdown(text)
	msg := tgbotapi.NewMessage(chatID, parsed.Text)
	msg.Entities = parsed.Entities
	msg.ReplyMarkup = buildStatusKeyboard(snap)
	msg.DisableNotification = true
	if _, err := s.api.Send(msg); err != nil {
		log.Printf("Failed to send day rollover: %v", err)
	}
}

func (s *Surface) OnPermissionResolved(chatID int64, snap session.Snapshot, err error) {
	var text string
	switch {
	case err == nil && snap.Active:
		// The scheduler already announced activation.
		return
	case errors.Is(err, models.ErrPermissionDenied):
		text = "🔕 Reminders stay off. Use /reminders whenever you want to turn them on"
	case err != nil:
		log.Printf("Failed to enable reminders for chat %d: %v", chatID, err)
		text = errorText(err)
	default:
		return
	}

	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := s.api.Send(msg); err != nil {
		log.Printf("Failed to send permission result: %v", err)
	}
}

func (s *Surface) delete(chatID int64, msgID int) {
	deleteMsg := tgbotapi.NewDeleteMessage(chatID, msgID)
	if _, err := s.api.Request(deleteMsg); err != nil {
		log.Printf("Failed to delete celebration message %d: %v", msgID, err)
	}
}
