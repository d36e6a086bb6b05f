// Package telegram implements the notification, audio and consent
// capabilities of a single chat on top of the Telegram Bot API.
package telegram

import (
	"errors"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hray3182/Hydrate/internal/models"
)

// Sender is the subset of *tgbotapi.BotAPI the adapters use.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Callback data sent by the buttons these adapters attach.
const (
	CallbackPermAllow = "perm:allow"
	CallbackPermDeny  = "perm:deny"
	ackPrefix         = "remind_ack"
)

// AckData builds the callback data of a reminder acknowledgment button.
func AckData(alertID string, logged bool) string {
	action := "dismiss"
	if logged {
		action = "log"
	}
	return fmt.Sprintf("%s:%s:%s", ackPrefix, alertID, action)
}

// IsBlocked reports whether err means the user blocked the bot or the chat is
// gone, which is how notification permission gets revoked on Telegram.
func IsBlocked(err error) bool {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusForbidden
	}
	return false
}

// classify maps a blocked chat onto the permission taxonomy.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if IsBlocked(err) {
		return fmt.Errorf("%w: %v", models.ErrPermissionDenied, err)
	}
	return err
}
