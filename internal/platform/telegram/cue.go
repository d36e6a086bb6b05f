package telegram

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// AudioCue plays the reminder clip as a voice message. The clip is uploaded
// once and replayed by file ID afterwards.
type AudioCue struct {
	api    Sender
	chatID int64
	path   string

	mu     sync.Mutex
	fileID string
}

// NewAudioCue returns a cue for the clip at path, or nil when path is empty.
func NewAudioCue(api Sender, chatID int64, path string) *AudioCue {
	if path == "" {
		return nil
	}
	return &AudioCue{api: api, chatID: chatID, path: path}
}

func (c *AudioCue) Play(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	var file tgbotapi.RequestFileData = tgbotapi.FilePath(c.path)
	if c.fileID != "" {
		file = tgbotapi.FileID(c.fileID)
	}
	c.mu.Unlock()

	sent, err := c.api.Send(tgbotapi.NewVoice(c.chatID, file))
	if err != nil {
		return classify(err)
	}

	if sent.Voice != nil && sent.Voice.FileID != "" {
		c.mu.Lock()
		c.fileID = sent.Voice.FileID
		c.mu.Unlock()
	}
	return nil
}
