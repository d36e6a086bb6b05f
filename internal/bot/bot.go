package bot

import (
	"context"
	"fmt"
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hray3182/Hydrate/internal/ai"
	"github.com/hray3182/Hydrate/internal/bot/handlers"
	"github.com/hray3182/Hydrate/internal/clock"
	"github.com/hray3182/Hydrate/internal/config"
	"github.com/hray3182/Hydrate/internal/permission"
	"github.com/hray3182/Hydrate/internal/platform/telegram"
	"github.com/hray3182/Hydrate/internal/rrule"
	"github.com/hray3182/Hydrate/internal/scheduler"
	"github.com/hray3182/Hydrate/internal/session"
)

type Bot struct {
	api     *tgbotapi.BotAPI
	cfg     *config.Config
	ai      *ai.Client
	clock   clock.Clock
	surface *handlers.Surface
}

func New(cfg *config.Config, aiClient *ai.Client) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	api.Debug = cfg.DevMode

	return &Bot{
		api:     api,
		cfg:     cfg,
		ai:      aiClient,
		clock:   clock.Real(),
		surface: handlers.NewSurface(api),
	}, nil
}

// Start polls for updates until ctx is done, then closes every session.
func (b *Bot) Start(ctx context.Context) error {
	log.Printf("Authorized on account %s", b.api.Self.UserName)

	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(handlers.Commands()...)); err != nil {
		log.Printf("Failed to set bot commands: %v", err)
	}

	sessions := session.NewManager(ctx, b.newSession)
	defer sessions.Shutdown()
	h := handlers.New(b.api, sessions, b.cfg.DevMode)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			go b.handleUpdate(ctx, h, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, h *handlers.Handlers, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		h.HandleCallbackQuery(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil {
		return
	}

	// Handle commands
	if update.Message.IsCommand() {
		h.HandleCommand(ctx, update.Message)
		return
	}

	h.HandleMessage(ctx, update.Message)
}

// newSession wires the Telegram capabilities of one chat into a session.
func (b *Bot) newSession(chatID int64) (*session.Session, error) {
	gateway := permission.New(telegram.NewConsent(b.api, chatID))

	ports := scheduler.Ports{
		Notifier: telegram.NewNotifier(b.api, chatID),
	}
	if cue := telegram.NewAudioCue(b.api, chatID, b.cfg.AudioCuePath); cue != nil {
		ports.Cue = cue
	}
	if b.ai != nil {
		ports.Tips = b.ai
	}

	sched := scheduler.New(b.clock, gateway, ports, scheduler.Options{
		Icon:  b.cfg.IconURL,
		Quiet: b.cfg.Quiet(),
	})

	var rollover *rrule.Schedule
	if b.cfg.DayResetRule != "" {
		var err error
		rollover, err = rrule.Parse(b.cfg.DayResetRule, time.Now(), b.cfg.Location)
		if err != nil {
			return nil, err
		}
	}

	return session.New(chatID, session.Deps{
		Clock:     b.clock,
		Gateway:   gateway,
		Scheduler: sched,
		Observer:  b.surface,
	}, session.Options{
		Goal:            b.cfg.DefaultGoal,
		IntervalMinutes: b.cfg.DefaultIntervalMinutes,
		Celebration:     b.cfg.Celebration,
		Rollover:        rollover,
	})
}
