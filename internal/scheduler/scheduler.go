// Package scheduler owns the recurring water reminder.
//
// A Scheduler is either Idle or Active. Configure is the only way in or out
// of Active and always stops the current ticker before creating a new one, so
// at most one ticker is live at any time. The Scheduler is not safe for
// concurrent use; the owning session serializes every call on its event loop
// and reads ticks from Ticks.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/hray3182/Hydrate/internal/clock"
	"github.com/hray3182/Hydrate/internal/models"
)

// Notifier raises a popup. Reminder prompts carry an alert ID and must offer
// the user a way to acknowledge them.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// AudioCue plays a short fixed clip from the beginning.
type AudioCue interface {
	Play(ctx context.Context) error
}

// Haptics vibrates the device. Optional.
type Haptics interface {
	Vibrate(ctx context.Context, pattern []time.Duration) error
}

// Tips writes the body of a reminder. Optional.
type Tips interface {
	ReminderBody(ctx context.Context) (string, error)
}

// Permissions is the part of the permission gateway the scheduler needs.
type Permissions interface {
	Supported() bool
	Refresh(ctx context.Context) models.PermissionState
	Query() models.PermissionState
	Revoke()
}

// Ports bundles the platform capabilities an alert is delivered through.
type Ports struct {
	Notifier Notifier
	Cue      AudioCue
	Haptics  Haptics
	Tips     Tips
}

// Options tune delivery.
type Options struct {
	Icon          string
	Quiet         models.QuietHours
	HapticPattern []time.Duration
	TipTimeout    time.Duration
}

// State of the reminder timer.
type State int

const (
	StateIdle State = iota
	StateActive
)

func (s State) String() string {
	if s == StateActive {
		return "active"
	}
	return "idle"
}

const (
	reminderTitle  = "Water Reminder"
	reminderBody   = "Time to drink a glass of water!"
	activatedTitle = "Water Reminder Activated"
	testTitle      = "Water Reminder Test"
	testBody       = "This is a test notification. Notifications are working!"
)

var defaultHapticPattern = []time.Duration{200 * time.Millisecond, 100 * time.Millisecond, 200 * time.Millisecond}

type Scheduler struct {
	clock clock.Clock
	perms Permissions
	ports Ports
	opts  Options

	config models.ReminderConfig
	ticker clock.Ticker
}

func New(clk clock.Clock, perms Permissions, ports Ports, opts Options) *Scheduler {
	if len(opts.HapticPattern) == 0 {
		opts.HapticPattern = defaultHapticPattern
	}
	if opts.TipTimeout <= 0 {
		opts.TipTimeout = 5 * time.Second
	}
	return &Scheduler{
		clock:  clk,
		perms:  perms,
		ports:  ports,
		opts:   opts,
		config: models.DefaultReminderConfig(),
	}
}

// State reports whether a ticker is live.
func (s *Scheduler) State() State {
	if s.ticker != nil {
		return StateActive
	}
	return StateIdle
}

// Config returns the effective configuration. Enabled is true only while the
// scheduler is Active.
func (s *Scheduler) Config() models.ReminderConfig {
	return s.config
}

// Ticks returns the channel of the live ticker, or nil while Idle. A nil
// channel blocks forever in a select, which is what an idle loop wants.
func (s *Scheduler) Ticks() <-chan time.Time {
	if s.ticker == nil {
		return nil
	}
	return s.ticker.C()
}

// Configure applies cfg and returns the effective configuration.
//
// An interval outside the allowed set is rejected before anything changes.
// Otherwise the current ticker is stopped first. Enabling re-validates the
// permission with the platform; when it is not granted the scheduler stays
// Idle, the returned config has Enabled=false and the error says why.
func (s *Scheduler) Configure(ctx context.Context, cfg models.ReminderConfig) (models.ReminderConfig, error) {
	if err := cfg.Validate(); err != nil {
		return s.config, err
	}

	s.cancel()
	s.config = cfg

	if !cfg.Enabled {
		log.Printf("Reminders disabled")
		return s.config, nil
	}

	if !s.perms.Supported() {
		s.config.Enabled = false
		return s.config, models.ErrPermissionUnavailable
	}
	if state := s.perms.Refresh(ctx); state != models.PermissionGranted {
		s.config.Enabled = false
		return s.config, fmt.Errorf("enable reminders (permission %s): %w", state, models.ErrPermissionDenied)
	}

	s.ticker = s.clock.NewTicker(cfg.Period())
	log.Printf("Reminders active every %d minutes", cfg.IntervalMinutes)

	s.notifyOnce(ctx, models.Notification{
		Title: activatedTitle,
		Body:  fmt.Sprintf("You'll be reminded every %d minutes to drink water.", cfg.IntervalMinutes),
		Icon:  s.opts.Icon,
	})
	return s.config, nil
}

// Fire delivers one reminder for a tick received from Ticks. It returns nil
// when the scheduler is Idle or the tick falls in quiet hours. Delivery
// errors are logged and returned joined; they never affect the ticker.
func (s *Scheduler) Fire(ctx context.Context, now time.Time) (*models.AlertFired, error) {
	if s.ticker == nil {
		return nil, nil
	}
	if s.opts.Quiet.Contains(now) {
		log.Printf("Reminder at %s skipped (quiet hours)", now.Format("15:04"))
		return nil, nil
	}

	alert := models.NewAlertFired(now)
	var errs []error

	if s.ports.Cue != nil {
		if err := s.ports.Cue.Play(ctx); err != nil {
			errs = append(errs, &models.AlertDeliveryError{Channel: "sound", Err: err})
		}
	}

	if s.ports.Notifier != nil {
		n := models.Notification{
			Title:   reminderTitle,
			Body:    s.reminderBody(ctx),
			Icon:    s.opts.Icon,
			AlertID: alert.ID,
		}
		if err := s.ports.Notifier.Notify(ctx, n); err != nil {
			if errors.Is(err, models.ErrPermissionDenied) {
				// Picked up by the next Configure; the schedule keeps running.
				s.perms.Revoke()
			}
			errs = append(errs, &models.AlertDeliveryError{Channel: "popup", Err: err})
		}
	}

	if s.ports.Haptics != nil {
		if err := s.ports.Haptics.Vibrate(ctx, s.opts.HapticPattern); err != nil {
			errs = append(errs, &models.AlertDeliveryError{Channel: "haptic", Err: err})
		}
	}

	for _, err := range errs {
		log.Printf("Failed to deliver reminder %s: %v", alert.ID, err)
	}
	return &alert, errors.Join(errs...)
}

// Test sends a one-shot test notification if permission is granted.
func (s *Scheduler) Test(ctx context.Context) error {
	if s.perms.Query() != models.PermissionGranted {
		return models.ErrPermissionDenied
	}
	if s.ports.Notifier == nil {
		return models.ErrPermissionUnavailable
	}
	err := s.ports.Notifier.Notify(ctx, models.Notification{Title: testTitle, Body: testBody, Icon: s.opts.Icon})
	if err != nil {
		if errors.Is(err, models.ErrPermissionDenied) {
			s.perms.Revoke()
		}
		return &models.AlertDeliveryError{Channel: "popup", Err: err}
	}
	return nil
}

// Stop tears the scheduler down. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.cancel()
	s.config.Enabled = false
}

func (s *Scheduler) cancel() {
	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	s.ticker = nil
}

func (s *Scheduler) notifyOnce(ctx context.Context, n models.Notification) {
	if s.ports.Notifier == nil {
		return
	}
	if err := s.ports.Notifier.Notify(ctx, n); err != nil {
		log.Printf("Failed to send notification %q: %v", n.Title, err)
	}
}

func (s *Scheduler) reminderBody(ctx context.Context) string {
	if s.ports.Tips == nil {
		return reminderBody
	}
	tipCtx, cancel := context.WithTimeout(ctx, s.opts.TipTimeout)
	defer cancel()

	body, err := s.ports.Tips.ReminderBody(tipCtx)
	if err != nil {
		log.Printf("Failed to get reminder tip: %v", err)
		return reminderBody
	}
	if body == "" {
		return reminderBody
	}
	return body
}
