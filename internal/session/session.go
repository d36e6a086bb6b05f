// Package session composes the hydration counter, the permission gateway and
// the reminder scheduler of one chat, and runs them on a single event loop.
//
// Every mutation happens on the goroutine running Run. Public methods queue an
// intent and wait for the loop to answer with a Snapshot, so callers see
// their result synchronously while ticks, timers and intents never interleave.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/hray3182/Hydrate/internal/clock"
	"github.com/hray3182/Hydrate/internal/models"
	"github.com/hray3182/Hydrate/internal/rrule"
	"github.com/hray3182/Hydrate/internal/scheduler"
)

var (
	ErrSessionClosed = errors.New("session closed")
	// ErrUnknownAlert is returned when an acknowledgment does not match the
	// reminder currently awaiting one, e.g. a prompt tapped twice.
	ErrUnknownAlert = errors.New("reminder already acknowledged")
)

const DefaultCelebration = 5 * time.Second

// Permissions is the part of the permission gateway a session drives.
type Permissions interface {
	Supported() bool
	Query() models.PermissionState
	Request(ctx context.Context) models.PermissionState
	Resolve(granted bool) bool
}

// Observer receives the events the display surface turns into transient
// effects. Methods are called from the session loop and must not call back
// into the session synchronously.
type Observer interface {
	OnGoalReached(chatID int64, ev models.GoalReached)
	OnCelebrationEnded(chatID int64)
	OnAlertFired(chatID int64, ev models.AlertFired)
	OnDayRollover(chatID int64, snap Snapshot)
	OnPermissionResolved(chatID int64, snap Snapshot, err error)
}

// Snapshot is a copy of the session state after an operation.
type Snapshot struct {
	ChatID      int64
	Hydration   models.HydrationState
	Reminders   models.ReminderConfig
	Permission  models.PermissionState
	Active      bool
	Celebrating bool
	Requesting  bool
}

type Deps struct {
	Clock     clock.Clock
	Gateway   Permissions
	Scheduler *scheduler.Scheduler
	Observer  Observer
}

type Options struct {
	Goal            int
	IntervalMinutes int
	Celebration     time.Duration
	// Rollover resets the counter at each occurrence. Nil disables it.
	Rollover *rrule.Schedule
}

type result struct {
	snap Snapshot
	err  error
}

type intent struct {
	fn    func(ctx context.Context) error
	reply chan result
}

type Session struct {
	chatID  int64
	clock   clock.Clock
	gateway Permissions
	sched   *scheduler.Scheduler
	obs     Observer
	opts    Options

	intents chan intent
	done    chan struct{}

	// Loop-owned state.
	hydration    *models.HydrationState
	interval     int
	pendingAlert string
	requesting   bool
	celebration  clock.Timer
	rollover     clock.Timer
}

func New(chatID int64, deps Deps, opts Options) (*Session, error) {
	if opts.Goal == 0 {
		opts.Goal = models.DefaultGoal
	}
	if opts.IntervalMinutes == 0 {
		opts.IntervalMinutes = models.DefaultIntervalMinutes
	}
	if opts.Celebration <= 0 {
		opts.Celebration = DefaultCelebration
	}
	if !models.IsAllowedInterval(opts.IntervalMinutes) {
		return nil, fmt.Errorf("interval %d minutes: %w", opts.IntervalMinutes, models.ErrInvalidConfigValue)
	}
	hydration, err := models.NewHydrationState(opts.Goal)
	if err != nil {
		return nil, err
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	if deps.Observer == nil {
		deps.Observer = nopObserver{}
	}

	return &Session{
		chatID:    chatID,
		clock:     deps.Clock,
		gateway:   deps.Gateway,
		sched:     deps.Scheduler,
		obs:       deps.Observer,
		opts:      opts,
		intents:   make(chan intent),
		done:      make(chan struct{}),
		hydration: hydration,
		interval:  opts.IntervalMinutes,
	}, nil
}

func (s *Session) ChatID() int64 {
	return s.chatID
}

// Done is closed once Run has returned and the scheduler is torn down.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Run processes intents, reminder ticks and timers until ctx is done, then
// tears the scheduler down. It must be called exactly once.
func (s *Session) Run(ctx context.Context) error {
	defer s.teardown()

	if _, err := s.sched.Configure(ctx, models.ReminderConfig{IntervalMinutes: s.interval}); err != nil {
		log.Printf("Failed to configure reminders for chat %d: %v", s.chatID, err)
	}
	s.armRollover()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case in := <-s.intents:
			err := in.fn(ctx)
			if in.reply != nil {
				in.reply <- result{snap: s.snapshot(), err: err}
			}

		case now := <-s.sched.Ticks():
			s.fire(ctx, now)

		case <-timerC(s.celebration):
			s.celebration = nil
			s.obs.OnCelebrationEnded(s.chatID)

		case now := <-timerC(s.rollover):
			s.rollover = nil
			s.rollOver(now)
		}
	}
}

// AddGlass logs one glass of water.
func (s *Session) AddGlass(ctx context.Context) (Snapshot, error) {
	return s.do(ctx, func(context.Context) error {
		s.addGlass()
		return nil
	})
}

// Reset zeroes the intake and ends a running celebration.
func (s *Session) Reset(ctx context.Context) (Snapshot, error) {
	return s.do(ctx, func(context.Context) error {
		s.reset()
		return nil
	})
}

func (s *Session) SetGoal(ctx context.Context, goal int) (Snapshot, error) {
	return s.do(ctx, func(context.Context) error {
		return s.hydration.SetGoal(goal)
	})
}

// SetInterval changes the reminder period. Active reminders are rearmed at the
// new period; an interval outside the allowed set changes nothing.
func (s *Session) SetInterval(ctx context.Context, minutes int) (Snapshot, error) {
	return s.do(ctx, func(ctx context.Context) error {
		if !models.IsAllowedInterval(minutes) {
			return fmt.Errorf("interval %d minutes: %w", minutes, models.ErrInvalidConfigValue)
		}
		s.interval = minutes
		_, err := s.sched.Configure(ctx, models.ReminderConfig{
			IntervalMinutes: minutes,
			Enabled:         s.sched.Config().Enabled,
		})
		return err
	})
}

// ToggleReminders turns reminders off when they are on. Turning them on
// without a granted permission asks the user first; the outcome arrives
// later through Observer.OnPermissionResolved.
func (s *Session) ToggleReminders(ctx context.Context) (Snapshot, error) {
	return s.do(ctx, func(ctx context.Context) error {
		if s.sched.Config().Enabled {
			_, err := s.sched.Configure(ctx, models.ReminderConfig{IntervalMinutes: s.interval})
			return err
		}
		if !s.gateway.Supported() {
			return models.ErrPermissionUnavailable
		}
		if s.gateway.Query() == models.PermissionGranted {
			_, err := s.sched.Configure(ctx, models.ReminderConfig{IntervalMinutes: s.interval, Enabled: true})
			if !errors.Is(err, models.ErrPermissionDenied) {
				return err
			}
			// Revoked since the last check; ask again.
		}
		s.requestPermission(ctx)
		return nil
	})
}

// ResolvePermission answers a pending consent prompt. It is safe to call from
// any goroutine and returns false when no prompt is waiting.
func (s *Session) ResolvePermission(granted bool) bool {
	return s.gateway.Resolve(granted)
}

// Acknowledge answers the reminder prompt alertID. A logged acknowledgment
// counts a glass. Anything but the latest unanswered reminder is ignored and
// reported as ErrUnknownAlert.
func (s *Session) Acknowledge(ctx context.Context, alertID string, logged bool) (Snapshot, error) {
	return s.do(ctx, func(context.Context) error {
		if alertID == "" || alertID != s.pendingAlert {
			return ErrUnknownAlert
		}
		s.pendingAlert = ""
		if logged {
			s.addGlass()
		}
		return nil
	})
}

// TestNotification sends a one-shot test notification.
func (s *Session) TestNotification(ctx context.Context) (Snapshot, error) {
	return s.do(ctx, func(ctx context.Context) error {
		return s.sched.Test(ctx)
	})
}

func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	return s.do(ctx, func(context.Context) error { return nil })
}

func (s *Session) do(ctx context.Context, fn func(ctx context.Context) error) (Snapshot, error) {
	reply := make(chan result, 1)
	select {
	case s.intents <- intent{fn: fn, reply: reply}:
	case <-s.done:
		return Snapshot{}, ErrSessionClosed
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}

	select {
	case r := <-reply:
		return r.snap, r.err
	case <-s.done:
		select {
		case r := <-reply:
			return r.snap, r.err
		default:
			return Snapshot{}, ErrSessionClosed
		}
	}
}

// post queues fn without waiting for it. Used by background work that reports
// back to the loop.
func (s *Session) post(fn func(ctx context.Context) error) bool {
	select {
	case s.intents <- intent{fn: fn}:
		return true
	case <-s.done:
		return false
	}
}

func (s *Session) addGlass() {
	intake, reached := s.hydration.AddGlass()
	if !reached {
		return
	}
	now := s.clock.Now()
	s.startCelebration()
	s.obs.OnGoalReached(s.chatID, models.GoalReached{Intake: intake, Goal: s.hydration.Goal, At: now})
}

func (s *Session) reset() {
	s.hydration.Reset()
	if s.celebration != nil {
		s.celebration.Stop()
		s.celebration = nil
		s.obs.OnCelebrationEnded(s.chatID)
	}
}

func (s *Session) startCelebration() {
	if s.celebration != nil {
		s.celebration.Stop()
	}
	s.celebration = s.clock.NewTimer(s.opts.Celebration)
}

// requestPermission prompts on its own goroutine and posts the answer back.
// ctx is the loop context, so closing the session abandons the prompt.
func (s *Session) requestPermission(ctx context.Context) {
	if s.requesting {
		return
	}
	s.requesting = true

	go func() {
		state := s.gateway.Request(ctx)
		s.post(func(ctx context.Context) error {
			s.requesting = false
			s.permissionResolved(ctx, state)
			return nil
		})
	}()
}

func (s *Session) permissionResolved(ctx context.Context, state models.PermissionState) {
	var err error
	if state == models.PermissionGranted {
		_, err = s.sched.Configure(ctx, models.ReminderConfig{IntervalMinutes: s.interval, Enabled: true})
	} else {
		if _, cerr := s.sched.Configure(ctx, models.ReminderConfig{IntervalMinutes: s.interval}); cerr != nil {
			log.Printf("Failed to disable reminders for chat %d: %v", s.chatID, cerr)
		}
		err = fmt.Errorf("notification permission %s: %w", state, models.ErrPermissionDenied)
	}
	s.obs.OnPermissionResolved(s.chatID, s.snapshot(), err)
}

func (s *Session) fire(ctx context.Context, now time.Time) {
	alert, err := s.sched.Fire(ctx, now)
	if err != nil && alert == nil {
		log.Printf("Failed to fire reminder for chat %d: %v", s.chatID, err)
	}
	if alert == nil {
		return
	}
	s.pendingAlert = alert.ID
	s.obs.OnAlertFired(s.chatID, *alert)
}

func (s *Session) armRollover() {
	if s.opts.Rollover == nil {
		return
	}
	now := s.clock.Now()
	next, ok := s.opts.Rollover.Next(now)
	if !ok {
		log.Printf("Day reset rule %q has no further occurrences", s.opts.Rollover)
		return
	}
	s.rollover = s.clock.NewTimer(next.Sub(now))
}

func (s *Session) rollOver(now time.Time) {
	log.Printf("New day for chat %d at %s", s.chatID, now.Format(time.RFC3339))
	s.reset()
	s.armRollover()
	s.obs.OnDayRollover(s.chatID, s.snapshot())
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		ChatID:      s.chatID,
		Hydration:   *s.hydration,
		Reminders:   s.sched.Config(),
		Permission:  s.gateway.Query(),
		Active:      s.sched.State() == scheduler.StateActive,
		Celebrating: s.celebration != nil,
		Requesting:  s.requesting,
	}
}

func (s *Session) teardown() {
	s.sched.Stop()
	if s.celebration != nil {
		s.celebration.Stop()
		s.celebration = nil
	}
	if s.rollover != nil {
		s.rollover.Stop()
		s.rollover = nil
	}
	close(s.done)
	log.Printf("Session %d closed", s.chatID)
}

func timerC(t clock.Timer) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C()
}

type nopObserver struct{}

func (nopObserver) OnGoalReached(int64, models.GoalReached)     {}
func (nopObserver) OnCelebrationEnded(int64)                    {}
func (nopObserver) OnAlertFired(int64, models.AlertFired)       {}
func (nopObserver) OnDayRollover(int64, Snapshot)               {}
func (nopObserver) OnPermissionResolved(int64, Snapshot, error) {}
