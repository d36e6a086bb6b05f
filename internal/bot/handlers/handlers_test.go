package handlers

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hray3182/Hydrate/internal/clock"
	"github.com/hray3182/Hydrate/internal/permission"
	"github.com/hray3182/Hydrate/internal/platform/telegram"
	"github.com/hray3182/Hydrate/internal/scheduler"
	"github.com/hray3182/Hydrate/internal/session"
)

type sentMessage struct {
	id int
	c  tgbotapi.Chattable
}

type mockSender struct {
	mu       sync.Mutex
	sent     []sentMessage
	requests []tgbotapi.Chattable
	nextID   int
}

func (m *mockSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.sent = append(m.sent, sentMessage{id: m.nextID, c: c})
	return tgbotapi.Message{MessageID: m.nextID}, nil
}

func (m *mockSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func textOf(c tgbotapi.Chattable) string {
	switch v := c.(type) {
	case tgbotapi.MessageConfig:
		return v.Text
	case tgbotapi.EditMessageTextConfig:
		return v.Text
	case tgbotapi.PhotoConfig:
		return v.Caption
	}
	return ""
}

// find returns the latest sent message containing substr.
func (m *mockSender) find(substr string) (sentMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if strings.Contains(textOf(m.sent[i].c), substr) {
			return m.sent[i], true
		}
	}
	return sentMessage{}, false
}

func (m *mockSender) waitFor(t *testing.T, substr string) sentMessage {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if msg, ok := m.find(substr); ok {
			return msg
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("no message containing %q; sent: %v", substr, m.texts())
	return sentMessage{}
}

func (m *mockSender) texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, s := range m.sent {
		out = append(out, textOf(s.c))
	}
	return out
}

func (m *mockSender) last() tgbotapi.Chattable {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return nil
	}
	return m.sent[len(m.sent)-1].c
}

func (m *mockSender) lastText() string {
	return textOf(m.last())
}

func (m *mockSender) lastAnswer() tgbotapi.CallbackConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.requests) - 1; i >= 0; i-- {
		if cb, ok := m.requests[i].(tgbotapi.CallbackConfig); ok {
			return cb
		}
	}
	return tgbotapi.CallbackConfig{}
}

func (m *mockSender) deleted(msgID int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.requests {
		if d, ok := r.(tgbotapi.DeleteMessageConfig); ok && d.MessageID == msgID {
			return true
		}
	}
	return false
}

func (m *mockSender) waitDeleted(t *testing.T, msgID int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.deleted(msgID) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("message %d was not deleted", msgID)
}

type fixture struct {
	api      *mockSender
	clock    *clock.Fake
	sessions *session.Manager
	h        *Handlers
}

const chatID int64 = 1001

func newFixture(t *testing.T, devMode bool) *fixture {
	t.Helper()
	f := &fixture{
		api:   &mockSender{},
		clock: clock.NewFake(time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)),
	}
	surface := NewSurface(f.api)

	f.sessions = session.NewManager(context.Background(), func(id int64) (*session.Session, error) {
		gw := permission.New(telegram.NewConsent(f.api, id))
		sched := scheduler.New(f.clock, gw, scheduler.Ports{Notifier: telegram.NewNotifier(f.api, id)}, scheduler.Options{})
		return session.New(id, session.Deps{
			Clock:     f.clock,
			Gateway:   gw,
			Scheduler: sched,
			Observer:  surface,
		}, session.Options{})
	})
	t.Cleanup(f.sessions.Shutdown)

	f.h = New(f.api, f.sessions, devMode)
	return f
}

func command(text string) *tgbotapi.Message {
	cmdLen := len(text)
	if i := strings.Index(text, " "); i >= 0 {
		cmdLen = i
	}
	return &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: chatID},
		From:     &tgbotapi.User{ID: chatID, FirstName: "Ana"},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}},
	}
}

func callback(msgID int, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:      "cb-" + data,
		From:    &tgbotapi.User{ID: chatID},
		Message: &tgbotapi.Message{MessageID: msgID, Chat: &tgbotapi.Chat{ID: chatID}},
		Data:    data,
	}
}

func (f *fixture) run(text string) {
	f.h.HandleCommand(context.Background(), command(text))
}

func (f *fixture) tap(msgID int, data string) {
	f.h.HandleCallbackQuery(context.Background(), callback(msgID, data))
}

func TestStartShowsStatus(t *testing.T) {
	f := newFixture(t, false)
	f.run("/start")

	if _, ok := f.api.find("Hi Ana"); !ok {
		t.Errorf("expected greeting, got %v", f.api.texts())
	}
	status, ok := f.api.find("Today's water")
	if !ok {
		t.Fatalf("expected status, got %v", f.api.texts())
	}
	msg := status.c.(tgbotapi.MessageConfig)
	if !strings.Contains(msg.Text, "0 / 8") || !strings.Contains(msg.Text, "Reminders: off") {
		t.Errorf("unexpected status %q", msg.Text)
	}
	if _, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup); !ok {
		t.Errorf("expected inline keyboard, got %T", msg.ReplyMarkup)
	}
}

func TestDrinkAndReset(t *testing.T) {
	f := newFixture(t, false)

	f.run("/drink")
	f.run("/drink")
	if got := f.api.lastText(); !strings.Contains(got, "2 / 8") || !strings.Contains(got, "6 more glasses") {
		t.Fatalf("unexpected status %q", got)
	}

	f.run("/reset")
	if got := f.api.lastText(); !strings.Contains(got, "0 / 8") {
		t.Fatalf("unexpected status after reset %q", got)
	}

	f.h.HandleMessage(context.Background(), &tgbotapi.Message{Text: "+1", Chat: &tgbotapi.Chat{ID: chatID}})
	if got := f.api.lastText(); !strings.Contains(got, "1 / 8") {
		t.Fatalf("+1 should log a glass, got %q", got)
	}

	f.h.HandleMessage(context.Background(), &tgbotapi.Message{Text: "hello", Chat: &tgbotapi.Chat{ID: chatID}})
	if got := f.api.lastText(); !strings.Contains(got, "/drink") {
		t.Fatalf("expected a usage hint, got %q", got)
	}
}

func TestGoalCommand(t *testing.T) {
	f := newFixture(t, false)

	f.run("/goal 6")
	if got := f.api.lastText(); got != "🎯 Daily goal set to 6 glasses" {
		t.Fatalf("unexpected reply %q", got)
	}

	f.run("/goal 7")
	if got := f.api.lastText(); !strings.Contains(got, "isn't available") || !strings.Contains(got, "4, 6, 8, 10, 12") {
		t.Fatalf("unexpected reply %q", got)
	}

	f.run("/goal lots")
	if got := f.api.lastText(); !strings.Contains(got, "Usage: /goal 8") {
		t.Fatalf("unexpected reply %q", got)
	}

	f.run("/status")
	if got := f.api.lastText(); !strings.Contains(got, "0 / 6") {
		t.Fatalf("goal 7 must not replace 6, got %q", got)
	}
}

func TestIntervalCommand(t *testing.T) {
	f := newFixture(t, false)

	f.run("/interval 30")
	if got := f.api.lastText(); !strings.Contains(got, "30 minutes") || !strings.Contains(got, "/reminders") {
		t.Fatalf("unexpected reply %q", got)
	}

	f.run("/interval 15")
	if got := f.api.lastText(); !strings.Contains(got, "isn't available") {
		t.Fatalf("unexpected reply %q", got)
	}
	if got := f.clock.LiveTickers(); len(got) != 0 {
		t.Fatalf("idle session must not arm a ticker, got %v", got)
	}
}

func TestReminderFlow(t *testing.T) {
	f := newFixture(t, false)

	f.run("/reminders")
	consent := f.api.waitFor(t, "Allow water reminders?")

	f.tap(consent.id, telegram.CallbackPermAllow)
	f.api.waitFor(t, "Water Reminder Activated")
	if got := f.api.lastAnswer().Text; got != "Reminders allowed" {
		t.Errorf("unexpected callback answer %q", got)
	}
	if got := f.clock.LiveTickers(); len(got) != 1 || got[0] != 10*time.Minute {
		t.Fatalf("expected one 10m ticker, got %v", got)
	}

	f.clock.Advance(10 * time.Minute)
	prompt := f.api.waitFor(t, "Time to drink a glass of water!")

	markup := prompt.c.(tgbotapi.MessageConfig).ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	logData := *markup.InlineKeyboard[0][0].CallbackData
	if !strings.HasPrefix(logData, "remind_ack:") || !strings.HasSuffix(logData, ":log") {
		t.Fatalf("unexpected ack data %q", logData)
	}

	f.tap(prompt.id, logData)
	if !f.api.deleted(prompt.id) {
		t.Error("expected the prompt to be removed")
	}
	if got := f.api.lastText(); !strings.Contains(got, "1 / 8") {
		t.Fatalf("expected status with 1 glass, got %q", got)
	}

	// Tapping the same prompt again does not count twice.
	f.tap(prompt.id, logData)
	if got := f.api.lastAnswer().Text; got != "This reminder was already handled" {
		t.Errorf("unexpected callback answer %q", got)
	}
	f.run("/status")
	if got := f.api.lastText(); !strings.Contains(got, "1 / 8") {
		t.Fatalf("second tap must not count, got %q", got)
	}

	f.run("/reminders")
	if got := f.api.lastText(); got != "🔕 Reminders off" {
		t.Fatalf("unexpected reply %q", got)
	}
	if got := f.clock.LiveTickers(); len(got) != 0 {
		t.Fatalf("expected no tickers, got %v", got)
	}
}

func TestReminderPermissionDenied(t *testing.T) {
	f := newFixture(t, false)

	f.run("/reminders")
	consent := f.api.waitFor(t, "Allow water reminders?")
	f.tap(consent.id, telegram.CallbackPermDeny)

	f.api.waitFor(t, "Reminders stay off")
	if got := f.clock.LiveTickers(); len(got) != 0 {
		t.Fatalf("expected no tickers after denial, got %v", got)
	}

	f.run("/test")
	if got := f.api.lastText(); !strings.Contains(got, "need your permission") {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestExpiredPermissionCallback(t *testing.T) {
	f := newFixture(t, false)
	f.run("/status")

	f.tap(42, telegram.CallbackPermAllow)
	if got := f.api.lastAnswer().Text; got != "This request has expired" {
		t.Fatalf("unexpected answer %q", got)
	}
	if !f.api.deleted(42) {
		t.Error("expected the stale consent message removed")
	}
}

func TestCelebration(t *testing.T) {
	f := newFixture(t, false)
	f.run("/goal 4")

	for i := 0; i < 4; i++ {
		f.run("/drink")
	}
	celebration, ok := f.api.find("Goal reached!")
	if !ok {
		t.Fatalf("expected celebration, got %v", f.api.texts())
	}

	f.clock.Advance(session.DefaultCelebration)
	f.api.waitDeleted(t, celebration.id)
}

func TestWaterCallbacks(t *testing.T) {
	f := newFixture(t, false)
	f.run("/status")
	status, _ := f.api.find("Today's water")

	f.tap(status.id, "water:add")
	if got := f.api.lastAnswer().Text; got != "1 / 8" {
		t.Errorf("unexpected answer %q", got)
	}
	edit, ok := f.api.find("1 / 8")
	if !ok {
		t.Fatal("expected status edit")
	}
	if e, ok := edit.c.(tgbotapi.EditMessageTextConfig); !ok || e.MessageID != status.id {
		t.Fatalf("expected the status message edited in place, got %T", edit.c)
	}

	f.tap(status.id, "water:reset")
	if got := f.api.lastText(); !strings.Contains(got, "0 / 8") {
		t.Fatalf("unexpected status %q", got)
	}
}

func TestSettingsMenu(t *testing.T) {
	f := newFixture(t, false)
	f.run("/settings")
	menu, ok := f.api.find("Settings")
	if !ok {
		t.Fatal("expected settings menu")
	}

	f.tap(menu.id, "settings:goal")
	if got := f.api.lastText(); !strings.Contains(got, "Current goal: 8 glasses") {
		t.Fatalf("unexpected goal picker %q", got)
	}

	f.tap(menu.id, "goal:10")
	if got := f.api.lastText(); !strings.Contains(got, "Daily goal: 10 glasses") {
		t.Fatalf("unexpected settings %q", got)
	}

	f.tap(menu.id, "settings:interval")
	edit := f.api.last().(tgbotapi.EditMessageTextConfig)
	for _, row := range edit.ReplyMarkup.InlineKeyboard {
		for _, b := range row {
			if *b.CallbackData == "interval:1" || *b.CallbackData == "interval:5" {
				t.Errorf("testing interval %q shown outside dev mode", *b.CallbackData)
			}
		}
	}

	f.tap(menu.id, "interval:90")
	if got := f.api.lastText(); !strings.Contains(got, "Interval: 1.5 hours") {
		t.Fatalf("unexpected settings %q", got)
	}

	f.tap(menu.id, "settings:close")
	if !f.api.deleted(menu.id) {
		t.Error("expected settings menu deleted")
	}
}

func TestIntervalPickerDevMode(t *testing.T) {
	f := newFixture(t, true)
	kb := f.h.buildIntervalPickerKeyboard()

	var found bool
	for _, row := range kb.InlineKeyboard {
		for _, b := range row {
			if *b.CallbackData == "interval:1" {
				found = true
			}
		}
	}
	if !found {
		t.Error("dev mode should offer the 1 minute interval")
	}
}

func TestStop(t *testing.T) {
	f := newFixture(t, false)

	f.run("/stop")
	if got := f.api.lastText(); !strings.Contains(got, "Nothing to stop") {
		t.Fatalf("unexpected reply %q", got)
	}

	f.run("/drink")
	f.run("/stop")
	if got := f.api.lastText(); !strings.Contains(got, "Session ended") {
		t.Fatalf("unexpected reply %q", got)
	}
	if _, ok := f.sessions.Get(chatID); ok {
		t.Fatal("session still running after /stop")
	}

	f.run("/status")
	if got := f.api.lastText(); !strings.Contains(got, "0 / 8") {
		t.Fatalf("expected a fresh session, got %q", got)
	}
}

func TestUnknownCommand(t *testing.T) {
	f := newFixture(t, false)
	f.run("/dance")
	if got := f.api.lastText(); !strings.Contains(got, "/help") {
		t.Fatalf("unexpected reply %q", got)
	}
}
