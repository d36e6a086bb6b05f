package session

import (
	"context"
	"log"
	"sync"
)

// Factory builds the session of a chat. It is called at most once per live
// session, with the manager's lock held.
type Factory func(chatID int64) (*Session, error)

// Manager keeps one running session per chat.
type Manager struct {
	ctx     context.Context
	factory Factory

	mu       sync.Mutex
	sessions map[int64]*running
	wg       sync.WaitGroup
}

type running struct {
	session *Session
	cancel  context.CancelFunc
}

// NewManager returns a Manager whose sessions stop when ctx is done.
func NewManager(ctx context.Context, factory Factory) *Manager {
	return &Manager{
		ctx:      ctx,
		factory:  factory,
		sessions: make(map[int64]*running),
	}
}

// GetOrStart returns the live session of chatID, starting a new one when
// there is none or the previous one has stopped.
func (m *Manager) GetOrStart(chatID int64) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.sessions[chatID]; ok {
		select {
		case <-r.session.Done():
			delete(m.sessions, chatID)
		default:
			return r.session, nil
		}
	}

	s, err := m.factory(chatID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(m.ctx)
	m.sessions[chatID] = &running{session: s, cancel: cancel}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		s.Run(ctx)
	}()

	log.Printf("Session %d started", chatID)
	return s, nil
}

// Get returns the live session of chatID without starting one.
func (m *Manager) Get(chatID int64) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.sessions[chatID]
	if !ok {
		return nil, false
	}
	select {
	case <-r.session.Done():
		return nil, false
	default:
		return r.session, true
	}
}

// Close tears down the session of chatID and waits until no reminder can
// fire for it. It returns false if the chat had no session.
func (m *Manager) Close(chatID int64) bool {
	m.mu.Lock()
	r, ok := m.sessions[chatID]
	delete(m.sessions, chatID)
	m.mu.Unlock()

	if !ok {
		return false
	}
	r.cancel()
	<-r.session.Done()
	return true
}

// Len returns the number of tracked sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown closes every session and waits for their loops to return.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	for id, r := range m.sessions {
		r.cancel()
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	m.wg.Wait()
	log.Println("All sessions closed")
}
