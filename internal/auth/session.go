package auth

import (
	"sync"

	"github.com/google/uuid"

	"ai-assistant/internal/history"
)

type Mode int

const (
	ModeLogin Mode = iota
	ModeRegister
)

func (m Mode) String() string {
	switch m {
	case ModeLogin:
		return "login"
	case ModeRegister:
		return "register"
	default:
		return "unknown"
	}
}

// Session is the state of one interactive user run. It is handed explicitly
// to the Authenticator and the chat Orchestrator.
type Session struct {
	mu            sync.RWMutex
	id            string
	mode          Mode
	authenticated bool
	user          string
	transcript    *history.Transcript
}

func NewSession() *Session {
	return &Session{
		id:         uuid.NewString(),
		mode:       ModeLogin,
		transcript: history.NewTranscript(),
	}
}

// ID identifies the session in logs and the interaction log.
func (s *Session) ID() string { return s.id }

func (s *Session) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// CurrentUser reports the signed-in username; ok is false while anonymous.
func (s *Session) CurrentUser() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.authenticated
}

func (s *Session) Transcript() *history.Transcript { return s.transcript }

func (s *Session) signIn(user string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = true
	s.user = user
	s.transcript.Reset()
}

func (s *Session) signOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = false
	s.user = ""
	s.mode = ModeLogin
	s.transcript.Reset()
}

func (s *Session) setMode(m Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
}

func (s *Session) toggleMode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == ModeLogin {
		s.mode = ModeRegister
	} else {
		s.mode = ModeLogin
	}
	return s.mode
}
