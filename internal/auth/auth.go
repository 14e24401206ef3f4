package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"ai-assistant/internal/credentials"
)

const MinPasswordLength = 6

var (
	ErrEmptyField       = errors.New("username and password are required")
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrPasswordMismatch = errors.New("passwords do not match")

	// ErrInvalidCredentials wraps both unknown-user and wrong-password
	// failures so they render the same way.
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrAlreadyAuthenticated = errors.New("already logged in")
	ErrWrongMode            = errors.New("action not available in current mode")
)

// ValidationError is raised before the credential store is consulted.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// Store is the part of the credential store the authenticator needs.
type Store interface {
	Register(ctx context.Context, username, password string) error
	Authenticate(ctx context.Context, username, password string) error
}

type Authenticator struct {
	store Store
	log   *zap.Logger
}

func New(store Store, log *zap.Logger) *Authenticator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Authenticator{store: store, log: log}
}

// ToggleMode flips between login and registration. Authentication state is
// not touched.
func (a *Authenticator) ToggleMode(s *Session) Mode {
	return s.toggleMode()
}

func (a *Authenticator) SubmitLogin(ctx context.Context, s *Session, username, password string) error {
	if s.Authenticated() {
		return ErrAlreadyAuthenticated
	}
	if s.Mode() != ModeLogin {
		return ErrWrongMode
	}
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return &ValidationError{Err: ErrEmptyField}
	}

	if err := a.store.Authenticate(ctx, username, password); err != nil {
		if errors.Is(err, credentials.ErrNotFound) || errors.Is(err, credentials.ErrWrongPassword) {
			a.log.Warn("login rejected",
				zap.String("session", s.ID()),
				zap.String("user", username),
				zap.String("reason", err.Error()))
			return fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
		}
		a.log.Error("credential store failure", zap.String("session", s.ID()), zap.Error(err))
		return fmt.Errorf("authenticate: %w", err)
	}

	s.signIn(username)
	a.log.Info("login succeeded", zap.String("session", s.ID()), zap.String("user", username))
	return nil
}

// SubmitRegister validates locally, then creates the account. On success the
// session switches to login mode; it is not signed in.
func (a *Authenticator) SubmitRegister(ctx context.Context, s *Session, username, password, confirm string) error {
	if s.Authenticated() {
		return ErrAlreadyAuthenticated
	}
	if s.Mode() != ModeRegister {
		return ErrWrongMode
	}
	if err := ValidateRegistration(username, password, confirm); err != nil {
		return err
	}
	username = strings.TrimSpace(username)

	if err := a.store.Register(ctx, username, password); err != nil {
		if errors.Is(err, credentials.ErrAlreadyExists) {
			a.log.Warn("registration rejected", zap.String("session", s.ID()), zap.String("user", username))
			return err
		}
		a.log.Error("credential store failure", zap.String("session", s.ID()), zap.Error(err))
		return fmt.Errorf("register: %w", err)
	}

	s.setMode(ModeLogin)
	a.log.Info("user registered", zap.String("session", s.ID()), zap.String("user", username))
	return nil
}

// ValidateRegistration applies the form rules: required fields, matching
// confirmation, minimum password length.
func ValidateRegistration(username, password, confirm string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return &ValidationError{Err: ErrEmptyField}
	}
	if password != confirm {
		return &ValidationError{Err: ErrPasswordMismatch}
	}
	if len([]rune(password)) < MinPasswordLength {
		return &ValidationError{Err: ErrPasswordTooShort}
	}
	return nil
}

// Logout signs the session out and drops its transcript.
func (a *Authenticator) Logout(s *Session) {
	user, _ := s.CurrentUser()
	s.signOut()
	a.log.Info("logged out", zap.String("session", s.ID()), zap.String("user", user))
}

// UserMessage renders an authenticator error for display. Unknown users and
// wrong passwords produce the same text.
func UserMessage(err error) string {
	var ve *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return ve.Error()
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid username or password."
	case errors.Is(err, credentials.ErrAlreadyExists):
		return "That username is already taken."
	case errors.Is(err, ErrAlreadyAuthenticated), errors.Is(err, ErrWrongMode):
		return err.Error()
	default:
		return "Something went wrong, please try again."
	}
}
