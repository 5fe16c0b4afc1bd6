// Package session tracks who is signed in and keeps the bearer token in sync
// between memory, the REST client and persistent storage.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Veraticus/walletflow/internal/common"
	"github.com/Veraticus/walletflow/internal/model"
	"github.com/Veraticus/walletflow/internal/notify"
	"github.com/Veraticus/walletflow/internal/service"
)

// State is the authentication state of a Session.
type State string

// Session states.
const (
	StateAnonymous      State = "anonymous"
	StateAuthenticating State = "authenticating"
	StateAuthenticated  State = "authenticated"
	StateRefreshFailed  State = "refresh_failed"
)

// Snapshot is a copy of the session state handed to subscribers.
type Snapshot struct {
	User  *model.User
	State State
	Error string
}

// Authenticated reports whether the snapshot describes a signed-in user.
func (s Snapshot) Authenticated() bool {
	return s.State == StateAuthenticated
}

// Session owns the authentication lifecycle.
type Session struct {
	api      service.AuthAPI
	tokens   service.TokenStore
	logger   *slog.Logger
	notifier *notify.Notifier[Snapshot]
	user     *model.User
	lastErr  error
	state    State
	token    string
	mu       sync.Mutex
}

// New creates an anonymous session.
func New(api service.AuthAPI, tokens service.TokenStore) *Session {
	return &Session{
		api:      api,
		tokens:   tokens,
		logger:   common.ComponentLogger("session"),
		notifier: notify.New[Snapshot](),
		state:    StateAnonymous,
	}
}

// Subscribe registers fn to be called after every state change.
func (s *Session) Subscribe(fn func(Snapshot)) func() {
	return s.notifier.Subscribe(fn)
}

// Close stops change notifications.
func (s *Session) Close() {
	s.notifier.Stop()
}

// Login signs in with email and password.
func (s *Session) Login(ctx context.Context, creds model.Credentials) error {
	return s.authenticate(ctx, "login", func() (model.AuthResponse, error) {
		return s.api.SignIn(ctx, creds)
	})
}

// Register creates an account and signs in to it.
func (s *Session) Register(ctx context.Context, creds model.Credentials) error {
	return s.authenticate(ctx, "register", func() (model.AuthResponse, error) {
		return s.api.SignUp(ctx, creds)
	})
}

func (s *Session) authenticate(ctx context.Context, op string, call func() (model.AuthResponse, error)) error {
	s.mu.Lock()
	s.state = StateAuthenticating
	s.lastErr = nil
	s.publishLocked()
	s.mu.Unlock()

	resp, err := call()
	if err == nil && resp.Token == "" {
		err = fmt.Errorf("%s: server returned no token", op)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.logger.Warn("Authentication failed", "op", op, "error", err)
		s.resetLocked(StateAnonymous, err)
		s.publishLocked()
		return err
	}

	user := resp.User
	s.token = resp.Token
	s.user = &user
	s.state = StateAuthenticated
	s.api.SetToken(resp.Token)

	if saveErr := s.tokens.SaveSession(ctx, model.Session{Token: resp.Token, User: &user}); saveErr != nil {
		s.logger.Warn("Failed to persist session", "error", saveErr)
	}

	s.logger.Info("Signed in", "op", op, "user", user.Email)
	s.publishLocked()
	return nil
}

// Refresh restores a session from the in-memory or persisted token and
// verifies it against the server. Without any token it returns ErrNoToken.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()

	if token == "" {
		persisted, err := s.tokens.LoadSession(ctx)
		switch {
		case errors.Is(err, common.ErrNotFound):
		case err != nil:
			return fmt.Errorf("failed to load session: %w", err)
		case persisted != nil:
			token = persisted.Token
		}
	}
	if token == "" {
		return common.ErrNoToken
	}

	s.mu.Lock()
	s.state = StateAuthenticating
	s.token = token
	s.lastErr = nil
	s.api.SetToken(token)
	s.publishLocked()
	s.mu.Unlock()

	user, err := s.api.CurrentUser(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.logger.Warn("Session refresh failed", "error", err)
		s.resetLocked(StateRefreshFailed, err)
		if clearErr := s.tokens.ClearSession(ctx); clearErr != nil {
			s.logger.Warn("Failed to clear persisted session", "error", clearErr)
		}
		s.publishLocked()
		return err
	}

	s.user = &user
	s.state = StateAuthenticated
	if saveErr := s.tokens.SaveSession(ctx, model.Session{Token: token, User: &user}); saveErr != nil {
		s.logger.Warn("Failed to persist session", "error", saveErr)
	}
	s.publishLocked()
	return nil
}

// Logout revokes the token on the server and always clears it locally.
// The remote error, if any, is returned after local state is cleared.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateAnonymous && s.token == "" {
		s.mu.Unlock()
		return nil
	}
	hadToken := s.token != ""
	s.mu.Unlock()

	var remoteErr error
	if hadToken {
		if err := s.api.SignOut(ctx); err != nil {
			s.logger.Warn("Remote sign-out failed", "error", err)
			remoteErr = err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetLocked(StateAnonymous, nil)
	if err := s.tokens.ClearSession(ctx); err != nil {
		s.logger.Warn("Failed to clear persisted session", "error", err)
	}
	s.publishLocked()
	return remoteErr
}

// State returns the current authentication state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsAuthenticated reports whether a user is signed in.
func (s *Session) IsAuthenticated() bool {
	return s.State() == StateAuthenticated
}

// User returns a copy of the signed-in user, or nil.
func (s *Session) User() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// LastError returns the error of the most recent failed operation.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) resetLocked(state State, err error) {
	s.state = state
	s.token = ""
	s.user = nil
	s.lastErr = err
	s.api.SetToken("")
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{State: s.state, Error: common.UserMessage(s.lastErr)}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

func (s *Session) publishLocked() {
	s.notifier.Publish(s.snapshotLocked())
}
