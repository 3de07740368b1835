package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/usecase"
)

const (
	UserKey         = "user"
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"
)

// Session holds the tokens and cached profile of the signed-in user. It is
// read from storage once by Init and written through on every change.
type Session struct {
	store usecase.KeyValueStore

	mu           sync.RWMutex
	ready        bool
	accessToken  string
	refreshToken string
	user         *entity.UserProfile
}

func New(store usecase.KeyValueStore) *Session {
	return &Session{store: store}
}

// Init loads the persisted session. Calling it again is a no-op.
func (s *Session) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}

	access, err := s.readString(ctx, AccessTokenKey)
	if err != nil {
		return err
	}
	refresh, err := s.readString(ctx, RefreshTokenKey)
	if err != nil {
		return err
	}
	raw, ok, err := s.store.Get(ctx, UserKey)
	if err != nil {
		return fmt.Errorf("read %s: %w", UserKey, err)
	}
	if ok {
		var u entity.UserProfile
		if json.Unmarshal(raw, &u) == nil {
			s.user = &u
		}
	}

	s.accessToken, s.refreshToken = access, refresh
	s.ready = true
	return nil
}

func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

func (s *Session) Authenticated() bool {
	return s.AccessToken() != ""
}

// SetTokens stores a new token pair. An empty refresh token keeps the
// current one.
func (s *Session) SetTokens(ctx context.Context, access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeString(ctx, AccessTokenKey, access); err != nil {
		return err
	}
	s.accessToken = access
	if refresh != "" {
		if err := s.writeString(ctx, RefreshTokenKey, refresh); err != nil {
			return err
		}
		s.refreshToken = refresh
	}
	s.ready = true
	return nil
}

func (s *Session) User() (entity.UserProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return entity.UserProfile{}, false
	}
	return *s.user, true
}

func (s *Session) SetUser(ctx context.Context, u entity.UserProfile) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Put(ctx, UserKey, raw); err != nil {
		return fmt.Errorf("write %s: %w", UserKey, err)
	}
	s.user = &u
	return nil
}

// Clear signs the user out and removes every persisted session key.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken, s.refreshToken, s.user = "", "", nil
	var errs []error
	for _, key := range []string{AccessTokenKey, RefreshTokenKey, UserKey} {
		if err := s.store.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Session) readString(ctx context.Context, key string) (string, error) {
	raw, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return "", nil
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", nil
	}
	return v, nil
}

func (s *Session) writeString(ctx context.Context, key, v string) error {
	raw, _ := json.Marshal(v)
	if err := s.store.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
