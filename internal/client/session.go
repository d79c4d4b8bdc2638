package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gamehub/apiserver/types"
	"go.uber.org/zap"
)

// TokenStore persists the session token between runs.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// FileTokenStore keeps the token in a single file readable only by the
// current user.
type FileTokenStore struct {
	path string
}

func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// DefaultTokenPath is the token file under the user's config directory.
func DefaultTokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "gamehub", "token"), nil
}

func (f *FileTokenStore) Load() (string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (f *FileTokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(f.path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

func (f *FileTokenStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

// MemoryTokenStore keeps the token for the life of the process.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func (m *MemoryTokenStore) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryTokenStore) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryTokenStore) Clear() error {
	return m.Save("")
}

// Session is the signed-in user as seen by a client. Login, Logout,
// Update and expiry write it; everything else reads.
type Session struct {
	mu     sync.RWMutex
	client *Client
	store  TokenStore
	log    *zap.Logger
	token  string
	user   types.User
}

func NewSession(client *Client, store TokenStore, log *zap.Logger) *Session {
	if store == nil {
		store = &MemoryTokenStore{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{client: client, store: store, log: log}
}

// Init restores a persisted token and validates it against the server. A
// rejected token is discarded; Init then leaves the session signed out.
func (s *Session) Init(ctx context.Context) error {
	token, err := s.store.Load()
	if err != nil {
		return err
	}
	if token == "" {
		s.mu.Lock()
		s.token = ""
		s.user = types.User{}
		s.mu.Unlock()
		return nil
	}

	user, err := s.client.Me(ctx, token)
	if err != nil {
		if IsUnauthorized(err) || isStatus(err, http.StatusNotFound) {
			s.log.Info("stored session is no longer valid")
			return s.expire()
		}
		return err
	}

	s.mu.Lock()
	s.token = token
	s.user = user
	s.mu.Unlock()
	return nil
}

// Login signs in and persists the token.
func (s *Session) Login(ctx context.Context, email, password string) (types.User, error) {
	result, err := s.client.Login(ctx, email, password)
	if err != nil {
		return types.User{}, err
	}
	user, err := s.client.Me(ctx, result.Token)
	if err != nil {
		return types.User{}, err
	}
	if err := s.store.Save(result.Token); err != nil {
		return types.User{}, err
	}

	s.mu.Lock()
	s.token = result.Token
	s.user = user
	s.mu.Unlock()
	return user, nil
}

// Logout revokes the token on the server and clears the local session.
// The local session is cleared even when the server call fails.
func (s *Session) Logout(ctx context.Context) error {
	token := s.Token()
	var revokeErr error
	if token != "" {
		if err := s.client.Logout(ctx, token); err != nil && !IsUnauthorized(err) {
			revokeErr = err
		}
	}
	return errors.Join(revokeErr, s.expire())
}

// Update replaces the cached user, typically with a server response.
func (s *Session) Update(user types.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return
	}
	s.user = user.Normalize()
}

// updateFor is Update for a response obtained with token. It is dropped
// when the session has moved on to another token meanwhile.
func (s *Session) updateFor(token string, user types.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" || s.token != token {
		return
	}
	s.user = user.Normalize()
}

func (s *Session) expire() error {
	s.mu.Lock()
	s.token = ""
	s.user = types.User{}
	s.mu.Unlock()
	return s.store.Clear()
}

// expireToken signs out only if token is still the current one. It
// reports whether the session was cleared.
func (s *Session) expireToken(token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != token {
		return false, nil
	}
	s.token = ""
	s.user = types.User{}
	return true, s.store.Clear()
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) User() (types.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.token != ""
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}
