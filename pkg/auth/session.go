package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/harrisonrobin/steady/pkg/config"
	"github.com/harrisonrobin/steady/pkg/model"
	"golang.org/x/oauth2"
)

// SessionFile holds the backend credential and cached user fields.
const SessionFile = "session.json"

// Credentials gives the fetch client access to the stored bearer credential.
type Credentials interface {
	// Token returns the stored credential, or false when there is none.
	Token() (*oauth2.Token, bool)
	// Clear forgets the credential.
	Clear() error
}

// Session is the signed-in state persisted between runs.
type Session struct {
	Token *oauth2.Token `json:"token,omitempty"`
	User  *model.User   `json:"user,omitempty"`
}

// NewBearerToken wraps a backend JWT. The expiry is read from the token's
// exp claim when present.
func NewBearerToken(raw string) *oauth2.Token {
	return &oauth2.Token{
		AccessToken: raw,
		TokenType:   "Bearer",
		Expiry:      jwtExpiry(raw),
	}
}

func jwtExpiry(raw string) time.Time {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return time.Time{}
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return time.Time{}
	}
	var claims struct {
		Exp int64 `json:"exp"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil || claims.Exp == 0 {
		return time.Time{}
	}
	return time.Unix(claims.Exp, 0)
}

func usable(tok *oauth2.Token) bool {
	if tok == nil || tok.AccessToken == "" {
		return false
	}
	return tok.Expiry.IsZero() || tok.Expiry.After(time.Now())
}

// SessionStore keeps the session in a JSON file readable only by the owner.
type SessionStore struct {
	Path    string
	mu      sync.RWMutex
	session Session
}

// NewSessionStore opens the session file in steady's config directory.
func NewSessionStore() (*SessionStore, error) {
	dir, err := config.GetXdgHome()
	if err != nil {
		return nil, err
	}
	return OpenSessionStore(filepath.Join(dir, SessionFile))
}

// OpenSessionStore loads path if it exists.
func OpenSessionStore(path string) (*SessionStore, error) {
	s := &SessionStore{Path: path}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&s.session); err != nil {
		return nil, fmt.Errorf("failed to decode session from file %s: %w", path, err)
	}
	return s, nil
}

func (s *SessionStore) Token() (*oauth2.Token, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !usable(s.session.Token) {
		return nil, false
	}
	tok := *s.session.Token
	return &tok, true
}

// User returns the cached account record, if any.
func (s *SessionStore) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session.User == nil {
		return nil
	}
	u := *s.session.User
	return &u
}

// Save stores a fresh credential. A nil user keeps the cached one.
func (s *SessionStore) Save(tok *oauth2.Token, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Token = tok
	if user != nil {
		s.session.User = user
	}
	return s.write()
}

// SetUser replaces the cached account record and keeps the credential.
func (s *SessionStore) SetUser(user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.User = user
	return s.write()
}

func (s *SessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = Session{}
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("could not delete session file '%s': %w", s.Path, err)
	}
	return nil
}

func (s *SessionStore) write() error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	f, err := os.OpenFile(s.Path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to store session in %s: %w", s.Path, err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(s.session)
}

// MemoryStore is an in-process Credentials implementation.
type MemoryStore struct {
	mu      sync.Mutex
	tok     *oauth2.Token
	cleared int
}

func NewMemoryStore(raw string) *MemoryStore {
	m := &MemoryStore{}
	if raw != "" {
		m.tok = NewBearerToken(raw)
	}
	return m
}

func (m *MemoryStore) Token() (*oauth2.Token, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !usable(m.tok) {
		return nil, false
	}
	tok := *m.tok
	return &tok, true
}

func (m *MemoryStore) Set(raw string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tok = NewBearerToken(raw)
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tok = nil
	m.cleared++
	return nil
}

// Cleared reports how many times Clear was called.
func (m *MemoryStore) Cleared() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cleared
}
