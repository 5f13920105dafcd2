// Package stats keeps the local focus and meditation counters.
package stats

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/harrisonrobin/steady/pkg/config"
)

const fileName = "stats.json"

type Meditation struct {
	Sessions int `json:"sessions" yaml:"sessions"`
	Minutes  int `json:"minutes" yaml:"minutes"`
}

type counters struct {
	Pomodoros  int        `json:"pomodoros_completed"`
	Meditation Meditation `json:"meditation"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Store is a JSON file of counters. It is never synced to the remote store.
type Store struct {
	Path string

	mu    sync.Mutex
	c     counters
	dirty bool
}

// NewStore opens stats.json in steady's config directory.
func NewStore() (*Store, error) {
	dir, err := config.GetXdgHome()
	if err != nil {
		return nil, err
	}
	return Open(filepath.Join(dir, fileName))
}

// Open reads the store at path. A missing file starts every counter at zero.
func Open(path string) (*Store, error) {
	s := &Store{Path: path}
	if err := s.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return s, nil
}

func (s *Store) Load() error {
	f, err := os.Open(s.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	var c counters
	if err := json.NewDecoder(f).Decode(&c); err != nil {
		return fmt.Errorf("unable to parse %s: %w", s.Path, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c = sanitize(c)
	s.dirty = false
	return nil
}

// sanitize drops negative counts a hand-edited file might carry.
func sanitize(c counters) counters {
	c.Pomodoros = max(c.Pomodoros, 0)
	c.Meditation.Sessions = max(c.Meditation.Sessions, 0)
	c.Meditation.Minutes = max(c.Meditation.Minutes, 0)
	return c
}

// Save writes the counters if they changed since the last load or save.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0700); err != nil {
		return err
	}

	f, err := os.Create(s.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s.c); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

// AddPomodoro records n finished focus sessions.
func (s *Store) AddPomodoro(n int) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c.Pomodoros += n
	s.touch()
}

// AddMeditationSession records one session. Negative minutes count as zero.
func (s *Store) AddMeditationSession(minutes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c.Meditation.Sessions++
	s.c.Meditation.Minutes += max(minutes, 0)
	s.touch()
}

func (s *Store) touch() {
	s.c.UpdatedAt = time.Now().UTC()
	s.dirty = true
}

func (s *Store) Pomodoros() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Pomodoros
}

func (s *Store) Meditation() Meditation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Meditation
}

// Reset zeroes every counter.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c = counters{}
	s.touch()
}
