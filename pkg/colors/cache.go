// Package colors gives each task category a stable Google Calendar colour.
package colors

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/harrisonrobin/steady/pkg/config"
	"github.com/sirupsen/logrus"
)

const (
	cacheFile = "category_colors.json"

	// DefaultColorID (graphite) marks events without a category.
	DefaultColorID = "8"
	// Calendar event colours 1..11.
	paletteSize = 11
)

type CategoryState struct {
	ColorID      string    `json:"color_id"`
	LastModified time.Time `json:"last_modified"`
}

// ColorCache assigns colours least-recently-used first once all eleven are
// taken.
type ColorCache struct {
	Path       string
	Categories map[string]*CategoryState `json:"categories"`

	mu    sync.Mutex
	dirty bool
	now   func() time.Time
	log   *logrus.Entry
}

// NewColorCache opens the cache in steady's config directory.
func NewColorCache(log *logrus.Entry) (*ColorCache, error) {
	dir, err := config.GetXdgHome()
	if err != nil {
		return nil, err
	}
	return Open(filepath.Join(dir, cacheFile), log)
}

func Open(path string, log *logrus.Entry) (*ColorCache, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	c := &ColorCache{
		Path:       path,
		Categories: make(map[string]*CategoryState),
		now:        time.Now,
		log:        log.WithField("component", "colors"),
	}
	if err := c.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return c, nil
}

func (c *ColorCache) Load() error {
	f, err := os.Open(c.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	categories := make(map[string]*CategoryState)
	if err := json.NewDecoder(f).Decode(&categories); err != nil {
		return err
	}
	c.mu.Lock()
	c.Categories = categories
	c.mu.Unlock()
	return nil
}

func (c *ColorCache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil
	}
	dir := filepath.Dir(c.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		c.log.WithError(err).Error("could not create color cache directory")
		return err
	}

	f, err := os.Create(c.Path)
	if err != nil {
		c.log.WithError(err).Error("could not create color cache file")
		return err
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(c.Categories); err != nil {
		return err
	}
	c.dirty = false
	return nil
}

// ColorID returns the colour of category, assigning one if needed.
// Categories compare case-insensitively.
func (c *ColorCache) ColorID(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return DefaultColorID
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if state, exists := c.Categories[category]; exists {
		// Touching only marks dirty; the caller saves once per sync.
		state.LastModified = c.now()
		c.dirty = true
		return state.ColorID
	}
	return c.assign(category)
}

func (c *ColorCache) assign(category string) string {
	used := make(map[string]bool)
	for _, s := range c.Categories {
		used[s.ColorID] = true
	}

	for i := 1; i <= paletteSize; i++ {
		id := strconv.Itoa(i)
		if !used[id] {
			c.Categories[category] = &CategoryState{ColorID: id, LastModified: c.now()}
			c.dirty = true
			return id
		}
	}

	// Palette full: recycle the least recently used colour.
	var oldest string
	var oldestTime time.Time
	for name, s := range c.Categories {
		if oldest == "" || s.LastModified.Before(oldestTime) || (s.LastModified.Equal(oldestTime) && name < oldest) {
			oldest, oldestTime = name, s.LastModified
		}
	}
	recycled := c.Categories[oldest].ColorID
	delete(c.Categories, oldest)
	c.log.WithFields(logrus.Fields{"evicted": oldest, "category": category}).Debug("recycling calendar colour")

	c.Categories[category] = &CategoryState{ColorID: recycled, LastModified: c.now()}
	c.dirty = true
	return recycled
}
