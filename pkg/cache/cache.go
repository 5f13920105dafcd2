// Package cache holds the in-memory task lists the rest of steady reads.
//
// Each list lives under a key and is only ever replaced whole. Reconciling
// a key with the remote store happens in the background; every dispatch is
// tagged with a sequence number and its result is applied only if no newer
// write or dispatch has happened since.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/harrisonrobin/steady/pkg/model"
	"github.com/sirupsen/logrus"
)

// TasksKey is the key of the signed-in user's task list.
const TasksKey = "tasks"

var (
	ErrDuplicateID = errors.New("duplicate task id")
	ErrNoFetcher   = errors.New("no fetcher registered for key")
)

// Fetcher loads the authoritative list for a key.
type Fetcher func(ctx context.Context) ([]model.Task, error)

type entry struct {
	tasks    []model.Task
	loaded   bool
	stale    bool
	seq      uint64
	paused   int
	inflight int
	fetch    Fetcher
}

// TaskCache is safe for concurrent use.
type TaskCache struct {
	mu      sync.Mutex
	entries map[string]*entry
	log     *logrus.Entry

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(log *logrus.Entry) *TaskCache {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &TaskCache{
		entries: make(map[string]*entry),
		log:     log.WithField("component", "cache"),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Register sets the fetcher Invalidate and Refetch use for key.
func (c *TaskCache) Register(key string, fetch Fetcher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry(key).fetch = fetch
}

func (c *TaskCache) entry(key string) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	return e
}

// Get returns a copy of the list under key. The bool is false until the key
// has been loaded or set.
func (c *TaskCache) Get(key string) ([]model.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !e.loaded {
		return nil, false
	}
	return clone(e.tasks), true
}

// Set replaces the list under key. It supersedes any reconciliation still in
// flight.
func (c *TaskCache) Set(key string, tasks []model.Task) error {
	if err := checkUnique(tasks); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entry(key)
	e.seq++
	e.tasks = clone(tasks)
	e.loaded = true
	return nil
}

// Stale reports whether key is waiting for a reconciliation.
func (c *TaskCache) Stale(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return ok && e.stale
}

// Invalidate marks key stale and reconciles it in the background. Failures
// are logged and otherwise ignored; the current list stays visible.
func (c *TaskCache) Invalidate(key string) {
	c.mu.Lock()
	e := c.entry(key)
	e.stale = true
	if e.paused > 0 || e.fetch == nil {
		c.mu.Unlock()
		return
	}
	seq, fetch := c.dispatch(e)
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		tasks, err := fetch(c.ctx)
		if err := c.settle(key, seq, tasks, err); err != nil {
			c.log.WithError(err).WithField("key", key).Warn("reconciliation failed")
		}
	}()
}

// Refetch reconciles key and waits for the result. While key is suspended
// it only marks the key stale.
func (c *TaskCache) Refetch(ctx context.Context, key string) error {
	c.mu.Lock()
	e := c.entry(key)
	if e.fetch == nil {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNoFetcher, key)
	}
	if e.paused > 0 {
		e.stale = true
		c.mu.Unlock()
		return nil
	}
	seq, fetch := c.dispatch(e)
	c.mu.Unlock()

	tasks, err := fetch(ctx)
	return c.settle(key, seq, tasks, err)
}

func (c *TaskCache) dispatch(e *entry) (uint64, Fetcher) {
	e.seq++
	e.inflight++
	return e.seq, e.fetch
}

func (c *TaskCache) settle(key string, seq uint64, tasks []model.Task, fetchErr error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entry(key)
	e.inflight--

	if fetchErr != nil {
		return fetchErr
	}
	if e.paused > 0 || seq != e.seq {
		c.log.WithFields(logrus.Fields{"key": key, "seq": seq, "latest": e.seq}).Debug("discarding superseded reconciliation")
		return nil
	}
	if err := checkUnique(tasks); err != nil {
		return err
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	e.tasks = clone(tasks)
	e.loaded = true
	e.stale = false
	return nil
}

// Suspend holds off reconciliation of key until resume is called. Any
// reconciliation already in flight is dropped; once the last suspension is
// released a key left stale is reconciled again. resume is idempotent.
func (c *TaskCache) Suspend(key string) (resume func()) {
	c.mu.Lock()
	e := c.entry(key)
	e.paused++
	e.seq++
	if e.inflight > 0 {
		e.stale = true
	}
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			e.paused--
			refetch := e.paused == 0 && e.stale
			c.mu.Unlock()
			if refetch {
				c.Invalidate(key)
			}
		})
	}
}

// Snapshot is a point-in-time copy of one key, including whether it was
// loaded at all.
type Snapshot struct {
	key    string
	tasks  []model.Task
	loaded bool
}

func (s Snapshot) Tasks() []model.Task { return clone(s.tasks) }

func (c *TaskCache) Snapshot(key string) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{key: key}
	if e, ok := c.entries[key]; ok && e.loaded {
		s.tasks = clone(e.tasks)
		s.loaded = true
	}
	return s
}

// Restore puts a snapshot back, including the absent state.
func (c *TaskCache) Restore(s Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entry(s.key)
	e.seq++
	e.tasks = clone(s.tasks)
	e.loaded = s.loaded
}

// Wait blocks until every background reconciliation has settled.
func (c *TaskCache) Wait() {
	c.wg.Wait()
}

// Close cancels background reconciliations and waits for them.
func (c *TaskCache) Close() {
	c.cancel()
	c.wg.Wait()
}

func checkUnique(tasks []model.Task) error {
	seen := make(map[int64]struct{}, len(tasks))
	for _, t := range tasks {
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("%w: %d", ErrDuplicateID, t.ID)
		}
		seen[t.ID] = struct{}{}
	}
	return nil
}

func clone(tasks []model.Task) []model.Task {
	if tasks == nil {
		return nil
	}
	return append(make([]model.Task, 0, len(tasks)), tasks...)
}
