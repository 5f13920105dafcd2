// Package tasks applies task mutations optimistically.
//
// A mutation runs in four steps. Reconciliation of the task list is
// suspended, the current list is snapshotted, the expected result is
// published to the cache, and then the real request is sent. Success
// triggers a reconciliation; failure puts the snapshot back and returns the
// error. Two mutations racing on the same list are not serialised: the later
// write wins.
package tasks

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/harrisonrobin/steady/pkg/cache"
	"github.com/harrisonrobin/steady/pkg/model"
	"github.com/sirupsen/logrus"
)

var ErrEmptyPatch = errors.New("nothing to update")

// Remote is the subset of the remote store the coordinator drives.
type Remote interface {
	ListTasks(ctx context.Context) ([]model.Task, error)
	CreateTask(ctx context.Context, d model.Draft) error
	UpdateTask(ctx context.Context, id int64, p model.Patch) error
	DeleteTask(ctx context.Context, id int64) error
	CompleteTask(ctx context.Context, id int64) error
}

type Coordinator struct {
	cache  *cache.TaskCache
	remote Remote
	key    string
	log    *logrus.Entry
	now    func() time.Time

	lastTemp atomic.Int64
}

// NewCoordinator wires remote as the fetcher of the tasks key.
func NewCoordinator(c *cache.TaskCache, remote Remote, log *logrus.Entry) *Coordinator {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	c.Register(cache.TasksKey, remote.ListTasks)
	return &Coordinator{
		cache:  c,
		remote: remote,
		key:    cache.TasksKey,
		log:    log.WithField("component", "tasks"),
		now:    time.Now,
	}
}

// Load fetches the task list and waits for it.
func (c *Coordinator) Load(ctx context.Context) error {
	return c.cache.Refetch(ctx, c.key)
}

// nextTempID hands out placeholder ids below zero, never reused.
func (c *Coordinator) nextTempID() int64 {
	return c.lastTemp.Add(-1)
}

// Mutate publishes the optimistic result of intent before returning and
// sends the request in the background. An intent that fails validation
// settles immediately without touching the cache.
func (c *Coordinator) Mutate(ctx context.Context, intent Intent) *Pending {
	p := newPending()
	log := c.log.WithField("op", intent.name())

	if err := intent.validate(); err != nil {
		p.settle(err)
		return p
	}

	resume := c.cache.Suspend(c.key)
	snap := c.cache.Snapshot(c.key)

	before := snap.Tasks()
	// With nothing cached there is no list to patch. The request still goes
	// out and the reconciliation loads the list.
	if current, loaded := c.cache.Get(c.key); loaded {
		next, placeholder := intent.optimistic(current, tempSource{id: c.nextTempID, now: c.now()})
		if err := c.cache.Set(c.key, next); err != nil {
			c.cache.Restore(snap)
			resume()
			p.settle(err)
			return p
		}
		p.task = placeholder
	}

	go func() {
		err := intent.send(ctx, c.remote, before)
		if err != nil {
			c.cache.Restore(snap)
			resume()
			log.WithError(err).Warn("mutation failed, rolled back")
			p.settle(err)
			return
		}
		resume()
		c.cache.Invalidate(c.key)
		log.Debug("mutation applied")
		p.settle(nil)
	}()
	return p
}

func (c *Coordinator) Add(ctx context.Context, d model.Draft) error {
	return c.Mutate(ctx, AddIntent{Draft: d}).Wait(ctx)
}

func (c *Coordinator) Update(ctx context.Context, id int64, patch model.Patch) error {
	return c.Mutate(ctx, UpdateIntent{ID: id, Patch: patch}).Wait(ctx)
}

func (c *Coordinator) Delete(ctx context.Context, id int64) error {
	return c.Mutate(ctx, DeleteIntent{ID: id}).Wait(ctx)
}

func (c *Coordinator) Complete(ctx context.Context, id int64) error {
	return c.Mutate(ctx, CompleteIntent{ID: id}).Wait(ctx)
}

// List returns the cached tasks matching f, sorted by priority.
func (c *Coordinator) List(f model.Filter) []model.Task {
	current, _ := c.cache.Get(c.key)
	out := f.Apply(current)
	model.SortByPriority(out)
	return out
}

// PendingView is the default list view.
func (c *Coordinator) PendingView() []model.Task {
	return c.List(model.DefaultFilter())
}

// Task looks a task up in the cache.
func (c *Coordinator) Task(id int64) (model.Task, bool) {
	current, _ := c.cache.Get(c.key)
	return find(current, id)
}
