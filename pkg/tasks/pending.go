package tasks

import (
	"context"
	"sync"

	"github.com/harrisonrobin/steady/pkg/model"
)

// Pending is the outcome of a mutation that may still be in flight.
type Pending struct {
	done chan struct{}
	once sync.Once
	err  error
	task *model.Task
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func (p *Pending) settle(err error) {
	p.once.Do(func() {
		p.err = err
		close(p.done)
	})
}

// Done is closed once the mutation has settled.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Err returns the mutation's error, or nil while it is still in flight.
func (p *Pending) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// Wait blocks until the mutation settles or ctx is done.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Task returns the placeholder an add published, if any.
func (p *Pending) Task() (model.Task, bool) {
	if p.task == nil {
		return model.Task{}, false
	}
	return *p.task, true
}
