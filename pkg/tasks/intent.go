package tasks

import (
	"context"
	"time"

	"github.com/harrisonrobin/steady/pkg/model"
)

// Intent is one requested change to the task list.
type Intent interface {
	name() string
	validate() error
	// optimistic returns the list as it should look once the server agrees,
	// and the placeholder record when the intent adds one.
	optimistic(tasks []model.Task, tmp tempSource) ([]model.Task, *model.Task)
	// send issues the real request. before is the list prior to the change.
	send(ctx context.Context, remote Remote, before []model.Task) error
}

type tempSource struct {
	id  func() int64
	now time.Time
}

type AddIntent struct {
	Draft model.Draft
}

func (AddIntent) name() string { return "add" }

func (i AddIntent) validate() error { return i.Draft.Validate() }

func (i AddIntent) optimistic(tasks []model.Task, tmp tempSource) ([]model.Task, *model.Task) {
	d := i.Draft.WithDefaults()
	t := model.Task{
		ID:        tmp.id(),
		Title:     d.Title,
		Category:  d.Category,
		Priority:  d.Priority,
		Deadline:  d.Deadline,
		Status:    d.Status,
		Recurring: d.Recurring,
		CreatedAt: model.Timestamp{Time: tmp.now},
	}
	return append(tasks, t), &t
}

func (i AddIntent) send(ctx context.Context, remote Remote, _ []model.Task) error {
	return remote.CreateTask(ctx, i.Draft)
}

type UpdateIntent struct {
	ID    int64
	Patch model.Patch
}

func (UpdateIntent) name() string { return "update" }

func (i UpdateIntent) validate() error {
	if i.Patch.IsEmpty() {
		return ErrEmptyPatch
	}
	return i.Patch.Validate()
}

func (i UpdateIntent) optimistic(tasks []model.Task, _ tempSource) ([]model.Task, *model.Task) {
	for n, t := range tasks {
		if t.ID == i.ID {
			tasks[n] = i.Patch.Apply(t)
		}
	}
	return tasks, nil
}

// send carries every editable field of the merged record, since the remote
// store's PUT nulls whatever it is not given.
func (i UpdateIntent) send(ctx context.Context, remote Remote, before []model.Task) error {
	body := i.Patch
	if t, ok := find(before, i.ID); ok {
		body = model.EditableFields(i.Patch.Apply(t))
	}
	return remote.UpdateTask(ctx, i.ID, body)
}

type DeleteIntent struct {
	ID int64
}

func (DeleteIntent) name() string { return "delete" }

func (DeleteIntent) validate() error { return nil }

func (i DeleteIntent) optimistic(tasks []model.Task, _ tempSource) ([]model.Task, *model.Task) {
	return without(tasks, i.ID), nil
}

func (i DeleteIntent) send(ctx context.Context, remote Remote, _ []model.Task) error {
	return remote.DeleteTask(ctx, i.ID)
}

// CompleteIntent drops the task from the visible list straight away rather
// than flipping its status; the next reconciliation brings it back as
// Completed.
type CompleteIntent struct {
	ID int64
}

func (CompleteIntent) name() string { return "complete" }

func (CompleteIntent) validate() error { return nil }

func (i CompleteIntent) optimistic(tasks []model.Task, _ tempSource) ([]model.Task, *model.Task) {
	return without(tasks, i.ID), nil
}

func (i CompleteIntent) send(ctx context.Context, remote Remote, _ []model.Task) error {
	return remote.CompleteTask(ctx, i.ID)
}

func find(tasks []model.Task, id int64) (model.Task, bool) {
	for _, t := range tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

func without(tasks []model.Task, id int64) []model.Task {
	out := tasks[:0]
	for _, t := range tasks {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}
