package google

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harrisonrobin/steady/pkg/colors"
	"github.com/harrisonrobin/steady/pkg/index"
	"github.com/harrisonrobin/steady/pkg/model"
	"github.com/sirupsen/logrus"
)

// Report counts what a sync pass did.
type Report struct {
	Created   int `json:"created" yaml:"created"`
	Updated   int `json:"updated" yaml:"updated"`
	Unchanged int `json:"unchanged" yaml:"unchanged"`
	Removed   int `json:"removed" yaml:"removed"`
	Failed    int `json:"failed" yaml:"failed"`
}

// Syncer mirrors a task list into a calendar. Every pending task with a
// deadline gets an event; events of completed, undated or deleted tasks are
// removed.
type Syncer struct {
	Client *CalendarClient
	Index  *index.EventIndex
	Colors *colors.ColorCache
	Now    func() time.Time
	Log    *logrus.Entry
}

// Sync runs one pass. Individual event failures are counted and logged; the
// returned error joins them with any failure to persist local state.
func (s *Syncer) Sync(ctx context.Context, tasks []model.Task) (Report, error) {
	var (
		report Report
		errs   []error
	)
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	log := s.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	today := model.DateOf(now())

	seen := make(map[int64]bool, len(tasks))
	for _, task := range tasks {
		if task.Temporary() {
			continue
		}
		seen[task.ID] = true
		tlog := log.WithField("task_id", task.ID)

		if !Exportable(task) {
			removed, err := s.remove(ctx, task.ID)
			if err != nil {
				report.Failed++
				errs = append(errs, err)
				tlog.WithError(err).Warn("failed to remove event")
			} else if removed {
				report.Removed++
				tlog.Info("removed event")
			}
			continue
		}

		colorID := colors.DefaultColorID
		if s.Colors != nil {
			colorID = s.Colors.ColorID(task.Category)
		}
		ev, outcome, err := s.Client.SyncEvent(ctx, task, colorID, today)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			report.Failed++
			errs = append(errs, fmt.Errorf("task %d: %w", task.ID, err))
			tlog.WithError(err).Warn("failed to sync event")
			continue
		}
		switch outcome {
		case Created:
			report.Created++
			tlog.WithField("event_id", ev.Id).Info("created event")
		case Updated:
			report.Updated++
			tlog.WithField("event_id", ev.Id).Info("updated event")
		default:
			report.Unchanged++
		}
	}

	// Tasks deleted on the server still have an indexed event.
	if s.Index != nil {
		for _, id := range s.Index.TaskIDs() {
			if seen[id] {
				continue
			}
			removed, err := s.remove(ctx, id)
			if err != nil {
				report.Failed++
				errs = append(errs, err)
				continue
			}
			if removed {
				report.Removed++
				log.WithField("task_id", id).Info("removed event of deleted task")
			}
		}
		if err := s.Index.Save(); err != nil {
			errs = append(errs, fmt.Errorf("failed to save event index: %w", err))
		}
	}
	if s.Colors != nil {
		if err := s.Colors.Save(); err != nil {
			errs = append(errs, fmt.Errorf("failed to save color cache: %w", err))
		}
	}
	return report, errors.Join(errs...)
}

// remove deletes the event of taskID if one exists.
func (s *Syncer) remove(ctx context.Context, taskID int64) (bool, error) {
	ev, err := s.Client.FindEvent(ctx, taskID)
	if err != nil {
		return false, fmt.Errorf("task %d: %w", taskID, err)
	}
	if s.Index != nil {
		defer s.Index.Remove(taskID)
	}
	if ev == nil {
		return false, nil
	}
	if err := s.Client.DeleteEvent(ctx, ev.Id); err != nil {
		return false, fmt.Errorf("task %d: %w", taskID, err)
	}
	return true, nil
}
