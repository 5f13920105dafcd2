// Package google mirrors task deadlines into a Google Calendar.
package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/harrisonrobin/steady/pkg/index"
	"github.com/harrisonrobin/steady/pkg/model"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
)

// Outcome is what SyncEvent did.
type Outcome int

const (
	Unchanged Outcome = iota
	Created
	Updated
)

// CalendarClient is a Google Calendar API client bound to one calendar.
type CalendarClient struct {
	srv        *calendar.Service
	calendarID string
	index      *index.EventIndex
	log        *logrus.Entry
}

// NewCalendarClient creates a new Google Calendar client. idx may be nil.
func NewCalendarClient(srv *calendar.Service, calendarID string, idx *index.EventIndex, log *logrus.Entry) *CalendarClient {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &CalendarClient{
		srv:        srv,
		calendarID: calendarID,
		index:      idx,
		log:        log.WithFields(logrus.Fields{"component": "calendar", "calendar_id": calendarID}),
	}
}

// SyncEvent creates the event for task or patches the existing one.
func (c *CalendarClient) SyncEvent(ctx context.Context, task model.Task, colorID string, today model.Date) (*calendar.Event, Outcome, error) {
	event, err := EventFromTask(task, colorID, today)
	if err != nil {
		return nil, Unchanged, err
	}

	existing, err := c.FindEvent(ctx, task.ID)
	if err != nil {
		return nil, Unchanged, fmt.Errorf("error searching for event: %w", err)
	}

	if existing != nil {
		patch := EventNeedsUpdate(existing, event)
		if patch == nil {
			c.remember(task.ID, existing.Id)
			return existing, Unchanged, nil
		}
		updated, err := c.PatchEvent(ctx, existing.Id, patch)
		if err != nil {
			return nil, Unchanged, err
		}
		c.remember(task.ID, updated.Id)
		return updated, Updated, nil
	}

	created, err := c.srv.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, Unchanged, err
	}
	c.remember(task.ID, created.Id)
	return created, Created, nil
}

func (c *CalendarClient) remember(taskID int64, eventID string) {
	if c.index != nil {
		c.index.Set(taskID, eventID)
	}
}

// FindEvent locates the event of taskID through the local index first and
// the extended-property search second. It returns nil when there is none.
func (c *CalendarClient) FindEvent(ctx context.Context, taskID int64) (*calendar.Event, error) {
	if c.index != nil {
		if eventID := c.index.Get(taskID); eventID != "" {
			ev, err := c.srv.Events.Get(c.calendarID, eventID).Context(ctx).Do()
			switch {
			case err == nil && ev.Status != "cancelled":
				return ev, nil
			case err != nil && !isNotFound(err):
				c.log.WithError(err).WithField("event_id", eventID).Debug("indexed event lookup failed, searching")
			}
		}
	}
	return c.GetEventByTaskID(ctx, taskID)
}

// PatchEvent performs a partial update on an event.
func (c *CalendarClient) PatchEvent(ctx context.Context, eventID string, patch *calendar.Event) (*calendar.Event, error) {
	return c.srv.Events.Patch(c.calendarID, eventID, patch).Context(ctx).Do()
}

// DeleteEvent deletes an event from the calendar. A missing event is not an
// error.
func (c *CalendarClient) DeleteEvent(ctx context.Context, eventID string) error {
	err := c.srv.Events.Delete(c.calendarID, eventID).Context(ctx).Do()
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

// ListEvents fetches the steady events starting at or after timeMin.
func (c *CalendarClient) ListEvents(ctx context.Context, timeMin time.Time) ([]*calendar.Event, error) {
	var out []*calendar.Event
	call := c.srv.Events.List(c.calendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		SingleEvents(true)
	err := call.Pages(ctx, func(page *calendar.Events) error {
		for _, ev := range page.Items {
			if _, ok := TaskIDFromEvent(ev); ok {
				out = append(out, ev)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve events from calendar: %w", err)
	}
	return out, nil
}

// GetEventByTaskID searches for an event carrying taskID in its private
// extended properties.
func (c *CalendarClient) GetEventByTaskID(ctx context.Context, taskID int64) (*calendar.Event, error) {
	events, err := c.srv.Events.List(c.calendarID).
		PrivateExtendedProperty(TaskIDProperty + "=" + strconv.FormatInt(taskID, 10)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	if len(events.Items) > 0 {
		return events.Items[0], nil
	}
	return nil, nil
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && (gerr.Code == http.StatusNotFound || gerr.Code == http.StatusGone)
}
