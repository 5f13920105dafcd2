package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/harrisonrobin/steady/pkg/colors"
	"github.com/harrisonrobin/steady/pkg/index"
	"github.com/harrisonrobin/steady/pkg/logger"
	"github.com/harrisonrobin/steady/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// fakeCalendar serves the subset of the Calendar v3 API the client uses.
type fakeCalendar struct {
	mu      sync.Mutex
	events  map[string]*calendar.Event
	nextID  int
	calls   []string
	failFor string
}

func newFakeCalendar(t *testing.T) (*fakeCalendar, *calendar.Service) {
	t.Helper()
	fc := &fakeCalendar{events: make(map[string]*calendar.Event)}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/me/calendarList", fc.calendarList)
	mux.HandleFunc("GET /calendars/{cal}/events", fc.list)
	mux.HandleFunc("POST /calendars/{cal}/events", fc.insert)
	mux.HandleFunc("GET /calendars/{cal}/events/{id}", fc.get)
	mux.HandleFunc("PATCH /calendars/{cal}/events/{id}", fc.patch)
	mux.HandleFunc("DELETE /calendars/{cal}/events/{id}", fc.delete)
	srv := httptest.NewServer(fc.record(mux))
	t.Cleanup(srv.Close)

	svc, err := calendar.NewService(context.Background(),
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)
	return fc, svc
}

func (fc *fakeCalendar) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fc.mu.Lock()
		fc.calls = append(fc.calls, r.Method+" "+r.URL.Path)
		fc.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (fc *fakeCalendar) requests() []string {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return append([]string(nil), fc.calls...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"error": map[string]any{"code": 404, "message": "Not Found"},
	})
}

func (fc *fakeCalendar) calendarList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, calendar.CalendarList{Items: []*calendar.CalendarListEntry{
		{Id: "personal@example.com", Summary: "Personal"},
		{Id: "tasks@example.com", Summary: "Tasks"},
	}})
}

func (fc *fakeCalendar) list(w http.ResponseWriter, r *http.Request) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	filter := r.URL.Query().Get("privateExtendedProperty")
	var items []*calendar.Event
	for _, ev := range fc.events {
		if filter != "" {
			key, val, _ := strings.Cut(filter, "=")
			if ev.ExtendedProperties == nil || ev.ExtendedProperties.Private[key] != val {
				continue
			}
		}
		items = append(items, ev)
	}
	writeJSON(w, http.StatusOK, calendar.Events{Items: items})
}

func (fc *fakeCalendar) insert(w http.ResponseWriter, r *http.Request) {
	var ev calendar.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": map[string]any{"code": 400, "message": err.Error()}})
		return
	}
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if fc.failFor != "" && ev.Summary == fc.failFor {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": map[string]any{"code": 400, "message": "invalid event"}})
		return
	}
	fc.nextID++
	ev.Id = fmt.Sprintf("evt%d", fc.nextID)
	fc.events[ev.Id] = &ev
	writeJSON(w, http.StatusOK, ev)
}

func (fc *fakeCalendar) get(w http.ResponseWriter, r *http.Request) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	ev, ok := fc.events[r.PathValue("id")]
	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (fc *fakeCalendar) patch(w http.ResponseWriter, r *http.Request) {
	var patch calendar.Event
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": map[string]any{"code": 400, "message": err.Error()}})
		return
	}
	fc.mu.Lock()
	defer fc.mu.Unlock()
	ev, ok := fc.events[r.PathValue("id")]
	if !ok {
		notFound(w)
		return
	}
	if patch.Summary != "" {
		ev.Summary = patch.Summary
	}
	if patch.Description != "" {
		ev.Description = patch.Description
	}
	if patch.ColorId != "" {
		ev.ColorId = patch.ColorId
	}
	if patch.Start != nil {
		ev.Start, ev.End = patch.Start, patch.End
	}
	writeJSON(w, http.StatusOK, ev)
}

func (fc *fakeCalendar) delete(w http.ResponseWriter, r *http.Request) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	id := r.PathValue("id")
	if _, ok := fc.events[id]; !ok {
		notFound(w)
		return
	}
	delete(fc.events, id)
	w.WriteHeader(http.StatusNoContent)
}

func (fc *fakeCalendar) byTask(taskID string) *calendar.Event {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	for _, ev := range fc.events {
		if ev.ExtendedProperties != nil && ev.ExtendedProperties.Private[TaskIDProperty] == taskID {
			return ev
		}
	}
	return nil
}

func (fc *fakeCalendar) count() int {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return len(fc.events)
}

type syncFixture struct {
	cal    *fakeCalendar
	syncer *Syncer
	dir    string
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()
	fc, svc := newFakeCalendar(t)
	dir := t.TempDir()
	idx, err := index.Open(filepath.Join(dir, "events.json"))
	require.NoError(t, err)
	cc, err := colors.Open(filepath.Join(dir, "category_colors.json"), logger.Discard())
	require.NoError(t, err)
	return &syncFixture{
		cal: fc,
		dir: dir,
		syncer: &Syncer{
			Client: NewCalendarClient(svc, "tasks@example.com", idx, logger.Discard()),
			Index:  idx,
			Colors: cc,
			Now:    func() time.Time { return time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC) },
			Log:    logger.Discard(),
		},
	}
}

func dueTask(id int64, title string, day int) model.Task {
	return model.Task{
		ID:       id,
		Title:    title,
		Category: "Work",
		Priority: model.PriorityMedium,
		Deadline: model.NewDate(2026, time.October, day),
		Status:   model.StatusPending,
	}
}

func TestFindCalendar(t *testing.T) {
	_, svc := newFakeCalendar(t)
	id, err := FindCalendar(context.Background(), svc, "Tasks")
	require.NoError(t, err)
	assert.Equal(t, "tasks@example.com", id)

	_, err = FindCalendar(context.Background(), svc, "Missing")
	assert.ErrorContains(t, err, "calendar 'Missing' not found")
}

func TestSyncCreatesThenLeavesUnchanged(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()
	tasks := []model.Task{dueTask(1, "Report", 20), dueTask(2, "Taxes", 10), {ID: 3, Title: "Someday", Status: model.StatusPending}}

	report, err := f.syncer.Sync(ctx, tasks)
	require.NoError(t, err)
	assert.Equal(t, Report{Created: 2}, report)
	assert.Equal(t, 2, f.cal.count())
	assert.Equal(t, "! Taxes", f.cal.byTask("2").Summary)
	assert.NotEmpty(t, f.syncer.Index.Get(1))

	report, err = f.syncer.Sync(ctx, tasks)
	require.NoError(t, err)
	assert.Equal(t, Report{Unchanged: 2}, report)

	// Persisted state survives a restart.
	idx, err := index.Open(filepath.Join(f.dir, "events.json"))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, idx.TaskIDs())
}

func TestSyncPatchesChangedTask(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()
	_, err := f.syncer.Sync(ctx, []model.Task{dueTask(1, "Report", 20)})
	require.NoError(t, err)

	moved := dueTask(1, "Quarterly report", 22)
	report, err := f.syncer.Sync(ctx, []model.Task{moved})
	require.NoError(t, err)
	assert.Equal(t, Report{Updated: 1}, report)

	ev := f.cal.byTask("1")
	require.NotNil(t, ev)
	assert.Equal(t, "Quarterly report", ev.Summary)
	assert.Equal(t, "2026-10-22", ev.Start.Date)
	assert.Equal(t, "2026-10-23", ev.End.Date)
}

func TestSyncRemovesCompletedAndDeleted(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()
	_, err := f.syncer.Sync(ctx, []model.Task{dueTask(1, "Report", 20), dueTask(2, "Taxes", 21), dueTask(3, "Gym", 22)})
	require.NoError(t, err)

	done := dueTask(1, "Report", 20)
	done.Status = model.StatusCompleted
	report, err := f.syncer.Sync(ctx, []model.Task{done, dueTask(3, "Gym", 22)})
	require.NoError(t, err)
	assert.Equal(t, Report{Unchanged: 1, Removed: 2}, report)
	assert.Equal(t, 1, f.cal.count())
	assert.Nil(t, f.cal.byTask("2"))
	assert.Equal(t, []int64{3}, f.syncer.Index.TaskIDs())
}

func TestSyncFindsEventWithoutIndex(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()
	_, err := f.syncer.Sync(ctx, []model.Task{dueTask(5, "Report", 20)})
	require.NoError(t, err)

	f.syncer.Index.Remove(5)
	report, err := f.syncer.Sync(ctx, []model.Task{dueTask(5, "Report", 20)})
	require.NoError(t, err)
	assert.Equal(t, Report{Unchanged: 1}, report)
	assert.Equal(t, 1, f.cal.count())
	assert.NotEmpty(t, f.syncer.Index.Get(5), "index repaired from search")
}

func TestSyncCountsFailures(t *testing.T) {
	f := newSyncFixture(t)
	f.cal.failFor = "Broken"

	report, err := f.syncer.Sync(context.Background(), []model.Task{dueTask(1, "Broken", 20), dueTask(2, "Fine", 20)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task 1")
	assert.Equal(t, Report{Created: 1, Failed: 1}, report)
}

func TestSyncSkipsPlaceholders(t *testing.T) {
	f := newSyncFixture(t)
	report, err := f.syncer.Sync(context.Background(), []model.Task{dueTask(-1, "Pending add", 20)})
	require.NoError(t, err)
	assert.Equal(t, Report{}, report)
	assert.Empty(t, f.cal.requests())
}

func TestListEventsFiltersForeignEvents(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()
	_, err := f.syncer.Sync(ctx, []model.Task{dueTask(1, "Report", 20)})
	require.NoError(t, err)
	f.cal.mu.Lock()
	f.cal.events["lunch"] = &calendar.Event{Id: "lunch", Summary: "Lunch"}
	f.cal.mu.Unlock()

	events, err := f.syncer.Client.ListEvents(ctx, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Report", events[0].Summary)
}

func TestDeleteMissingEventIsNotAnError(t *testing.T) {
	f := newSyncFixture(t)
	assert.NoError(t, f.syncer.Client.DeleteEvent(context.Background(), "nope"))
}
