package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/harrisonrobin/steady/pkg/auth"
	"github.com/harrisonrobin/steady/pkg/logger"
	"github.com/harrisonrobin/steady/pkg/model"
	"github.com/harrisonrobin/steady/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNav struct {
	mu       sync.Mutex
	location string
	visits   []string
}

func (n *fakeNav) Location() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.location
}

func (n *fakeNav) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.location = path
	n.visits = append(n.visits, path)
}

func (n *fakeNav) Visits() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.visits...)
}

func newTestClient(store *testutil.FakeStore, creds auth.Credentials, nav Navigator) *Client {
	opts := []Option{WithLogger(logger.Discard())}
	if nav != nil {
		opts = append(opts, WithNavigator(nav))
	}
	return NewClient(store.URL(), creds, opts...)
}

func TestRequestHeaders(t *testing.T) {
	store := testutil.NewFakeStore(t)
	store.Token = "t1"
	c := newTestClient(store, auth.NewMemoryStore("t1"), nil)

	_, err := c.ListTasks(context.Background())
	require.NoError(t, err)
	require.NoError(t, c.CreateTask(context.Background(), model.Draft{Title: "Buy milk"}))

	reqs := store.Requests()
	require.Len(t, reqs, 2)

	get := reqs[0]
	assert.Equal(t, "Bearer t1", get.Authorization)
	assert.Empty(t, get.ContentType, "no content type without a body")
	assert.NotEmpty(t, get.RequestID)

	post := reqs[1]
	assert.Equal(t, "Bearer t1", post.Authorization)
	assert.Equal(t, "application/json", post.ContentType)
	assert.Contains(t, post.Body, `"task":"Buy milk"`)
	assert.Contains(t, post.Body, `"priority":"Medium"`)
	assert.NotEqual(t, get.RequestID, post.RequestID)
}

func TestNoCredentialSendsNoAuthorization(t *testing.T) {
	store := testutil.NewFakeStore(t)
	c := newTestClient(store, auth.NewMemoryStore(""), nil)

	_, err := c.ListTasks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, store.Requests()[0].Authorization)
}

func TestUnauthorizedClearsCredentialAndNavigates(t *testing.T) {
	store := testutil.NewFakeStore(t)
	store.Token = "fresh"
	creds := auth.NewMemoryStore("stale")
	nav := &fakeNav{location: "/tasks"}
	c := newTestClient(store, creds, nav)

	_, err := c.ListTasks(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err))
	assert.Equal(t, "Request failed: 401", err.Error())

	_, ok := creds.Token()
	assert.False(t, ok)
	assert.Equal(t, 1, creds.Cleared())
	assert.Equal(t, []string{LoginPath}, nav.Visits())
}

func TestUnauthorizedOnLoginPageDoesNotNavigate(t *testing.T) {
	store := testutil.NewFakeStore(t)
	store.Token = "fresh"
	creds := auth.NewMemoryStore("stale")
	nav := &fakeNav{location: "/login?next=/tasks"}
	c := newTestClient(store, creds, nav)

	_, err := c.ListTasks(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, creds.Cleared())
	assert.Empty(t, nav.Visits())
}

func TestLoginRejectionKeepsSession(t *testing.T) {
	store := testutil.NewFakeStore(t)
	creds := auth.NewMemoryStore("existing")
	nav := &fakeNav{location: "/login"}
	c := newTestClient(store, creds, nav)

	_, err := c.Login(context.Background(), store.Email, "wrong")
	require.Error(t, err)
	assert.Equal(t, "Incorrect password", err.Error())
	assert.Equal(t, 0, creds.Cleared())
	assert.Empty(t, nav.Visits())
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"error key", 400, `{"error":"Task not found","message":"ignored"}`, "Task not found"},
		{"message key", 409, `{"message":"Already exists"}`, "Already exists"},
		{"blank error falls to message", 400, `{"error":"  ","message":"Bad date"}`, "Bad date"},
		{"plain text", 500, "Internal Server Error", "Internal Server Error"},
		{"json without keys", 503, `{"detail":"x"}`, "Request failed: 503"},
		{"empty body", 404, "", "Request failed: 404"},
		{"non-string error", 400, `{"error":{"code":1}}`, "Request failed: 400"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorMessage(tt.status, []byte(tt.body)))
		})
	}

	long := strings.Repeat("x", maxMessageBytes*2)
	assert.Len(t, errorMessage(500, []byte(long)), maxMessageBytes)
}

func TestServerErrorCarriesMessage(t *testing.T) {
	store := testutil.NewFakeStore(t)
	store.FailNext(http.MethodDelete, "/tasks/9", http.StatusNotFound, `{"error":"Task not found"}`)
	c := newTestClient(store, auth.NewMemoryStore("t"), nil)

	err := c.DeleteTask(context.Background(), 9)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Task not found", apiErr.Message)
	assert.False(t, errors.Is(err, ErrNetwork))
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, nil, WithLogger(logger.Discard()))
	_, err := c.ListTasks(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNetwork))
	assert.Equal(t, ErrNetwork.Error(), err.Error())
	assert.Equal(t, 0, StatusOf(err))
}

func TestCanceledContextIsNotANetworkError(t *testing.T) {
	store := testutil.NewFakeStore(t)
	c := newTestClient(store, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.ListTasks(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, ErrNetwork))
}

func TestTaskEndpoints(t *testing.T) {
	store := testutil.NewFakeStore(t, model.Task{ID: 5, Title: "Stretch", Priority: model.PriorityLow, Status: model.StatusPending, Category: "Health"})
	c := newTestClient(store, nil, nil)
	ctx := context.Background()

	require.NoError(t, c.CompleteTask(ctx, 5))
	title := "Stretch more"
	require.NoError(t, c.UpdateTask(ctx, 5, model.Patch{Title: &title}))
	require.NoError(t, c.DeleteTask(ctx, 5))

	var got []string
	for _, r := range store.Requests() {
		got = append(got, r.Method+" "+r.Path)
	}
	assert.Equal(t, []string{
		"POST /tasks/5/complete",
		"PUT /tasks/5",
		"DELETE /tasks/5",
	}, got)
	assert.Equal(t, `{"task":"Stretch more"}`, strings.TrimSpace(store.Requests()[1].Body))
	assert.Empty(t, store.Tasks())
}

func TestListTasksNeverNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("null"))
	}))
	defer srv.Close()

	tasks, err := NewClient(srv.URL, nil, WithLogger(logger.Discard())).ListTasks(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func TestHabitsDegradeToEmpty(t *testing.T) {
	store := testutil.NewFakeStore(t,
		model.Task{ID: 1, Title: "Run", Recurring: true, ConsistencyScore: 80},
		model.Task{ID: 2, Title: "Taxes"},
	)
	c := newTestClient(store, nil, nil)

	habits := c.Habits(context.Background())
	require.Len(t, habits, 1)
	assert.Equal(t, "Run", habits[0].Title)

	store.FailNext(http.MethodGet, "/tasks", http.StatusInternalServerError, "boom")
	habits = c.Habits(context.Background())
	assert.NotNil(t, habits)
	assert.Empty(t, habits)
}

func TestAnalyticsAndWellness(t *testing.T) {
	store := testutil.NewFakeStore(t,
		model.Task{ID: 1, Title: "a", Category: "Work", Priority: model.PriorityHigh, Status: model.StatusCompleted},
		model.Task{ID: 2, Title: "b", Category: "Work", Priority: model.PriorityLow, Status: model.StatusPending},
	)
	c := newTestClient(store, nil, nil)
	ctx := context.Background()

	rate, err := c.CompletionRate(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, rate, 0.001)

	byCat, err := c.ByCategory(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Work": 2}, byCat)

	byPrio, err := c.ByPriority(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"High": 1, "Low": 1}, byPrio)

	q, err := c.Quote(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Aristotle", q.Author)

	fact, err := c.FunFact(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, fact)
}

func TestAccountEndpoints(t *testing.T) {
	store := testutil.NewFakeStore(t)
	store.Token = "jwt-1"
	creds := auth.NewMemoryStore("")
	c := newTestClient(store, creds, nil)
	ctx := context.Background()

	resp, err := c.Login(ctx, store.Email, store.CurrentPassword())
	require.NoError(t, err)
	assert.Equal(t, "jwt-1", resp.BearerToken())
	require.NotNil(t, resp.User)
	assert.Equal(t, model.AccountID("7"), resp.User.ID)

	creds.Set(resp.BearerToken())
	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ada", me.Name)

	name := "Ada L."
	require.NoError(t, c.UpdateMe(ctx, ProfileUpdate{Name: &name}))
	me, err = c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", me.Name)

	err = c.ChangePassword(ctx, "nope", "Newpass1!", "Newpass1!")
	require.Error(t, err)
	assert.Equal(t, "Current password incorrect", err.Error())
	assert.Equal(t, 0, creds.Cleared(), "a wrong current password keeps the session")

	gender, err := c.Gender(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Female", gender)
}

func TestBearerTokenFieldNames(t *testing.T) {
	assert.Equal(t, "a", (&AuthResponse{AccessToken: "a"}).BearerToken())
	assert.Equal(t, "j", (&AuthResponse{JWT: "j", IDToken: "i"}).BearerToken())
	assert.Equal(t, "", (&AuthResponse{}).BearerToken())
}
