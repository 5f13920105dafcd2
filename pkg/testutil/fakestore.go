// Package testutil provides an in-memory stand-in for the remote task store.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/harrisonrobin/steady/pkg/model"
)

// RecordedRequest is one request the fake store served.
type RecordedRequest struct {
	Method        string
	Path          string
	Authorization string
	ContentType   string
	RequestID     string
	Body          string
}

type failure struct {
	method string
	path   string
	status int
	body   string
}

// FakeStore mimics the backend's task, analytics, wellness and account
// routes. PUT /tasks/{id} overwrites every editable column, as the real
// backend does.
type FakeStore struct {
	Server *httptest.Server

	// Token, when set, is the only accepted bearer credential.
	Token string
	// Password is the password for Email on /login.
	Email    string
	Password string
	Provider string

	mu        sync.Mutex
	tasks     []model.Task
	nextID    int64
	failures  []failure
	requests  []RecordedRequest
	writeGate chan struct{}
	listGate  chan struct{}
	listCalls int
	name      string
}

// NewFakeStore starts a fake store seeded with tasks. It is closed when the
// test ends.
func NewFakeStore(t testing.TB, tasks ...model.Task) *FakeStore {
	t.Helper()
	f := &FakeStore{
		nextID:   1,
		Email:    "ada@example.com",
		Password: "Secret1!",
		Provider: model.ProviderPassword,
		name:     "Ada",
	}
	for _, task := range tasks {
		f.tasks = append(f.tasks, task)
		if task.ID >= f.nextID {
			f.nextID = task.ID + 1
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /tasks", f.authed(f.listTasks))
	mux.HandleFunc("POST /tasks", f.authed(f.createTask))
	mux.HandleFunc("PUT /tasks/{id}", f.authed(f.updateTask))
	mux.HandleFunc("DELETE /tasks/{id}", f.authed(f.deleteTask))
	mux.HandleFunc("POST /tasks/{id}/complete", f.authed(f.completeTask))
	mux.HandleFunc("GET /analytics/completion_rate", f.authed(f.completionRate))
	mux.HandleFunc("GET /analytics/by_category", f.authed(f.countBy(func(t model.Task) string { return t.Category })))
	mux.HandleFunc("GET /analytics/by_priority", f.authed(f.countBy(func(t model.Task) string { return string(t.Priority) })))
	mux.HandleFunc("GET /wellness/quote", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"quote": "Well begun is half done.", "author": "Aristotle"})
	})
	mux.HandleFunc("GET /wellness/fact", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"fact": "Honey never spoils."})
	})
	mux.HandleFunc("POST /login", f.login)
	mux.HandleFunc("POST /signup", f.signup)
	mux.HandleFunc("POST /google-login", f.googleLogin)
	mux.HandleFunc("GET /me", f.authed(f.me))
	mux.HandleFunc("PATCH /me", f.authed(f.updateMe))
	mux.HandleFunc("POST /change-password", f.authed(f.changePassword))
	mux.HandleFunc("POST /set-password", f.authed(f.setPassword))
	mux.HandleFunc("GET /gender", f.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"gender": "Female"})
	}))

	f.Server = httptest.NewServer(f.record(mux))
	t.Cleanup(f.Close)
	return f
}

func (f *FakeStore) URL() string { return f.Server.URL }

// Close releases any held requests and stops the server.
func (f *FakeStore) Close() {
	f.mu.Lock()
	if f.writeGate != nil {
		close(f.writeGate)
		f.writeGate = nil
	}
	if f.listGate != nil {
		close(f.listGate)
		f.listGate = nil
	}
	f.mu.Unlock()
	f.Server.Close()
}

// Tasks returns the store's current tasks.
func (f *FakeStore) Tasks() []model.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Task(nil), f.tasks...)
}

// Requests returns every request served so far.
func (f *FakeStore) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedRequest(nil), f.requests...)
}

// CurrentPassword returns the password /login accepts right now.
func (f *FakeStore) CurrentPassword() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Password
}

// NextID sets the id the next created task receives.
func (f *FakeStore) NextID(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID = id
}

// ListCalls counts GET /tasks requests that completed.
func (f *FakeStore) ListCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

// FailNext makes the next request matching method and path prefix fail with
// status and body.
func (f *FakeStore) FailNext(method, path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = append(f.failures, failure{method: method, path: path, status: status, body: body})
}

// HoldWrites blocks task mutations until the returned release is called.
func (f *FakeStore) HoldWrites() (release func()) {
	return f.hold(&f.writeGate)
}

// HoldList blocks GET /tasks until the returned release is called.
func (f *FakeStore) HoldList() (release func()) {
	return f.hold(&f.listGate)
}

func (f *FakeStore) hold(gate *chan struct{}) func() {
	f.mu.Lock()
	ch := make(chan struct{})
	*gate = ch
	f.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			if *gate == ch {
				*gate = nil
			}
			f.mu.Unlock()
			close(ch)
		})
	}
}

func (f *FakeStore) wait(gate *chan struct{}) {
	f.mu.Lock()
	ch := *gate
	f.mu.Unlock()
	if ch != nil {
		<-ch
	}
}

func (f *FakeStore) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))
		rec := RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			ContentType:   r.Header.Get("Content-Type"),
			RequestID:     r.Header.Get("X-Request-ID"),
			Body:          string(body),
		}

		f.mu.Lock()
		f.requests = append(f.requests, rec)
		var fail *failure
		for i, fl := range f.failures {
			if fl.method == r.Method && strings.HasPrefix(r.URL.Path, fl.path) {
				fail = &fl
				f.failures = append(f.failures[:i], f.failures[i+1:]...)
				break
			}
		}
		f.mu.Unlock()

		if r.Method != http.MethodGet {
			f.wait(&f.writeGate)
		}
		if fail != nil {
			w.WriteHeader(fail.status)
			fmt.Fprint(w, fail.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeStore) authed(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if f.Token != "" && r.Header.Get("Authorization") != "Bearer "+f.Token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Missing Authorization Header"})
			return
		}
		h(w, r)
	}
}

func (f *FakeStore) listTasks(w http.ResponseWriter, r *http.Request) {
	f.wait(&f.listGate)
	f.mu.Lock()
	tasks := append([]model.Task{}, f.tasks...)
	f.listCalls++
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, tasks)
}

func (f *FakeStore) createTask(w http.ResponseWriter, r *http.Request) {
	var d model.Draft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	d = d.WithDefaults()
	f.mu.Lock()
	task := model.Task{
		ID:        f.nextID,
		Title:     d.Title,
		Category:  d.Category,
		Priority:  d.Priority,
		Deadline:  d.Deadline,
		Status:    d.Status,
		Recurring: d.Recurring,
		CreatedAt: model.Timestamp{Time: time.Now().UTC()},
	}
	f.nextID++
	f.tasks = append(f.tasks, task)
	f.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Task added!"})
}

func (f *FakeStore) updateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var d model.Draft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	f.mu.Lock()
	for i, t := range f.tasks {
		if t.ID == id {
			t.Title, t.Category, t.Priority = d.Title, d.Category, d.Priority
			t.Deadline, t.Status, t.Recurring = d.Deadline, d.Status, d.Recurring
			f.tasks[i] = t
		}
	}
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Task updated!"})
}

func (f *FakeStore) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	f.mu.Lock()
	kept := f.tasks[:0]
	for _, t := range f.tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	f.tasks = kept
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted!"})
}

func (f *FakeStore) completeTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	f.mu.Lock()
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks[i].Status = model.StatusCompleted
		}
	}
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("Task %d marked as Completed!", id)})
}

func (f *FakeStore) completionRate(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	total, done := len(f.tasks), 0
	for _, t := range f.tasks {
		if t.Status == model.StatusCompleted {
			done++
		}
	}
	f.mu.Unlock()
	rate := 0.0
	if total > 0 {
		rate = float64(done) / float64(total) * 100
	}
	writeJSON(w, http.StatusOK, map[string]float64{"completion_rate": rate})
}

func (f *FakeStore) countBy(key func(model.Task) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := map[string]int{}
		f.mu.Lock()
		for _, t := range f.tasks {
			out[key(t)]++
		}
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, out)
	}
}

func (f *FakeStore) user() map[string]interface{} {
	return map[string]interface{}{
		"id":            7,
		"email":         f.Email,
		"name":          f.name,
		"gender":        "Female",
		"dob":           "1990-01-01",
		"auth_provider": f.Provider,
	}
}

func (f *FakeStore) login(w http.ResponseWriter, r *http.Request) {
	var in map[string]string
	_ = json.NewDecoder(r.Body).Decode(&in)
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case in["email"] != f.Email:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Email not found"})
	case in["password"] != f.Password:
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Incorrect password"})
	default:
		writeJSON(w, http.StatusOK, map[string]interface{}{"token": f.Token, "user": f.user()})
	}
}

func (f *FakeStore) signup(w http.ResponseWriter, r *http.Request) {
	var in map[string]string
	_ = json.NewDecoder(r.Body).Decode(&in)
	if in["password"] != in["confirm_password"] {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Passwords do not match"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "User signed up successfully"})
}

func (f *FakeStore) googleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		IDToken   string             `json:"id_token"`
		ExtraData *model.ProfileInfo `json:"extra_data"`
	}
	_ = json.NewDecoder(r.Body).Decode(&in)
	switch {
	case in.IDToken == "":
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid Google token"})
	case in.ExtraData == nil:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Additional info required (name, dob, gender)"})
	default:
		f.mu.Lock()
		f.Provider = model.ProviderGoogle
		f.name = in.ExtraData.Name
		u := f.user()
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]interface{}{"token": f.Token, "user": u})
	}
}

func (f *FakeStore) me(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	u := f.user()
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, u)
}

func (f *FakeStore) updateMe(w http.ResponseWriter, r *http.Request) {
	var in map[string]interface{}
	_ = json.NewDecoder(r.Body).Decode(&in)
	name, ok := in["name"].(string)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No valid fields to update"})
		return
	}
	f.mu.Lock()
	f.name = name
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Profile updated successfully"})
}

func (f *FakeStore) changePassword(w http.ResponseWriter, r *http.Request) {
	var in map[string]string
	_ = json.NewDecoder(r.Body).Decode(&in)
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case f.Provider != model.ProviderPassword:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Password change not allowed for Google/SSO accounts"})
	case in["current_password"] != f.Password:
		// The real backend answers 401 here too.
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Current password incorrect"})
	default:
		f.Password = in["new_password"]
		writeJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
	}
}

func (f *FakeStore) setPassword(w http.ResponseWriter, r *http.Request) {
	var in map[string]string
	_ = json.NewDecoder(r.Body).Decode(&in)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Provider != model.ProviderGoogle {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Only Google users can set password"})
		return
	}
	f.Password = in["new_password"]
	f.Provider = model.ProviderPassword
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password set successfully"})
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
