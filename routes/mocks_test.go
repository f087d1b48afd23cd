package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"campusevents/models"
	"campusevents/routes"
	"campusevents/utils"
)

/* -------------------- in-memory repositories -------------------- */

type mockUsers struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]models.User
}

func newMockUsers() *mockUsers { return &mockUsers{users: map[int64]models.User{}} }

func (m *mockUsers) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return models.ErrDuplicateUser
		}
	}
	m.nextID++
	u.ID = m.nextID
	u.CreatedAt = time.Now().UTC()
	m.users[u.ID] = *u
	return nil
}

func (m *mockUsers) ValidateCredentials(_ context.Context, identifier, plain string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == identifier || u.Email == identifier {
			if u.Password != plain {
				return models.User{}, models.ErrInvalidCredentials
			}
			return u, nil
		}
	}
	return models.User{}, models.ErrNotFound
}

func (m *mockUsers) ByID(_ context.Context, id int64) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return models.User{}, models.ErrNotFound
	}
	return u, nil
}

func (m *mockUsers) ByIDs(_ context.Context, ids []int64) (map[int64]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[int64]models.User{}
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

// add seeds a user directly, bypassing the HTTP surface.
func (m *mockUsers) add(username, email, fullName string) models.User {
	u := models.User{Username: username, Email: email, Password: "pw", FullName: fullName}
	_ = m.Create(context.Background(), &u)
	return u
}

type mockEvents struct {
	mu     sync.Mutex
	events map[string]models.Event
}

func newMockEvents() *mockEvents { return &mockEvents{events: map[string]models.Event{}} }

func (m *mockEvents) List(_ context.Context, search, category string) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Event{}
	needle := strings.ToLower(search)
	for _, e := range m.events {
		if category != "" && e.Category != category {
			continue
		}
		if needle != "" {
			haystack := strings.ToLower(e.Title + " " + e.Description + " " + e.Location)
			if !strings.Contains(haystack, needle) {
				continue
			}
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (m *mockEvents) ByID(_ context.Context, id string) (models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return models.Event{}, models.ErrNotFound
	}
	return e, nil
}

func (m *mockEvents) ByIDs(_ context.Context, ids []string) (map[string]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]models.Event{}
	for _, id := range ids {
		if e, ok := m.events[id]; ok {
			out[id] = e
		}
	}
	return out, nil
}

func (m *mockEvents) ByCreator(_ context.Context, creatorID int64) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Event{}
	for _, e := range m.events {
		if e.CreatorID == creatorID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockEvents) Create(_ context.Context, e *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[e.ID] = *e
	return nil
}

func (m *mockEvents) Update(_ context.Context, e *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[e.ID]; !ok {
		return models.ErrNotFound
	}
	m.events[e.ID] = *e
	return nil
}

func (m *mockEvents) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.events, id)
	return nil
}

type mockRegs struct {
	mu     sync.Mutex
	nextID int64
	regs   []models.Registration
	users  *mockUsers
}

func newMockRegs(users *mockUsers) *mockRegs { return &mockRegs{users: users} }

func (m *mockRegs) Register(_ context.Context, userID int64, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.regs {
		if r.UserID == userID && r.EventID == eventID {
			return models.ErrAlreadyRegistered
		}
	}
	m.nextID++
	m.regs = append(m.regs, models.Registration{
		ID: m.nextID, UserID: userID, EventID: eventID,
		PaymentStatus: "completed", RegisteredAt: time.Now().UTC(),
	})
	return nil
}

func (m *mockRegs) Cancel(_ context.Context, userID int64, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.regs {
		if r.UserID == userID && r.EventID == eventID {
			m.regs = append(m.regs[:i], m.regs[i+1:]...)
			return nil
		}
	}
	return models.ErrNotRegistered
}

func (m *mockRegs) CountByEvent(_ context.Context, eventIDs []string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]int{}
	for _, r := range m.regs {
		for _, id := range eventIDs {
			if r.EventID == id {
				out[id]++
			}
		}
	}
	return out, nil
}

func (m *mockRegs) ParticipantsByEvent(_ context.Context, eventID string) ([]models.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Participant{}
	for _, r := range m.regs {
		if r.EventID != eventID {
			continue
		}
		u := m.users.users[r.UserID]
		out = append(out, models.Participant{
			Username: u.Username, Email: u.Email, RegisteredAt: r.RegisteredAt,
		})
	}
	return out, nil
}

func (m *mockRegs) ByUser(_ context.Context, userID int64) ([]models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Registration{}
	for _, r := range m.regs {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegisteredAt.After(out[j].RegisteredAt) })
	return out, nil
}

func (m *mockRegs) DeleteByEvent(_ context.Context, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.regs[:0]
	for _, r := range m.regs {
		if r.EventID != eventID {
			kept = append(kept, r)
		}
	}
	m.regs = kept
	return nil
}

type mockDiscussions struct {
	mu     sync.Mutex
	nextID int64
	msgs   []models.Discussion
	users  *mockUsers
}

func newMockDiscussions(users *mockUsers) *mockDiscussions { return &mockDiscussions{users: users} }

func (m *mockDiscussions) Post(_ context.Context, d *models.Discussion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	d.ID = m.nextID
	d.CreatedAt = time.Now().UTC()
	m.msgs = append(m.msgs, *d)
	return nil
}

func (m *mockDiscussions) ListByEvent(_ context.Context, eventID string) ([]models.Discussion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Discussion{}
	for _, d := range m.msgs {
		if d.EventID != eventID {
			continue
		}
		u := m.users.users[d.UserID]
		d.Username = u.Username
		d.FullName = u.FullName
		out = append(out, d)
	}
	return out, nil
}

func (m *mockDiscussions) DeleteByEvent(_ context.Context, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.msgs[:0]
	for _, d := range m.msgs {
		if d.EventID != eventID {
			kept = append(kept, d)
		}
	}
	m.msgs = kept
	return nil
}

type mockNotifications struct {
	mu    sync.Mutex
	byUID map[int64][]models.Notification
}

func newMockNotifications() *mockNotifications {
	return &mockNotifications{byUID: map[int64][]models.Notification{}}
}

func (m *mockNotifications) ListByUser(_ context.Context, userID int64) ([]models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]models.Notification{}, m.byUID[userID]...)
	return out, nil
}

/* -------------------- server harness -------------------- */

type testServer struct {
	engine        *gin.Engine
	users         *mockUsers
	events        *mockEvents
	regs          *mockRegs
	discussions   *mockDiscussions
	notifications *mockNotifications
}

// newTestServer builds a full router over fresh in-memory stores and a
// miniredis-backed quota counter. Rate limiter state is per server, so each
// test starts with full burst allowance.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	users := newMockUsers()
	ts := &testServer{
		engine:        gin.New(),
		users:         users,
		events:        newMockEvents(),
		regs:          newMockRegs(users),
		discussions:   newMockDiscussions(users),
		notifications: newMockNotifications(),
	}
	routes.RegisterRoutes(ts.engine, routes.Deps{
		Users:         ts.users,
		Events:        ts.events,
		Registrations: ts.regs,
		Discussions:   ts.discussions,
		Notifications: ts.notifications,
		RDB:           rdb,
		Invalidator:   utils.NewCacheInvalidator(rdb),
		UploadDir:     t.TempDir(),
	})
	return ts
}

// tokenFor seeds a user and mints a token the way the login handler would.
func (ts *testServer) tokenFor(t *testing.T, username string) (models.User, string) {
	t.Helper()
	u := ts.users.add(username, username+"@campus.edu", username+" doe")
	token, err := utils.GenerateToken(u.ID, u.Username)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return u, token
}

func (ts *testServer) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	return w
}

func (ts *testServer) doJSON(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(raw)
	}
	return ts.do(t, method, path, token, r, "application/json")
}

func (ts *testServer) doForm(t *testing.T, method, path, token string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write form field %s: %v", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}
	return ts.do(t, method, path, token, &buf, mw.FormDataContentType())
}

func decodeObj(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var out []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func wantStatus(t *testing.T, w *httptest.ResponseRecorder, code int) {
	t.Helper()
	if w.Code != code {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, code, w.Body.String())
	}
}

func wantError(t *testing.T, w *httptest.ResponseRecorder, code int, msg string) {
	t.Helper()
	wantStatus(t, w, code)
	if got := decodeObj(t, w)["error"]; got != msg {
		t.Fatalf("error = %v, want %q", got, msg)
	}
}

// eventFields returns a valid create/update form; override per test.
func eventFields(over map[string]string) map[string]string {
	f := map[string]string{
		"title":       "Spring Hackathon",
		"description": "24h build sprint",
		"location":    "Main Hall",
		"date":        "2026-10-01",
		"time":        "09:00",
		"category":    "tech",
	}
	for k, v := range over {
		f[k] = v
	}
	return f
}

// createEvent posts a valid form and returns the new event id.
func (ts *testServer) createEvent(t *testing.T, token string, over map[string]string) string {
	t.Helper()
	w := ts.doForm(t, http.MethodPost, "/api/events", token, eventFields(over))
	wantStatus(t, w, http.StatusOK)
	id, _ := decodeObj(t, w)["id"].(string)
	if id == "" {
		t.Fatalf("create returned no id: %s", w.Body.String())
	}
	return id
}
