package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-mindcare-backend/internal/domain"
	"github.com/tbourn/go-mindcare-backend/internal/http/middleware"
	"github.com/tbourn/go-mindcare-backend/internal/services"
)

// ---------- flexible service stubs ----------

type stubChat struct {
	send          func(context.Context, services.SendRequest) (*services.Reply, error)
	start         func(context.Context, string, string) (*services.ConversationSummary, *services.Reply, error)
	inappropriate func(string) bool
	reset         func(context.Context, services.Caller) error

	mu    sync.Mutex
	sends []services.SendRequest
}

func (s *stubChat) Send(ctx context.Context, req services.SendRequest) (*services.Reply, error) {
	s.mu.Lock()
	s.sends = append(s.sends, req)
	s.mu.Unlock()
	if s.send != nil {
		return s.send(ctx, req)
	}
	rem := 9
	return &services.Reply{Text: "echo: " + req.Text, Remaining: &rem, Outcome: services.OutcomeAnswered, ConversationID: req.ConversationID}, nil
}

func (s *stubChat) StartConversation(ctx context.Context, userID, opening string) (*services.ConversationSummary, *services.Reply, error) {
	if s.start != nil {
		return s.start(ctx, userID, opening)
	}
	return &services.ConversationSummary{ID: "c-new", Title: services.DefaultTitle}, nil, nil
}

func (s *stubChat) CheckInappropriate(text string) bool {
	if s.inappropriate != nil {
		return s.inappropriate(text)
	}
	return false
}

func (s *stubChat) ResetSession(ctx context.Context, c services.Caller) error {
	if s.reset != nil {
		return s.reset(ctx, c)
	}
	return nil
}

func (s *stubChat) sent() []services.SendRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]services.SendRequest(nil), s.sends...)
}

type stubConv struct {
	list   func(context.Context, string, int, int) ([]services.ConversationSummary, int64, error)
	detail func(context.Context, string, string) (*services.ConversationDetail, error)
	del    func(context.Context, string, string) error
	stats  func(context.Context, string) (int64, *time.Time, error)
}

func (s stubConv) List(ctx context.Context, u string, p, ps int) ([]services.ConversationSummary, int64, error) {
	if s.list != nil {
		return s.list(ctx, u, p, ps)
	}
	return []services.ConversationSummary{}, 0, nil
}

func (s stubConv) Detail(ctx context.Context, id, u string) (*services.ConversationDetail, error) {
	if s.detail != nil {
		return s.detail(ctx, id, u)
	}
	return nil, services.ErrConversationNotFound
}

func (s stubConv) Delete(ctx context.Context, id, u string) error {
	if s.del != nil {
		return s.del(ctx, id, u)
	}
	return nil
}

func (s stubConv) Stats(ctx context.Context, u string) (int64, *time.Time, error) {
	if s.stats != nil {
		return s.stats(ctx, u)
	}
	return 0, nil, nil
}

type stubQuota struct {
	status func(context.Context, string) (services.Quota, error)
}

func (s stubQuota) Status(ctx context.Context, u string) (services.Quota, error) {
	if s.status != nil {
		return s.status(ctx, u)
	}
	return services.Quota{Used: 1, Limit: 10, Remaining: 9}, nil
}

type stubActivity struct {
	recent func(context.Context, string, int) ([]services.ActivityItem, error)
}

func (s stubActivity) Recent(ctx context.Context, u string, limit int) ([]services.ActivityItem, error) {
	if s.recent != nil {
		return s.recent(ctx, u, limit)
	}
	return nil, nil
}

// memIdem is an in-memory IdempotencyService.
type memIdem struct {
	mu   sync.Mutex
	recs map[string]*domain.Idempotency
}

func newMemIdem() *memIdem { return &memIdem{recs: map[string]*domain.Idempotency{}} }

func (m *memIdem) Lookup(_ context.Context, u, conv, key string) (*domain.Idempotency, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recs[u+"|"+conv+"|"+key], nil
}

func (m *memIdem) Save(_ context.Context, u, conv, key string, status int, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := u + "|" + conv + "|" + key
	if _, dup := m.recs[k]; !dup {
		m.recs[k] = &domain.Idempotency{UserID: u, ConversationID: conv, Key: key, Status: status, Body: body}
	}
	return nil
}

func (m *memIdem) Exists(ctx context.Context, u, conv, key string, _ time.Time) (bool, error) {
	rec, err := m.Lookup(ctx, u, conv, key)
	return rec != nil, err
}

// ---------- router + request helpers ----------

// newTestRouter mounts every handler behind the identity and idempotency
// middleware, mirroring the production route table without the /api prefix.
func newTestRouter(t *testing.T, s Services) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := New(s)

	var lookup middleware.IdempotencyLookup
	if m, ok := s.Idempotency.(*memIdem); ok {
		lookup = m.Exists
	}

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Identity(), middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, lookup))
	r.POST("/chat/messages", h.SendMessage)
	r.POST("/chat/check", h.CheckInappropriate)
	r.GET("/chat/quota", h.Quota)
	r.DELETE("/chat/session", h.ResetSession)
	r.POST("/conversations", h.CreateConversation)
	r.GET("/conversations", h.ListConversations)
	r.GET("/conversations/:id", h.GetConversation)
	r.DELETE("/conversations/:id", h.DeleteConversation)
	r.POST("/conversations/:id/messages", h.PostConversationMessage)
	r.GET("/activity", h.RecentActivity)
	return r
}

func do(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func asUser(id string) map[string]string { return map[string]string{"X-User-ID": id} }

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("json: %v (body=%s)", err, w.Body.String())
	}
	return v
}
