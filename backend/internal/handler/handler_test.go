package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/wam-dev/threads/shared/domain"
	mw "github.com/wam-dev/threads/shared/middleware"
)

// --- Mocks ---

type MockThreadService struct {
	CreateFunc  func(ctx context.Context, data domain.ThreadCreationData) (domain.ThreadId, error)
	ReplyFunc   func(ctx context.Context, data domain.ReplyCreationData) (domain.ThreadId, error)
	GetByIdFunc func(ctx context.Context, id domain.ThreadId) (*domain.Thread, error)
	ListFunc    func(ctx context.Context, page, pageSize int) (*domain.ThreadPage, error)
}

func (m *MockThreadService) Create(ctx context.Context, data domain.ThreadCreationData) (domain.ThreadId, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, data)
	}
	return "thread-1", nil
}

func (m *MockThreadService) Reply(ctx context.Context, data domain.ReplyCreationData) (domain.ThreadId, error) {
	if m.ReplyFunc != nil {
		return m.ReplyFunc(ctx, data)
	}
	return "reply-1", nil
}

func (m *MockThreadService) GetById(ctx context.Context, id domain.ThreadId) (*domain.Thread, error) {
	if m.GetByIdFunc != nil {
		return m.GetByIdFunc(ctx, id)
	}
	return &domain.Thread{Id: id}, nil
}

func (m *MockThreadService) List(ctx context.Context, page, pageSize int) (*domain.ThreadPage, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, page, pageSize)
	}
	return &domain.ThreadPage{}, nil
}

type MockUserService struct {
	UpsertFunc  func(ctx context.Context, profile domain.UserProfile, path string) error
	GetFunc     func(ctx context.Context, identityId domain.IdentityId) (*domain.User, error)
	ThreadsFunc func(ctx context.Context, identityId domain.IdentityId) (*domain.UserThreads, error)
}

func (m *MockUserService) Upsert(ctx context.Context, profile domain.UserProfile, path string) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, profile, path)
	}
	return nil
}

func (m *MockUserService) Get(ctx context.Context, identityId domain.IdentityId) (*domain.User, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, identityId)
	}
	return &domain.User{Id: "user-1", IdentityId: identityId}, nil
}

func (m *MockUserService) Threads(ctx context.Context, identityId domain.IdentityId) (*domain.UserThreads, error) {
	if m.ThreadsFunc != nil {
		return m.ThreadsFunc(ctx, identityId)
	}
	return &domain.UserThreads{User: domain.User{Id: "user-1", IdentityId: identityId}}, nil
}

type MockHealthChecker struct {
	PingFunc func(ctx context.Context) error
}

func (m *MockHealthChecker) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil // Default: healthy
}

// paragraphRenderer makes rendered output easy to tell apart from raw text.
type paragraphRenderer struct{}

func (paragraphRenderer) Render(text string) string { return "<p>" + text + "</p>" }

// --- Helpers ---

func newTestHandler(threads *MockThreadService, users *MockUserService) *Handler {
	return New(threads, users, &MockHealthChecker{}, paragraphRenderer{})
}

func createRequest(t *testing.T, method, url string, body []byte) *http.Request {
	t.Helper()
	return httptest.NewRequest(method, url, bytes.NewBuffer(body))
}

func withIdentity(req *http.Request, identity domain.IdentityId) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), mw.IdentityKey, identity))
}

func withURLParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}
