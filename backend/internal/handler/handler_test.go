package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/itchan-dev/threads/shared/config"
	"github.com/itchan-dev/threads/shared/domain"
)

// --- Mocks ---

type MockThreadService struct {
	CreateFunc     func(ctx context.Context, data domain.ThreadCreationData, path string) (domain.ThreadId, error)
	GetFeedFunc    func(ctx context.Context, page, pageSize int) (domain.ThreadPage, error)
	GetFunc        func(ctx context.Context, id domain.ThreadId) (domain.Thread, error)
	AddCommentFunc func(ctx context.Context, data domain.CommentCreationData, path string) (domain.ThreadId, error)
	DeleteFunc     func(ctx context.Context, id domain.ThreadId, path string) error
}

func (m *MockThreadService) Create(ctx context.Context, data domain.ThreadCreationData, path string) (domain.ThreadId, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, data, path)
	}
	return "thread-1", nil
}

func (m *MockThreadService) GetFeed(ctx context.Context, page, pageSize int) (domain.ThreadPage, error) {
	if m.GetFeedFunc != nil {
		return m.GetFeedFunc(ctx, page, pageSize)
	}
	return domain.ThreadPage{}, nil
}

func (m *MockThreadService) Get(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return domain.Thread{Id: id}, nil
}

func (m *MockThreadService) AddComment(ctx context.Context, data domain.CommentCreationData, path string) (domain.ThreadId, error) {
	if m.AddCommentFunc != nil {
		return m.AddCommentFunc(ctx, data, path)
	}
	return "comment-1", nil
}

func (m *MockThreadService) Delete(ctx context.Context, id domain.ThreadId, path string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id, path)
	}
	return nil
}

type MockDirectoryService struct {
	CreateUserFunc      func(ctx context.Context, data domain.UserCreationData) (domain.UserId, error)
	GetUserFunc         func(ctx context.Context, id domain.UserId) (domain.User, error)
	CreateCommunityFunc func(ctx context.Context, data domain.CommunityCreationData) (domain.CommunityId, error)
	GetCommunityFunc    func(ctx context.Context, externalId domain.ExternalId) (domain.Community, error)
}

func (m *MockDirectoryService) CreateUser(ctx context.Context, data domain.UserCreationData) (domain.UserId, error) {
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(ctx, data)
	}
	return "user-1", nil
}

func (m *MockDirectoryService) GetUser(ctx context.Context, id domain.UserId) (domain.User, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, id)
	}
	return domain.User{Id: id}, nil
}

func (m *MockDirectoryService) CreateCommunity(ctx context.Context, data domain.CommunityCreationData) (domain.CommunityId, error) {
	if m.CreateCommunityFunc != nil {
		return m.CreateCommunityFunc(ctx, data)
	}
	return "community-1", nil
}

func (m *MockDirectoryService) GetCommunity(ctx context.Context, externalId domain.ExternalId) (domain.Community, error) {
	if m.GetCommunityFunc != nil {
		return m.GetCommunityFunc(ctx, externalId)
	}
	return domain.Community{ExternalId: externalId}, nil
}

type MockUserActivityService struct {
	GetUserThreadsFunc func(ctx context.Context, userId domain.UserId) ([]*domain.Thread, error)
}

func (m *MockUserActivityService) GetUserThreads(ctx context.Context, userId domain.UserId) ([]*domain.Thread, error) {
	if m.GetUserThreadsFunc != nil {
		return m.GetUserThreadsFunc(ctx, userId)
	}
	return []*domain.Thread{}, nil
}

// --- Helpers ---

func testHandler() (*Handler, *MockThreadService, *MockDirectoryService, *MockUserActivityService) {
	thread := &MockThreadService{}
	directory := &MockDirectoryService{}
	activity := &MockUserActivityService{}
	cfg := &config.Config{Public: config.Public{ThreadsPerPage: 20, MaxPageSize: 50}}
	return New(thread, directory, activity, &MockHealthChecker{}, cfg), thread, directory, activity
}

func createRequest(t *testing.T, method, url string, body []byte) *http.Request {
	t.Helper()
	return httptest.NewRequest(method, url, bytes.NewBuffer(body))
}

// serve routes req through a chi router so URL parameters are filled in.
func serve(pattern string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Method(req.Method, pattern, h)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}
