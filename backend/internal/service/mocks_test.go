package service

import (
	"context"
	"errors"
	"sync"

	"github.com/wam-dev/threads/shared/domain"
)

// --- Mocks ---

// MockThreadStorage mocks ThreadStorage. Unset funcs return zero values.
type MockThreadStorage struct {
	createThreadFunc       func(data domain.ThreadCreationData) (domain.Thread, error)
	createReplyFunc        func(data domain.ReplyCreationData) (domain.Thread, error)
	getThreadFunc          func(id domain.ThreadId) (domain.Thread, error)
	getThreadsByIdsFunc    func(ids []domain.ThreadId) ([]domain.Thread, error)
	getTopLevelThreadsFunc func(skip, limit int) ([]domain.Thread, error)
	countTopLevelFunc      func() (int, error)
	getThreadsByAuthorFunc func(authorId domain.UserId) ([]domain.Thread, error)
	getUsersByIdsFunc      func(ids []domain.UserId) ([]domain.User, error)

	mu               sync.Mutex
	createThreadArgs []domain.ThreadCreationData
	userBatches      [][]domain.UserId
}

func (m *MockThreadStorage) CreateThread(ctx context.Context, data domain.ThreadCreationData) (domain.Thread, error) {
	m.mu.Lock()
	m.createThreadArgs = append(m.createThreadArgs, data)
	m.mu.Unlock()

	if m.createThreadFunc != nil {
		return m.createThreadFunc(data)
	}
	return domain.Thread{Id: "new-thread", Text: data.Text, AuthorId: data.AuthorId}, nil
}

func (m *MockThreadStorage) CreateReply(ctx context.Context, data domain.ReplyCreationData) (domain.Thread, error) {
	if m.createReplyFunc != nil {
		return m.createReplyFunc(data)
	}
	parent := data.ParentId
	return domain.Thread{Id: "new-reply", Text: data.Text, AuthorId: data.AuthorId, ParentId: &parent}, nil
}

func (m *MockThreadStorage) GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	if m.getThreadFunc != nil {
		return m.getThreadFunc(id)
	}
	return domain.Thread{Id: id}, nil
}

func (m *MockThreadStorage) GetThreadsByIds(ctx context.Context, ids []domain.ThreadId) ([]domain.Thread, error) {
	if m.getThreadsByIdsFunc != nil {
		return m.getThreadsByIdsFunc(ids)
	}
	return nil, nil
}

func (m *MockThreadStorage) GetTopLevelThreads(ctx context.Context, skip, limit int) ([]domain.Thread, error) {
	if m.getTopLevelThreadsFunc != nil {
		return m.getTopLevelThreadsFunc(skip, limit)
	}
	return nil, nil
}

func (m *MockThreadStorage) CountTopLevelThreads(ctx context.Context) (int, error) {
	if m.countTopLevelFunc != nil {
		return m.countTopLevelFunc()
	}
	return 0, nil
}

func (m *MockThreadStorage) GetThreadsByAuthor(ctx context.Context, authorId domain.UserId) ([]domain.Thread, error) {
	if m.getThreadsByAuthorFunc != nil {
		return m.getThreadsByAuthorFunc(authorId)
	}
	return nil, nil
}

func (m *MockThreadStorage) GetUsersByIds(ctx context.Context, ids []domain.UserId) ([]domain.User, error) {
	m.mu.Lock()
	m.userBatches = append(m.userBatches, append([]domain.UserId(nil), ids...))
	m.mu.Unlock()

	if m.getUsersByIdsFunc != nil {
		return m.getUsersByIdsFunc(ids)
	}
	return nil, nil
}

// MockUserStorage mocks UserStorage.
type MockUserStorage struct {
	upsertUserFunc        func(profile domain.UserProfile) (domain.User, error)
	getUserByIdentityFunc func(identityId domain.IdentityId) (domain.User, error)

	upsertArgs []domain.UserProfile
}

func (m *MockUserStorage) UpsertUser(ctx context.Context, profile domain.UserProfile) (domain.User, error) {
	m.upsertArgs = append(m.upsertArgs, profile)
	if m.upsertUserFunc != nil {
		return m.upsertUserFunc(profile)
	}
	return domain.User{Id: "user-1", IdentityId: profile.IdentityId, Username: profile.Username}, nil
}

func (m *MockUserStorage) GetUserByIdentity(ctx context.Context, identityId domain.IdentityId) (domain.User, error) {
	if m.getUserByIdentityFunc != nil {
		return m.getUserByIdentityFunc(identityId)
	}
	return domain.User{Id: "user-1", IdentityId: identityId}, nil
}

// MockRevalidator records paths and can be told to fail.
type MockRevalidator struct {
	err   error
	paths []string
}

func (m *MockRevalidator) Revalidate(ctx context.Context, path string) error {
	m.paths = append(m.paths, path)
	return m.err
}

var errDb = errors.New("connection refused")
