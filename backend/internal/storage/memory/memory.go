package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wam-dev/threads/shared/domain"
	internal_errors "github.com/wam-dev/threads/shared/errors"
)

type threadEntry struct {
	thread domain.Thread
	seq    int64
}

// Storage keeps everything in process memory. Each write holds the lock for
// its whole unit of work, so multi-record updates are atomic.
type Storage struct {
	mu         sync.RWMutex
	users      map[domain.UserId]*domain.User
	byIdentity map[domain.IdentityId]domain.UserId
	threads    map[domain.ThreadId]*threadEntry
	seq        int64
	now        func() time.Time
}

func New() *Storage {
	return &Storage{
		users:      make(map[domain.UserId]*domain.User),
		byIdentity: make(map[domain.IdentityId]domain.UserId),
		threads:    make(map[domain.ThreadId]*threadEntry),
		now:        time.Now,
	}
}

func (s *Storage) Ping(ctx context.Context) error {
	return nil
}

func (s *Storage) Cleanup() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = make(map[domain.UserId]*domain.User)
	s.byIdentity = make(map[domain.IdentityId]domain.UserId)
	s.threads = make(map[domain.ThreadId]*threadEntry)
	return nil
}

// --- users ---

func (s *Storage) UpsertUser(ctx context.Context, profile domain.UserProfile) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byIdentity[profile.IdentityId]
	if !ok {
		id = uuid.NewString()
		s.byIdentity[profile.IdentityId] = id
		s.users[id] = &domain.User{Id: id, IdentityId: profile.IdentityId, Threads: []domain.ThreadId{}}
	}
	u := s.users[id]
	u.Username = profile.Username
	u.Name = profile.Name
	u.Bio = profile.Bio
	u.Image = profile.Image
	return cloneUser(u), nil
}

func (s *Storage) GetUserByIdentity(ctx context.Context, identityId domain.IdentityId) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byIdentity[identityId]
	if !ok {
		return domain.User{}, internal_errors.NotFound("user not found")
	}
	return cloneUser(s.users[id]), nil
}

func (s *Storage) GetUsersByIds(ctx context.Context, ids []domain.UserId) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			users = append(users, cloneUser(u))
		}
	}
	return users, nil
}

func (s *Storage) AllUsers(ctx context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, cloneUser(u))
	}
	return users, nil
}

func (s *Storage) SetUserThreads(ctx context.Context, userId domain.UserId, threadIds []domain.ThreadId) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userId]
	if !ok {
		return internal_errors.NotFound("user not found")
	}
	u.Threads = slices.Clone(threadIds)
	return nil
}

// --- threads ---

func (s *Storage) CreateThread(ctx context.Context, data domain.ThreadCreationData) (domain.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	author, ok := s.users[data.AuthorId]
	if !ok {
		return domain.Thread{}, internal_errors.NotFound("author not found")
	}

	t := s.insertLocked(data.Text, data.AuthorId, nil, data.CommunityId)
	author.Threads = append(author.Threads, t.Id)
	return cloneThread(t), nil
}

func (s *Storage) CreateReply(ctx context.Context, data domain.ReplyCreationData) (domain.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parent, ok := s.threads[data.ParentId]
	if !ok {
		return domain.Thread{}, internal_errors.NotFound("parent thread not found")
	}
	author, ok := s.users[data.AuthorId]
	if !ok {
		return domain.Thread{}, internal_errors.NotFound("author not found")
	}

	parentId := data.ParentId
	t := s.insertLocked(data.Text, data.AuthorId, &parentId, nil)
	parent.thread.ChildIds = append(parent.thread.ChildIds, t.Id)
	author.Threads = append(author.Threads, t.Id)
	return cloneThread(t), nil
}

func (s *Storage) insertLocked(text domain.ThreadText, author domain.UserId, parent *domain.ThreadId, community *domain.CommunityId) *domain.Thread {
	s.seq++
	e := &threadEntry{
		thread: domain.Thread{
			Id:          uuid.NewString(),
			Text:        text,
			AuthorId:    author,
			ParentId:    parent,
			ChildIds:    []domain.ThreadId{},
			CommunityId: community,
			CreatedAt:   s.now().UTC(),
		},
		seq: s.seq,
	}
	s.threads[e.thread.Id] = e
	return &e.thread
}

func (s *Storage) GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.threads[id]
	if !ok {
		return domain.Thread{}, internal_errors.NotFound("thread not found")
	}
	return cloneThread(&e.thread), nil
}

func (s *Storage) GetThreadsByIds(ctx context.Context, ids []domain.ThreadId) ([]domain.Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	threads := make([]domain.Thread, 0, len(ids))
	seen := make(map[domain.ThreadId]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if e, ok := s.threads[id]; ok {
			threads = append(threads, cloneThread(&e.thread))
		}
	}
	return threads, nil
}

func (s *Storage) GetTopLevelThreads(ctx context.Context, skip, limit int) ([]domain.Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if skip < 0 || limit < 1 {
		return nil, internal_errors.BadRequest("skip and limit must be positive")
	}
	entries := s.sortedLocked(func(t *domain.Thread) bool { return t.IsTopLevel() }, true)
	if skip >= len(entries) {
		return []domain.Thread{}, nil
	}
	end := skip + min(limit, len(entries)-skip)

	threads := make([]domain.Thread, 0, end-skip)
	for _, e := range entries[skip:end] {
		threads = append(threads, cloneThread(&e.thread))
	}
	return threads, nil
}

func (s *Storage) CountTopLevelThreads(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, e := range s.threads {
		if e.thread.IsTopLevel() {
			count++
		}
	}
	return count, nil
}

func (s *Storage) GetThreadsByAuthor(ctx context.Context, authorId domain.UserId) ([]domain.Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.sortedLocked(func(t *domain.Thread) bool { return t.AuthorId == authorId }, true)
	threads := make([]domain.Thread, 0, len(entries))
	for _, e := range entries {
		threads = append(threads, cloneThread(&e.thread))
	}
	return threads, nil
}

func (s *Storage) AllThreads(ctx context.Context) ([]domain.Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.sortedLocked(func(*domain.Thread) bool { return true }, false)
	threads := make([]domain.Thread, 0, len(entries))
	for _, e := range entries {
		threads = append(threads, cloneThread(&e.thread))
	}
	return threads, nil
}

func (s *Storage) SetThreadChildren(ctx context.Context, threadId domain.ThreadId, childIds []domain.ThreadId) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.threads[threadId]
	if !ok {
		return internal_errors.NotFound("thread not found")
	}
	e.thread.ChildIds = slices.Clone(childIds)
	return nil
}

// sortedLocked orders by creation time, insertion order breaking ties.
func (s *Storage) sortedLocked(keep func(*domain.Thread) bool, desc bool) []*threadEntry {
	var entries []*threadEntry
	for _, e := range s.threads {
		if keep(&e.thread) {
			entries = append(entries, e)
		}
	}
	slices.SortFunc(entries, func(a, b *threadEntry) int {
		c := a.thread.CreatedAt.Compare(b.thread.CreatedAt)
		if c == 0 {
			c = int(a.seq - b.seq)
		}
		if desc {
			return -c
		}
		return c
	})
	return entries
}

func cloneUser(u *domain.User) domain.User {
	c := *u
	c.Threads = slices.Clone(u.Threads)
	if c.Threads == nil {
		c.Threads = []domain.ThreadId{}
	}
	return c
}

func cloneThread(t *domain.Thread) domain.Thread {
	c := *t
	c.ChildIds = slices.Clone(t.ChildIds)
	if c.ChildIds == nil {
		c.ChildIds = []domain.ThreadId{}
	}
	if t.ParentId != nil {
		p := *t.ParentId
		c.ParentId = &p
	}
	return c
}
