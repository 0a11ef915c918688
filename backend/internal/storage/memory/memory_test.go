package memory

import (
	"context"
	"math"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wam-dev/threads/shared/domain"
	internal_errors "github.com/wam-dev/threads/shared/errors"
)

func newUser(t *testing.T, s *Storage, identity string) domain.User {
	t.Helper()
	u, err := s.UpsertUser(context.Background(), domain.UserProfile{IdentityId: identity, Username: identity, Name: identity})
	require.NoError(t, err)
	return u
}

func TestUpsertUser(t *testing.T) {
	ctx := context.Background()

	t.Run("creates then updates the same record", func(t *testing.T) {
		s := New()
		first, err := s.UpsertUser(ctx, domain.UserProfile{IdentityId: "idp|1", Username: "alice", Name: "Alice"})
		require.NoError(t, err)
		second, err := s.UpsertUser(ctx, domain.UserProfile{IdentityId: "idp|1", Username: "alice", Name: "Alice B"})
		require.NoError(t, err)

		assert.Equal(t, first.Id, second.Id)
		users, err := s.AllUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "Alice B", users[0].Name)
	})

	t.Run("missing identity is not found", func(t *testing.T) {
		s := New()
		_, err := s.GetUserByIdentity(ctx, "nobody")
		assert.True(t, internal_errors.IsNotFound(err))
	})
}

func TestCreateThread(t *testing.T) {
	ctx := context.Background()

	t.Run("links thread to author", func(t *testing.T) {
		s := New()
		u := newUser(t, s, "a")

		thread, err := s.CreateThread(ctx, domain.ThreadCreationData{Text: "hi", AuthorId: u.Id})
		require.NoError(t, err)
		assert.Nil(t, thread.ParentId)
		assert.Empty(t, thread.ChildIds)

		stored, err := s.GetUserByIdentity(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, []domain.ThreadId{thread.Id}, stored.Threads)
	})

	t.Run("unknown author writes nothing", func(t *testing.T) {
		s := New()
		_, err := s.CreateThread(ctx, domain.ThreadCreationData{Text: "hi", AuthorId: "ghost"})
		assert.True(t, internal_errors.IsNotFound(err))

		n, err := s.CountTopLevelThreads(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestCreateReply(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := newUser(t, s, "a")
	parent, err := s.CreateThread(ctx, domain.ThreadCreationData{Text: "root", AuthorId: u.Id})
	require.NoError(t, err)

	reply, err := s.CreateReply(ctx, domain.ReplyCreationData{ParentId: parent.Id, Text: "re", AuthorId: u.Id})
	require.NoError(t, err)
	require.NotNil(t, reply.ParentId)
	assert.Equal(t, parent.Id, *reply.ParentId)

	storedParent, err := s.GetThread(ctx, parent.Id)
	require.NoError(t, err)
	assert.Equal(t, []domain.ThreadId{reply.Id}, storedParent.ChildIds)

	n, err := s.CountTopLevelThreads(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.CreateReply(ctx, domain.ReplyCreationData{ParentId: "missing", Text: "re", AuthorId: u.Id})
	assert.True(t, internal_errors.IsNotFound(err))
}

func TestGetTopLevelThreads(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	u := newUser(t, s, "a")

	var ids []domain.ThreadId
	for i := 0; i < 5; i++ {
		th, err := s.CreateThread(ctx, domain.ThreadCreationData{Text: "t", AuthorId: u.Id})
		require.NoError(t, err)
		ids = append(ids, th.Id)
	}

	page, err := s.GetTopLevelThreads(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[3], page[0].Id)
	assert.Equal(t, ids[2], page[1].Id)

	page, err = s.GetTopLevelThreads(ctx, 10, 2)
	require.NoError(t, err)
	assert.Empty(t, page)

	page, err = s.GetTopLevelThreads(ctx, 3, math.MaxInt)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[0], page[1].Id)

	_, err = s.GetTopLevelThreads(ctx, math.MinInt, 2)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, internal_errors.StatusCode(err))

	all, err := s.AllThreads(ctx)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, ids[0], all[0].Id)
}

func TestReturnedValuesAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := newUser(t, s, "a")
	th, err := s.CreateThread(ctx, domain.ThreadCreationData{Text: "t", AuthorId: u.Id})
	require.NoError(t, err)

	got, err := s.GetThread(ctx, th.Id)
	require.NoError(t, err)
	got.ChildIds = append(got.ChildIds, "bogus")

	again, err := s.GetThread(ctx, th.Id)
	require.NoError(t, err)
	assert.Empty(t, again.ChildIds)
}

func TestGetThreadsByIdsSkipsMissing(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := newUser(t, s, "a")
	th, err := s.CreateThread(ctx, domain.ThreadCreationData{Text: "t", AuthorId: u.Id})
	require.NoError(t, err)

	threads, err := s.GetThreadsByIds(ctx, []domain.ThreadId{"nope", th.Id, th.Id})
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, th.Id, threads[0].Id)
}
