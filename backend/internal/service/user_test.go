package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wam-dev/threads/backend/internal/revalidate"
	"github.com/wam-dev/threads/backend/internal/storage/memory"
	"github.com/wam-dev/threads/shared/domain"
	internal_errors "github.com/wam-dev/threads/shared/errors"
)

const editPath = "/profile/edit"

func TestUserUpsert(t *testing.T) {
	ctx := context.Background()
	profile := domain.UserProfile{IdentityId: "idp|1", Username: "Alice", Name: "Alice", Image: "https://img/a"}

	t.Run("lowercases username", func(t *testing.T) {
		storage := &MockUserStorage{}
		s := NewUser(storage, &MockThreadStorage{}, &MockRevalidator{}, editPath)

		require.NoError(t, s.Upsert(ctx, profile, "/onboarding"))
		require.Len(t, storage.upsertArgs, 1)
		assert.Equal(t, "alice", storage.upsertArgs[0].Username)
	})

	t.Run("revalidates only the edit page", func(t *testing.T) {
		revalidator := &MockRevalidator{}
		s := NewUser(&MockUserStorage{}, &MockThreadStorage{}, revalidator, editPath)

		require.NoError(t, s.Upsert(ctx, profile, "/profile/view"))
		assert.Empty(t, revalidator.paths)

		require.NoError(t, s.Upsert(ctx, profile, editPath))
		assert.Equal(t, []string{editPath}, revalidator.paths)
	})

	t.Run("storage error is wrapped", func(t *testing.T) {
		storage := &MockUserStorage{
			upsertUserFunc: func(domain.UserProfile) (domain.User, error) { return domain.User{}, errDb },
		}
		s := NewUser(storage, &MockThreadStorage{}, &MockRevalidator{}, editPath)

		err := s.Upsert(ctx, profile, editPath)
		require.Error(t, err)
		assert.Equal(t, "Failed to create/update user: connection refused", err.Error())
	})

	t.Run("missing identity", func(t *testing.T) {
		s := NewUser(&MockUserStorage{}, &MockThreadStorage{}, &MockRevalidator{}, editPath)
		err := s.Upsert(ctx, domain.UserProfile{Username: "x"}, editPath)
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, internal_errors.StatusCode(err))
	})

	t.Run("twice keeps one record with the latest values", func(t *testing.T) {
		store := memory.New()
		s := NewUser(store, store, revalidate.NewRecorder(), editPath)

		require.NoError(t, s.Upsert(ctx, profile, editPath))
		updated := profile
		updated.Name = "Alice Liddell"
		require.NoError(t, s.Upsert(ctx, updated, editPath))

		users, err := store.AllUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "Alice Liddell", users[0].Name)
		assert.Equal(t, "alice", users[0].Username)
	})
}

func TestUserGet(t *testing.T) {
	ctx := context.Background()

	t.Run("absent user is nil", func(t *testing.T) {
		s := NewUser(memory.New(), memory.New(), &MockRevalidator{}, editPath)
		user, err := s.Get(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("found", func(t *testing.T) {
		store := memory.New()
		s := NewUser(store, store, &MockRevalidator{}, editPath)
		require.NoError(t, s.Upsert(ctx, domain.UserProfile{IdentityId: "idp|2", Username: "Bob"}, "/"))

		user, err := s.Get(ctx, "idp|2")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "bob", user.Username)
	})

	t.Run("storage error is wrapped", func(t *testing.T) {
		storage := &MockUserStorage{
			getUserByIdentityFunc: func(domain.IdentityId) (domain.User, error) { return domain.User{}, errDb },
		}
		s := NewUser(storage, &MockThreadStorage{}, &MockRevalidator{}, editPath)
		_, err := s.Get(ctx, "idp|1")
		require.Error(t, err)
		assert.Equal(t, "Failed to fetch user: connection refused", err.Error())
	})
}

func TestUserThreads(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	users := NewUser(store, store, revalidate.NewRecorder(), editPath)
	threads := NewThread(store, revalidate.NewRecorder(), 0)

	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")
	first, err := threads.Create(ctx, domain.ThreadCreationData{Text: "one", AuthorId: alice.Id, Path: "/"})
	require.NoError(t, err)
	second, err := threads.Create(ctx, domain.ThreadCreationData{Text: "two", AuthorId: alice.Id, Path: "/"})
	require.NoError(t, err)
	reply, err := threads.Reply(ctx, domain.ReplyCreationData{ParentId: first, Text: "re", AuthorId: bob.Id, Path: "/"})
	require.NoError(t, err)

	result, err := users.Threads(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, alice.Id, result.User.Id)
	require.Len(t, result.Threads, 2)
	assert.Equal(t, second, result.Threads[0].Id)
	assert.Equal(t, first, result.Threads[1].Id)

	require.Len(t, result.Threads[1].Children, 1)
	child := result.Threads[1].Children[0]
	assert.Equal(t, reply, child.Id)
	require.NotNil(t, child.Author)
	assert.Equal(t, bob.Id, child.Author.Id)

	bobThreads, err := users.Threads(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, bobThreads.Threads, 1)
	assert.Equal(t, reply, bobThreads.Threads[0].Id)

	missing, err := users.Threads(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
