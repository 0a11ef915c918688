package service

import (
	"context"
	"strings"
	"time"

	"github.com/wam-dev/threads/backend/internal/revalidate"
	"github.com/wam-dev/threads/shared/domain"
	internal_errors "github.com/wam-dev/threads/shared/errors"
	"github.com/wam-dev/threads/shared/middleware/metrics"
)

const (
	opUpsertUser       = "create/update user"
	opFetchUser        = "fetch user"
	opFetchUserThreads = "fetch user threads"
)

// to mock service in tests
type UserService interface {
	Upsert(ctx context.Context, profile domain.UserProfile, path string) error
	Get(ctx context.Context, identityId domain.IdentityId) (*domain.User, error)
	Threads(ctx context.Context, identityId domain.IdentityId) (*domain.UserThreads, error)
}

type UserStorage interface {
	// UpsertUser creates or updates the user keyed by IdentityId.
	UpsertUser(ctx context.Context, profile domain.UserProfile) (domain.User, error)
	GetUserByIdentity(ctx context.Context, identityId domain.IdentityId) (domain.User, error)
}

type User struct {
	storage         UserStorage
	threads         ThreadStorage
	revalidator     revalidate.Revalidator
	editProfilePath string
}

func NewUser(storage UserStorage, threads ThreadStorage, revalidator revalidate.Revalidator, editProfilePath string) *User {
	return &User{storage: storage, threads: threads, revalidator: revalidator, editProfilePath: editProfilePath}
}

// Upsert saves the profile with a lowercased username. Only a save from the
// edit-profile page triggers revalidation.
func (u *User) Upsert(ctx context.Context, profile domain.UserProfile, path string) (err error) {
	defer func(start time.Time) { metrics.ObserveStoreOp(opUpsertUser, start, err) }(time.Now())

	if strings.TrimSpace(profile.IdentityId) == "" {
		return internal_errors.Wrap(opUpsertUser, internal_errors.BadRequest("identity id is required"))
	}

	if _, err := u.storage.UpsertUser(ctx, profile.Normalized()); err != nil {
		return internal_errors.Wrap(opUpsertUser, err)
	}

	if path == u.editProfilePath {
		if err := u.revalidator.Revalidate(ctx, path); err != nil {
			return internal_errors.Wrap(opUpsertUser, err)
		}
	}
	return nil
}

// Get returns nil, nil if no user has this identity.
func (u *User) Get(ctx context.Context, identityId domain.IdentityId) (user *domain.User, err error) {
	defer func(start time.Time) { metrics.ObserveStoreOp(opFetchUser, start, err) }(time.Now())

	found, err := u.storage.GetUserByIdentity(ctx, identityId)
	if err != nil {
		if internal_errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, internal_errors.Wrap(opFetchUser, err)
	}
	return &found, nil
}

// Threads returns the user with their authored threads, newest first,
// each with its children and all authors resolved.
func (u *User) Threads(ctx context.Context, identityId domain.IdentityId) (result *domain.UserThreads, err error) {
	defer func(start time.Time) { metrics.ObserveStoreOp(opFetchUserThreads, start, err) }(time.Now())

	user, err := u.storage.GetUserByIdentity(ctx, identityId)
	if err != nil {
		if internal_errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, internal_errors.Wrap(opFetchUserThreads, err)
	}

	raw, err := u.threads.GetThreadsByAuthor(ctx, user.Id)
	if err != nil {
		return nil, internal_errors.Wrap(opFetchUserThreads, err)
	}
	threads := toPointers(raw)

	children, err := loadChildren(ctx, u.threads, threads)
	if err != nil {
		return nil, internal_errors.Wrap(opFetchUserThreads, err)
	}
	tree := append(append(make([]*domain.Thread, 0, len(threads)+len(children)), threads...), children...)
	if err := newAuthorLoader(u.threads).attach(ctx, tree); err != nil {
		return nil, internal_errors.Wrap(opFetchUserThreads, err)
	}

	return &domain.UserThreads{User: user, Threads: threads}, nil
}
