package service

import (
	"context"
	"time"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/wam-dev/threads/shared/domain"
)

type AuthorStorage interface {
	// GetUsersByIds returns the users that exist, in no particular order.
	GetUsersByIds(ctx context.Context, ids []domain.UserId) ([]domain.User, error)
}

// authorLoader batches and caches author lookups for the lifetime of one
// service call, so a tree level costs at most one user query.
type authorLoader struct {
	loader *dataloader.Loader[domain.UserId, *domain.User]
}

func newAuthorLoader(storage AuthorStorage) *authorLoader {
	batch := func(ctx context.Context, ids []domain.UserId) []*dataloader.Result[*domain.User] {
		results := make([]*dataloader.Result[*domain.User], len(ids))

		users, err := storage.GetUsersByIds(ctx, ids)
		if err != nil {
			for i := range results {
				results[i] = &dataloader.Result[*domain.User]{Error: err}
			}
			return results
		}

		byId := make(map[domain.UserId]*domain.User, len(users))
		for i := range users {
			byId[users[i].Id] = &users[i]
		}
		for i, id := range ids {
			results[i] = &dataloader.Result[*domain.User]{Data: byId[id]}
		}
		return results
	}

	return &authorLoader{
		loader: dataloader.NewBatchedLoader(batch, dataloader.WithWait[domain.UserId, *domain.User](time.Millisecond)),
	}
}

// attach sets Author on every thread. Threads whose author no longer exists keep a nil Author.
func (a *authorLoader) attach(ctx context.Context, threads []*domain.Thread) error {
	thunks := make([]dataloader.Thunk[*domain.User], len(threads))
	for i, t := range threads {
		thunks[i] = a.loader.Load(ctx, t.AuthorId)
	}
	for i, thunk := range thunks {
		user, err := thunk()
		if err != nil {
			return err
		}
		if user != nil {
			threads[i].Author = user.Author()
		}
	}
	return nil
}

// loadChildren fetches the children of all parents in one query, fills
// each parent's Children in ChildIds order and returns every loaded child.
// Dangling child ids are skipped.
func loadChildren(ctx context.Context, storage ThreadStorage, parents []*domain.Thread) ([]*domain.Thread, error) {
	var ids []domain.ThreadId
	for _, p := range parents {
		ids = append(ids, p.ChildIds...)
	}
	for _, p := range parents {
		p.Children = make([]*domain.Thread, 0, len(p.ChildIds))
	}
	if len(ids) == 0 {
		return nil, nil
	}

	children, err := storage.GetThreadsByIds(ctx, ids)
	if err != nil {
		return nil, err
	}
	byId := make(map[domain.ThreadId]*domain.Thread, len(children))
	for i := range children {
		byId[children[i].Id] = &children[i]
	}

	loaded := make([]*domain.Thread, 0, len(children))
	for _, p := range parents {
		for _, id := range p.ChildIds {
			if child, ok := byId[id]; ok {
				p.Children = append(p.Children, child)
				loaded = append(loaded, child)
			}
		}
	}
	return loaded, nil
}

func toPointers(threads []domain.Thread) []*domain.Thread {
	ptrs := make([]*domain.Thread, len(threads))
	for i := range threads {
		ptrs[i] = &threads[i]
	}
	return ptrs
}
