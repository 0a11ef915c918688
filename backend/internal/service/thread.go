package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/wam-dev/threads/backend/internal/revalidate"
	"github.com/wam-dev/threads/shared/domain"
	internal_errors "github.com/wam-dev/threads/shared/errors"
	"github.com/wam-dev/threads/shared/middleware/metrics"
	"golang.org/x/sync/errgroup"
)

const (
	opCreateThread    = "create thread"
	opAddReply        = "add reply"
	opFetchThreadById = "fetch thread by ID"
	opFetchThreads    = "fetch threads"
)

// to mock service in tests
type ThreadService interface {
	Create(ctx context.Context, data domain.ThreadCreationData) (domain.ThreadId, error)
	Reply(ctx context.Context, data domain.ReplyCreationData) (domain.ThreadId, error)
	GetById(ctx context.Context, id domain.ThreadId) (*domain.Thread, error)
	List(ctx context.Context, page, pageSize int) (*domain.ThreadPage, error)
}

type ThreadStorage interface {
	// CreateThread inserts a top-level thread and appends it to the author's
	// threads as one unit of work.
	CreateThread(ctx context.Context, data domain.ThreadCreationData) (domain.Thread, error)
	// CreateReply inserts a thread under ParentId and links it to both the
	// parent's children and the author's threads as one unit of work.
	CreateReply(ctx context.Context, data domain.ReplyCreationData) (domain.Thread, error)
	GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error)
	// GetThreadsByIds returns the threads that exist, in no particular order.
	GetThreadsByIds(ctx context.Context, ids []domain.ThreadId) ([]domain.Thread, error)
	GetTopLevelThreads(ctx context.Context, skip, limit int) ([]domain.Thread, error)
	CountTopLevelThreads(ctx context.Context) (int, error)
	GetThreadsByAuthor(ctx context.Context, authorId domain.UserId) ([]domain.Thread, error)
	AuthorStorage
}

type Thread struct {
	storage         ThreadStorage
	revalidator     revalidate.Revalidator
	defaultPageSize int
}

func NewThread(storage ThreadStorage, revalidator revalidate.Revalidator, defaultPageSize int) *Thread {
	if defaultPageSize < 1 {
		defaultPageSize = domain.DefaultPageSize
	}
	return &Thread{storage: storage, revalidator: revalidator, defaultPageSize: defaultPageSize}
}

// Create posts a top-level thread. The community is never persisted and
// no parent is linked, replies go through Reply.
func (t *Thread) Create(ctx context.Context, data domain.ThreadCreationData) (id domain.ThreadId, err error) {
	defer func(start time.Time) { metrics.ObserveStoreOp(opCreateThread, start, err) }(time.Now())

	if err := validateText(data.Text, data.AuthorId); err != nil {
		return "", internal_errors.Wrap(opCreateThread, err)
	}
	data.CommunityId = nil

	thread, err := t.storage.CreateThread(ctx, data)
	if err != nil {
		return "", internal_errors.Wrap(opCreateThread, err)
	}
	if err := t.revalidator.Revalidate(ctx, data.Path); err != nil {
		return "", internal_errors.Wrap(opCreateThread, err)
	}
	return thread.Id, nil
}

func (t *Thread) Reply(ctx context.Context, data domain.ReplyCreationData) (id domain.ThreadId, err error) {
	defer func(start time.Time) { metrics.ObserveStoreOp(opAddReply, start, err) }(time.Now())

	if err := validateText(data.Text, data.AuthorId); err != nil {
		return "", internal_errors.Wrap(opAddReply, err)
	}

	thread, err := t.storage.CreateReply(ctx, data)
	if err != nil {
		return "", internal_errors.Wrap(opAddReply, err)
	}
	if err := t.revalidator.Revalidate(ctx, data.Path); err != nil {
		return "", internal_errors.Wrap(opAddReply, err)
	}
	return thread.Id, nil
}

// GetById returns the thread with authors resolved two levels down:
// children and grandchildren. Returns nil, nil if the thread does not exist.
func (t *Thread) GetById(ctx context.Context, id domain.ThreadId) (thread *domain.Thread, err error) {
	defer func(start time.Time) { metrics.ObserveStoreOp(opFetchThreadById, start, err) }(time.Now())

	raw, err := t.storage.GetThread(ctx, id)
	if err != nil {
		if internal_errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, internal_errors.Wrap(opFetchThreadById, err)
	}
	thread = &raw

	children, err := loadChildren(ctx, t.storage, []*domain.Thread{thread})
	if err != nil {
		return nil, internal_errors.Wrap(opFetchThreadById, err)
	}
	grandchildren, err := loadChildren(ctx, t.storage, children)
	if err != nil {
		return nil, internal_errors.Wrap(opFetchThreadById, err)
	}

	tree := make([]*domain.Thread, 0, 1+len(children)+len(grandchildren))
	tree = append(tree, thread)
	tree = append(tree, children...)
	tree = append(tree, grandchildren...)
	if err := newAuthorLoader(t.storage).attach(ctx, tree); err != nil {
		return nil, internal_errors.Wrap(opFetchThreadById, err)
	}
	return thread, nil
}

// List returns a page of top-level threads, newest first, with authors
// resolved for the threads and their direct children. pageSize is capped
// at domain.MaxPageSize.
func (t *Thread) List(ctx context.Context, page, pageSize int) (result *domain.ThreadPage, err error) {
	defer func(start time.Time) { metrics.ObserveStoreOp(opFetchThreads, start, err) }(time.Now())

	page = max(domain.DefaultPage, page)
	if pageSize < 1 {
		pageSize = t.defaultPageSize
	}
	pageSize = min(pageSize, domain.MaxPageSize)
	if page-1 > (math.MaxInt-pageSize)/pageSize {
		return nil, internal_errors.Wrap(opFetchThreads, internal_errors.BadRequest("page is out of range"))
	}
	skip := domain.Skip(page, pageSize)

	var (
		total int
		raw   []domain.Thread
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := t.storage.CountTopLevelThreads(gctx)
		total = n
		return err
	})
	g.Go(func() error {
		threads, err := t.storage.GetTopLevelThreads(gctx, skip, pageSize)
		raw = threads
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, internal_errors.Wrap(opFetchThreads, err)
	}

	threads := toPointers(raw)
	children, err := loadChildren(ctx, t.storage, threads)
	if err != nil {
		return nil, internal_errors.Wrap(opFetchThreads, err)
	}

	tree := make([]*domain.Thread, 0, len(threads)+len(children))
	tree = append(tree, threads...)
	tree = append(tree, children...)
	if err := newAuthorLoader(t.storage).attach(ctx, tree); err != nil {
		return nil, internal_errors.Wrap(opFetchThreads, err)
	}

	return &domain.ThreadPage{
		Threads: threads,
		IsNext:  total > skip+len(threads),
	}, nil
}

func validateText(text domain.ThreadText, author domain.UserId) error {
	if strings.TrimSpace(text) == "" {
		return internal_errors.BadRequest("thread text is empty")
	}
	if author == "" {
		return internal_errors.BadRequest("author is required")
	}
	return nil
}
