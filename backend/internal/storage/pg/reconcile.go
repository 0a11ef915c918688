package pg

import (
	"context"

	"github.com/lib/pq"
	"github.com/wam-dev/threads/shared/domain"
	internal_errors "github.com/wam-dev/threads/shared/errors"
)

func (s *Storage) AllThreads(ctx context.Context) ([]domain.Thread, error) {
	db, err := s.conn.Conn(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, "SELECT "+threadColumns+" FROM threads ORDER BY created_at ASC, seq ASC")
	if err != nil {
		return nil, err
	}
	return scanThreads(rows)
}

func (s *Storage) AllUsers(ctx context.Context) ([]domain.User, error) {
	db, err := s.conn.Conn(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, "SELECT "+userColumns+" FROM users")
	if err != nil {
		return nil, err
	}
	return scanUsers(rows)
}

func (s *Storage) SetUserThreads(ctx context.Context, userId domain.UserId, threadIds []domain.ThreadId) error {
	return s.setArray(ctx, "UPDATE users SET threads = $1 WHERE id = $2", userId, threadIds, "user not found")
}

func (s *Storage) SetThreadChildren(ctx context.Context, threadId domain.ThreadId, childIds []domain.ThreadId) error {
	return s.setArray(ctx, "UPDATE threads SET children = $1 WHERE id = $2", threadId, childIds, "thread not found")
}

func (s *Storage) setArray(ctx context.Context, query, id string, ids []string, notFound string) error {
	db, err := s.conn.Conn(ctx)
	if err != nil {
		return err
	}

	if ids == nil {
		ids = []string{}
	}
	res, err := db.ExecContext(ctx, query, pq.Array(ids), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return internal_errors.NotFound(notFound)
	}
	return nil
}
