package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/wam-dev/threads/shared/domain"
	internal_errors "github.com/wam-dev/threads/shared/errors"
	pgutil "github.com/wam-dev/threads/shared/storage/pg"
)

func (s *Storage) CreateThread(ctx context.Context, data domain.ThreadCreationData) (domain.Thread, error) {
	db, err := s.conn.Conn(ctx)
	if err != nil {
		return domain.Thread{}, err
	}

	var thread domain.Thread
	err = pgutil.WithTx(ctx, db, func(tx *sql.Tx) error {
		if err := lockUser(ctx, tx, data.AuthorId); err != nil {
			return err
		}
		thread, err = insertThread(ctx, tx, data.Text, data.AuthorId, nil, data.CommunityId)
		if err != nil {
			return err
		}
		return appendUserThread(ctx, tx, data.AuthorId, thread.Id)
	})
	if err != nil {
		return domain.Thread{}, err
	}
	return thread, nil
}

func (s *Storage) CreateReply(ctx context.Context, data domain.ReplyCreationData) (domain.Thread, error) {
	db, err := s.conn.Conn(ctx)
	if err != nil {
		return domain.Thread{}, err
	}

	var thread domain.Thread
	err = pgutil.WithTx(ctx, db, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM threads WHERE id = $1 FOR UPDATE", data.ParentId).Scan(&exists)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return internal_errors.NotFound("parent thread not found")
			}
			return fmt.Errorf("failed to lock parent thread: %w", err)
		}
		if err := lockUser(ctx, tx, data.AuthorId); err != nil {
			return err
		}

		parentId := data.ParentId
		thread, err = insertThread(ctx, tx, data.Text, data.AuthorId, &parentId, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE threads SET children = array_append(children, $1) WHERE id = $2",
			thread.Id, data.ParentId,
		); err != nil {
			return fmt.Errorf("failed to link reply to parent: %w", err)
		}
		return appendUserThread(ctx, tx, data.AuthorId, thread.Id)
	})
	if err != nil {
		return domain.Thread{}, err
	}
	return thread, nil
}

func lockUser(ctx context.Context, q pgutil.Querier, id domain.UserId) error {
	var exists int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id = $1 FOR UPDATE", id).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return internal_errors.NotFound("author not found")
		}
		return fmt.Errorf("failed to lock author: %w", err)
	}
	return nil
}

func insertThread(ctx context.Context, q pgutil.Querier, text domain.ThreadText, author domain.UserId, parent *domain.ThreadId, community *domain.CommunityId) (domain.Thread, error) {
	row := q.QueryRowContext(ctx, `
        INSERT INTO threads (id, text, author_id, parent_id, community_id)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING `+threadColumns,
		uuid.NewString(), text, author, parent, community,
	)
	thread, err := scanThread(row)
	if err != nil {
		return domain.Thread{}, fmt.Errorf("failed to insert thread: %w", err)
	}
	return thread, nil
}

func appendUserThread(ctx context.Context, q pgutil.Querier, userId domain.UserId, threadId domain.ThreadId) error {
	if _, err := q.ExecContext(ctx,
		"UPDATE users SET threads = array_append(threads, $1) WHERE id = $2",
		threadId, userId,
	); err != nil {
		return fmt.Errorf("failed to link thread to author: %w", err)
	}
	return nil
}

func (s *Storage) GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	db, err := s.conn.Conn(ctx)
	if err != nil {
		return domain.Thread{}, err
	}

	thread, err := scanThread(db.QueryRowContext(ctx, "SELECT "+threadColumns+" FROM threads WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Thread{}, internal_errors.NotFound("thread not found")
		}
		return domain.Thread{}, err
	}
	return thread, nil
}

func (s *Storage) GetThreadsByIds(ctx context.Context, ids []domain.ThreadId) ([]domain.Thread, error) {
	if len(ids) == 0 {
		return []domain.Thread{}, nil
	}
	db, err := s.conn.Conn(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, "SELECT "+threadColumns+" FROM threads WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return nil, err
	}
	return scanThreads(rows)
}

func (s *Storage) GetTopLevelThreads(ctx context.Context, skip, limit int) ([]domain.Thread, error) {
	db, err := s.conn.Conn(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
        SELECT `+threadColumns+`
        FROM threads
        WHERE parent_id IS NULL
        ORDER BY created_at DESC, seq DESC
        OFFSET $1 LIMIT $2
    `, skip, limit)
	if err != nil {
		return nil, err
	}
	return scanThreads(rows)
}

func (s *Storage) CountTopLevelThreads(ctx context.Context) (int, error) {
	db, err := s.conn.Conn(ctx)
	if err != nil {
		return 0, err
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM threads WHERE parent_id IS NULL").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Storage) GetThreadsByAuthor(ctx context.Context, authorId domain.UserId) ([]domain.Thread, error) {
	db, err := s.conn.Conn(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
        SELECT `+threadColumns+`
        FROM threads
        WHERE author_id = $1
        ORDER BY created_at DESC, seq DESC
    `, authorId)
	if err != nil {
		return nil, err
	}
	return scanThreads(rows)
}
