package pg

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/lib/pq"
	"github.com/wam-dev/threads/shared/domain"
	"github.com/wam-dev/threads/shared/storage/connection"
	pgutil "github.com/wam-dev/threads/shared/storage/pg"
)

const threadColumns = "id, text, author_id, parent_id, children, community_id, created_at"

const userColumns = "id, identity_id, username, name, bio, image, threads"

type Storage struct {
	conn *connection.Manager[*sql.DB]
}

//go:embed migrations/init.sql
var schema string

// New does not dial. The pool is opened by the first query.
func New(dsn string, connCfg pgutil.ConnectionConfig) *Storage {
	return &Storage{conn: connection.New("postgres", dsn, Opener(connCfg))}
}

// Opener opens the pool and applies the schema. Every statement in it is
// idempotent, so it runs on each open.
func Opener(connCfg pgutil.ConnectionConfig) connection.OpenFunc[*sql.DB] {
	return func(ctx context.Context, dsn string) (*sql.DB, error) {
		db, err := pgutil.Open(ctx, dsn, connCfg)
		if err != nil {
			return nil, err
		}
		if _, err := db.ExecContext(ctx, schema); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
		return db, nil
	}
}

func (s *Storage) Ping(ctx context.Context) error {
	db, err := s.conn.Conn(ctx)
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

func (s *Storage) Cleanup() error {
	return s.conn.Close(func(db *sql.DB) error { return db.Close() })
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanThread(row rowScanner) (domain.Thread, error) {
	var (
		t         domain.Thread
		parent    sql.NullString
		community sql.NullString
		children  pq.StringArray
	)
	if err := row.Scan(&t.Id, &t.Text, &t.AuthorId, &parent, &children, &community, &t.CreatedAt); err != nil {
		return domain.Thread{}, err
	}
	if parent.Valid {
		t.ParentId = &parent.String
	}
	if community.Valid {
		t.CommunityId = &community.String
	}
	t.ChildIds = []domain.ThreadId(children)
	if t.ChildIds == nil {
		t.ChildIds = []domain.ThreadId{}
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return t, nil
}

func scanThreads(rows *sql.Rows) ([]domain.Thread, error) {
	defer rows.Close()

	threads := []domain.Thread{}
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, err
		}
		threads = append(threads, t)
	}
	return threads, rows.Err()
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		u       domain.User
		threads pq.StringArray
	)
	if err := row.Scan(&u.Id, &u.IdentityId, &u.Username, &u.Name, &u.Bio, &u.Image, &threads); err != nil {
		return domain.User{}, err
	}
	u.Threads = []domain.ThreadId(threads)
	if u.Threads == nil {
		u.Threads = []domain.ThreadId{}
	}
	return u, nil
}

func scanUsers(rows *sql.Rows) ([]domain.User, error) {
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
