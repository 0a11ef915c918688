package pg

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/wam-dev/threads/shared/domain"
	internal_errors "github.com/wam-dev/threads/shared/errors"
)

func (s *Storage) UpsertUser(ctx context.Context, profile domain.UserProfile) (domain.User, error) {
	db, err := s.conn.Conn(ctx)
	if err != nil {
		return domain.User{}, err
	}

	return scanUser(db.QueryRowContext(ctx, `
        INSERT INTO users (id, identity_id, username, name, bio, image)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (identity_id) DO UPDATE SET
            username = EXCLUDED.username,
            name = EXCLUDED.name,
            bio = EXCLUDED.bio,
            image = EXCLUDED.image
        RETURNING `+userColumns,
		uuid.NewString(), profile.IdentityId, profile.Username, profile.Name, profile.Bio, profile.Image,
	))
}

func (s *Storage) GetUserByIdentity(ctx context.Context, identityId domain.IdentityId) (domain.User, error) {
	db, err := s.conn.Conn(ctx)
	if err != nil {
		return domain.User{}, err
	}

	user, err := scanUser(db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE identity_id = $1", identityId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, internal_errors.NotFound("user not found")
		}
		return domain.User{}, err
	}
	return user, nil
}

func (s *Storage) GetUsersByIds(ctx context.Context, ids []domain.UserId) ([]domain.User, error) {
	if len(ids) == 0 {
		return []domain.User{}, nil
	}
	db, err := s.conn.Conn(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return nil, err
	}
	return scanUsers(rows)
}
