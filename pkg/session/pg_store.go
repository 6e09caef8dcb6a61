package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/budgetkit/pkg/pg"
)

// PGStore implements Store over a PostgreSQL refresh_tokens table (see the
// migrations directory for the schema). The table carries a unique constraint
// on token and secondary indexes on user_id and expires_at.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a PostgreSQL-backed session store over the given pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (p *PGStore) Insert(ctx context.Context, s *Session) error {
	if s == nil || s.Token == "" || s.UserID == uuid.Nil {
		return ErrInvalidSession
	}

	_, err := p.pool.Exec(ctx,
		`INSERT INTO refresh_tokens (id, user_id, token, device_info, expires_at, created_at)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)`,
		s.ID, s.UserID, s.Token, s.DeviceInfo, s.ExpiresAt, s.CreatedAt,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrDuplicateToken
		}
		return err
	}
	return nil
}

func (p *PGStore) FindByToken(ctx context.Context, token string) (*Session, error) {
	var s Session
	err := p.pool.QueryRow(ctx,
		`SELECT id, user_id, token, COALESCE(device_info, ''), expires_at, created_at
		 FROM refresh_tokens WHERE token = $1`,
		token,
	).Scan(&s.ID, &s.UserID, &s.Token, &s.DeviceInfo, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (p *PGStore) DeleteByToken(ctx context.Context, token string) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, token)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (p *PGStore) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (p *PGStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (p *PGStore) ListActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]Session, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, user_id, token, COALESCE(device_info, ''), expires_at, created_at
		 FROM refresh_tokens
		 WHERE user_id = $1 AND expires_at > $2
		 ORDER BY created_at DESC`,
		userID, now,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.Token, &s.DeviceInfo, &s.ExpiresAt, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *PGStore) CountAll(ctx context.Context) (int64, error) {
	var n int64
	err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM refresh_tokens`).Scan(&n)
	return n, err
}

func (p *PGStore) CountActive(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := p.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM refresh_tokens WHERE expires_at > $1`, now,
	).Scan(&n)
	return n, err
}

var _ Store = (*PGStore)(nil)
