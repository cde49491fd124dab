package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dropDatabas3/gatehouse/internal/store/core"
)

// kindTable mapea el record kind a su tabla. El nombre nunca viene del caller
// externo, pero igual se resuelve por whitelist, no por interpolación.
func kindTable(kind core.RecordKind) (string, error) {
	switch kind {
	case core.KindAPIKey:
		return "api_keys", nil
	case core.KindSession:
		return "sessions", nil
	}
	return "", fmt.Errorf("%w: unknown record kind %q", core.ErrInvalid, kind)
}

// DeleteExpired borra en un solo statement (una transacción) todos los
// registros del kind con expiration_time < cutoff. NULL nunca matchea.
// Cero matches => cero escrituras.
func (s *Store) DeleteExpired(ctx context.Context, kind core.RecordKind, cutoff time.Time) (int, error) {
	table, err := kindTable(kind)
	if err != nil {
		return 0, err
	}
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM `+table+` WHERE expiration_time IS NOT NULL AND expiration_time < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) CreateAPIKey(ctx context.Context, k *core.APIKey) error {
	err := s.pool.QueryRow(ctx, `
INSERT INTO api_keys (principal_id, first_octets, hashed_secret, note, scopes, expiration_time)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at`,
		k.PrincipalID, k.FirstOctets, k.HashedSecret, k.Note, k.Scopes, k.ExpirationTime).
		Scan(&k.ID, &k.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return core.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Store) FindAPIKeyByHash(ctx context.Context, hashedSecret string) (*core.APIKey, error) {
	const q = `
SELECT id, principal_id, first_octets, hashed_secret, note, scopes, expiration_time, created_at
FROM api_keys
WHERE hashed_secret = $1
LIMIT 1`
	var k core.APIKey
	err := s.pool.QueryRow(ctx, q, hashedSecret).
		Scan(&k.ID, &k.PrincipalID, &k.FirstOctets, &k.HashedSecret, &k.Note, &k.Scopes, &k.ExpirationTime, &k.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return &k, nil
}

func (s *Store) CreateSession(ctx context.Context, sess *core.Session) error {
	return s.pool.QueryRow(ctx, `
INSERT INTO sessions (principal_id, expiration_time)
VALUES ($1, $2)
RETURNING id, created_at`, sess.PrincipalID, sess.ExpirationTime).
		Scan(&sess.ID, &sess.CreatedAt)
}

func (s *Store) GetSession(ctx context.Context, id string) (*core.Session, error) {
	const q = `
SELECT id, principal_id, expiration_time, created_at
FROM sessions
WHERE id = $1
LIMIT 1`
	var sess core.Session
	if err := s.pool.QueryRow(ctx, q, id).Scan(&sess.ID, &sess.PrincipalID, &sess.ExpirationTime, &sess.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return &sess, nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}
