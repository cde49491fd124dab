package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/gatehouse/internal/store/core"
)

// SeedRoles inserta los roles en una sola transacción. Pensado para el
// bootstrap (los dos built-ins) pero sirve para altas administrativas.
func (s *Store) SeedRoles(ctx context.Context, roles []core.Role) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const q = `
INSERT INTO roles (name, description, scopes)
VALUES ($1, $2, $3)`
	for _, r := range roles {
		if _, err := tx.Exec(ctx, q, r.Name, r.Description, r.Scopes); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) FindRole(ctx context.Context, name string) (*core.Role, error) {
	const q = `
SELECT id, name, description, scopes, created_at
FROM roles
WHERE name = $1
LIMIT 1`
	var r core.Role
	if err := s.pool.QueryRow(ctx, q, name).Scan(&r.ID, &r.Name, &r.Description, &r.Scopes, &r.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}
