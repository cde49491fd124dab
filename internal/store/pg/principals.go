package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dropDatabas3/gatehouse/internal/store/core"
)

const pgUniqueViolation = "23505"

// CreatePrincipal inserta el principal y sus bindings iniciales en una sola
// transacción, y devuelve la entidad con el UUID que generó el store. El
// read-back vía RETURNING es deliberado: las filas dependientes (identity)
// necesitan ese ID materializado antes de poder insertarse.
func (s *Store) CreatePrincipal(ctx context.Context, ptype core.PrincipalType, roleNames ...string) (*core.Principal, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var p core.Principal
	p.Type = ptype
	err = tx.QueryRow(ctx, `
INSERT INTO principals (type)
VALUES ($1)
RETURNING id, created_at`, string(ptype)).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return nil, err
	}

	for _, name := range roleNames {
		roleID, err := resolveRoleID(ctx, tx, name)
		if err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx, `
INSERT INTO principal_roles (principal_id, role_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING`, p.ID, roleID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s.GetPrincipal(ctx, p.ID)
}

func (s *Store) GetPrincipal(ctx context.Context, id string) (*core.Principal, error) {
	var p core.Principal
	err := s.pool.QueryRow(ctx, `
SELECT id, type, created_at
FROM principals
WHERE id = $1
LIMIT 1`, id).Scan(&p.ID, &p.Type, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
SELECT r.id, r.name, r.description, r.scopes, r.created_at
FROM principal_roles pr
JOIN roles r ON r.id = pr.role_id
WHERE pr.principal_id = $1
ORDER BY r.name`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var r core.Role
		if err := rows.Scan(&r.ID, &r.Name, &r.Description, &r.Scopes, &r.CreatedAt); err != nil {
			return nil, err
		}
		p.Roles = append(p.Roles, r)
	}
	return &p, rows.Err()
}

// DeletePrincipal borra el principal; identities, bindings, api keys y
// sessions caen por FK ON DELETE CASCADE.
func (s *Store) DeletePrincipal(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM principals WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

// GrantRole agrega el rol al principal si no lo tiene. El PK compuesto de
// principal_roles hace el insert duplicate-safe: conflicto == ya estaba en el
// estado deseado, no es error.
func (s *Store) GrantRole(ctx context.Context, principalID, roleName string) error {
	roleID, err := resolveRoleID(ctx, s.pool, roleName)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
INSERT INTO principal_roles (principal_id, role_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING`, principalID, roleID)
	return err
}

func (s *Store) CreateIdentity(ctx context.Context, ident *core.Identity) error {
	err := s.pool.QueryRow(ctx, `
INSERT INTO identities (provider, external_id, principal_id)
VALUES ($1, $2, $3)
RETURNING created_at`, ident.Provider, ident.ExternalID, ident.PrincipalID).Scan(&ident.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return core.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Store) FindIdentity(ctx context.Context, provider, externalID string) (*core.Identity, error) {
	const q = `
SELECT provider, external_id, principal_id, created_at
FROM identities
WHERE provider = $1 AND external_id = $2
LIMIT 1`
	var i core.Identity
	if err := s.pool.QueryRow(ctx, q, provider, externalID).Scan(&i.Provider, &i.ExternalID, &i.PrincipalID, &i.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return &i, nil
}

// queryRower cubre pool y tx para resolver roles dentro o fuera de una
// transacción abierta.
type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func resolveRoleID(ctx context.Context, q queryRower, name string) (string, error) {
	var id string
	err := q.QueryRow(ctx, `SELECT id FROM roles WHERE name = $1`, name).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Un built-in ausente es misconfiguración fatal, distinguible de
			// un simple not-found.
			return "", &core.MisconfiguredRegistryError{Role: name}
		}
		return "", err
	}
	return id, nil
}
