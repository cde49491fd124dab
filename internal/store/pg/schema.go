package pg

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	migrations "github.com/dropDatabas3/gatehouse/migrations/postgres"
)

// revisionTable guarda el marker de schema: a lo sumo una fila en un store
// sano. Cero filas (o tabla ausente) => sin inicializar. Más de una fila sólo
// puede aparecer si otro proceso tocó el store.
const revisionTable = "schema_revision"

const pgUndefinedTable = "42P01"

// RevisionHeads devuelve todas las filas del marker. Read-only.
func (s *Store) RevisionHeads(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT version FROM `+revisionTable+` ORDER BY version`)
	if err != nil {
		// Tabla inexistente == store virgen, no un error.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable {
			return nil, nil
		}
		return nil, err
	}
	defer rows.Close()

	var heads []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		heads = append(heads, v)
	}
	return heads, rows.Err()
}

// StampRevision reescribe el marker a una sola fila con `revision`, en una
// transacción. Es el "stamp head" del bootstrap y del runner; nunca replay.
func (s *Store) StampRevision(ctx context.Context, revision string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+revisionTable+` (version TEXT PRIMARY KEY)`); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM `+revisionTable); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO `+revisionTable+` (version) VALUES ($1)`, revision); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// clearRevision borra el marker (se usa cuando el runner deshace el primer paso).
func (s *Store) clearRevision(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM `+revisionTable)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable {
		return nil
	}
	return err
}

// CreateSchema aplica el DDL completo ejecutando los mismos *_up.sql embebidos
// que aplicaría el migration runner, sin estampar revisiones intermedias. Así
// un store bootstrapeado queda byte a byte schema-equivalente a uno que
// replayó la cadena entera.
func (s *Store) CreateSchema(ctx context.Context) error {
	files, err := listSteps(migrations.FS, "_up.sql")
	if err != nil {
		return err
	}
	for _, f := range files {
		b, err := fs.ReadFile(migrations.FS, f)
		if err != nil {
			return err
		}
		if _, err := s.pool.Exec(ctx, string(b)); err != nil {
			return fmt.Errorf("exec %s: %w", f, err)
		}
	}
	return nil
}

// listSteps lista los archivos de migración con un sufijo, en orden lexical
// ascendente (el prefijo NNNN da el orden total).
func listSteps(fsys fs.FS, suffix string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), suffix) {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// stepRevision extrae la revisión del nombre NNNN_<revision>_{up,down}.sql.
func stepRevision(name string) (string, error) {
	parts := strings.Split(name, "_")
	if len(parts) < 3 {
		return "", fmt.Errorf("malformed migration filename %q", name)
	}
	return parts[1], nil
}
