package pg

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/gatehouse/internal/observability/logger"
	migrations "github.com/dropDatabas3/gatehouse/migrations/postgres"
)

// El runner de migraciones. Este módulo sólo lee/escribe el marker vigente;
// los pasos en sí son SQL opaco embebido, totalmente ordenado por nombre.
// Diseñado para correr de a un proceso por vez (deploy step u operador).

// MigrateUp aplica hasta `steps` migraciones pendientes (0 = todas) y deja el
// marker en la revisión del último paso aplicado. Los pasos ya aplicados
// (revisión <= head actual en el orden de la cadena) se saltean.
func (s *Store) MigrateUp(ctx context.Context, steps int) error {
	files, err := listSteps(migrations.FS, "_up.sql")
	if err != nil {
		return err
	}
	pending, err := s.pendingFrom(ctx, files)
	if err != nil {
		return err
	}
	if steps > 0 && steps < len(pending) {
		pending = pending[:steps]
	}
	if len(pending) == 0 {
		logger.Named("migrate").Info("no pending migrations")
		return nil
	}

	log := logger.Named("migrate")
	for _, f := range pending {
		rev, err := stepRevision(f)
		if err != nil {
			return err
		}
		start := time.Now()
		b, err := fs.ReadFile(migrations.FS, f)
		if err != nil {
			return err
		}
		if _, err := s.pool.Exec(ctx, string(b)); err != nil {
			return fmt.Errorf("exec %s: %w", f, err)
		}
		if err := s.StampRevision(ctx, rev); err != nil {
			return fmt.Errorf("stamp %s: %w", rev, err)
		}
		log.Info("migration applied",
			zap.String("file", f),
			logger.Revision(rev),
			logger.Duration(time.Since(start).Truncate(time.Millisecond)),
		)
	}
	return nil
}

// MigrateDown deshace hasta `steps` migraciones (0 = todas), en orden inverso,
// moviendo el marker a la revisión del paso anterior (o borrándolo si se
// deshizo el primero).
func (s *Store) MigrateDown(ctx context.Context, steps int) error {
	upFiles, err := listSteps(migrations.FS, "_up.sql")
	if err != nil {
		return err
	}
	applied, err := s.appliedFrom(ctx, upFiles)
	if err != nil {
		return err
	}
	if steps <= 0 || steps > len(applied) {
		steps = len(applied)
	}
	if steps == 0 {
		logger.Named("migrate").Info("nothing to roll back")
		return nil
	}

	log := logger.Named("migrate")
	for i := 0; i < steps; i++ {
		idx := len(applied) - 1 - i
		upName := applied[idx]
		rev, err := stepRevision(upName)
		if err != nil {
			return err
		}
		downName := upName[:len(upName)-len("_up.sql")] + "_down.sql"
		b, err := fs.ReadFile(migrations.FS, downName)
		if err != nil {
			return fmt.Errorf("missing down step for %s: %w", upName, err)
		}
		if _, err := s.pool.Exec(ctx, string(b)); err != nil {
			return fmt.Errorf("exec %s: %w", downName, err)
		}
		if idx == 0 {
			if err := s.clearRevision(ctx); err != nil {
				return err
			}
		} else {
			prev, err := stepRevision(applied[idx-1])
			if err != nil {
				return err
			}
			if err := s.StampRevision(ctx, prev); err != nil {
				return err
			}
		}
		log.Info("migration rolled back",
			zap.String("file", downName),
			logger.Revision(rev),
		)
	}
	return nil
}

// pendingFrom corta la lista de pasos después del head actual.
// Head ausente => todos pendientes. Head que no aparece en la cadena o marker
// con múltiples filas: el runner no adivina, falla.
func (s *Store) pendingFrom(ctx context.Context, files []string) ([]string, error) {
	heads, err := s.RevisionHeads(ctx)
	if err != nil {
		return nil, err
	}
	if len(heads) == 0 {
		return files, nil
	}
	if len(heads) != 1 {
		return nil, fmt.Errorf("revision marker has %d heads, refusing to migrate", len(heads))
	}
	for i, f := range files {
		rev, err := stepRevision(f)
		if err != nil {
			return nil, err
		}
		if rev == heads[0] {
			return files[i+1:], nil
		}
	}
	return nil, fmt.Errorf("current revision %s is not part of this build's migration chain", heads[0])
}

// appliedFrom devuelve el prefijo de pasos ya aplicados según el head actual.
func (s *Store) appliedFrom(ctx context.Context, files []string) ([]string, error) {
	heads, err := s.RevisionHeads(ctx)
	if err != nil {
		return nil, err
	}
	if len(heads) == 0 {
		return nil, nil
	}
	if len(heads) != 1 {
		return nil, fmt.Errorf("revision marker has %d heads, refusing to migrate", len(heads))
	}
	for i, f := range files {
		rev, err := stepRevision(f)
		if err != nil {
			return nil, err
		}
		if rev == heads[0] {
			return files[:i+1], nil
		}
	}
	return nil, fmt.Errorf("current revision %s is not part of this build's migration chain", heads[0])
}
