package core

import (
	"context"
	"fmt"
	"time"

	"github.com/dropDatabas3/gatehouse/internal/metrics"
	"github.com/dropDatabas3/gatehouse/internal/observability/logger"
)

// PurgeExpired borra los registros vencidos de `kind` y devuelve el kind para
// poder encadenar la query siguiente contra la tabla ya limpia:
//
//	kind, err := core.PurgeExpired(ctx, s, core.KindAPIKey)
//	...
//	key, err := s.FindAPIKeyByHash(ctx, hash)
//
// El cutoff se evalúa una sola vez por llamada. expiration_time NULL significa
// "nunca expira" y jamás matchea. Si no hay vencidos no se escribe nada.
func PurgeExpired(ctx context.Context, s Store, kind RecordKind) (RecordKind, error) {
	if !kind.Valid() {
		return kind, fmt.Errorf("%w: unknown record kind %q", ErrInvalid, kind)
	}

	cutoff := time.Now().UTC()
	n, err := s.DeleteExpired(ctx, kind, cutoff)
	if err != nil {
		return kind, fmt.Errorf("purge expired %s: %w", kind, err)
	}
	if n > 0 {
		metrics.PurgedRecords.WithLabelValues(string(kind)).Add(float64(n))
		logger.Named("reaper").Info("expired records purged",
			logger.Kind(string(kind)),
			logger.Count(n),
		)
	}
	return kind, nil
}
