package core

import (
	"context"
	"errors"

	"github.com/dropDatabas3/gatehouse/internal/metrics"
)

// RequiredRevision es la revisión de schema que exige este build.
const RequiredRevision = "481830dd6c11"

// RevisionSpec es el set inmutable de revisiones que este software entiende.
// Se inyecta explícitamente (no singleton) para que los tests puedan usar
// sets alternativos.
type RevisionSpec struct {
	Required   string
	Recognized []string
}

// DefaultRevisionSpec devuelve el spec del software corriendo.
func DefaultRevisionSpec() RevisionSpec {
	return RevisionSpec{
		Required:   RequiredRevision,
		Recognized: []string{RequiredRevision},
	}
}

func (s RevisionSpec) recognizes(rev string) bool {
	for _, r := range s.Recognized {
		if r == rev {
			return true
		}
	}
	return false
}

// CurrentRevision lee el head del store y lo clasifica contra spec.
// Devuelve "" (sin error) para un store sin inicializar. Transacción
// read-only: nunca muta estado.
func CurrentRevision(ctx context.Context, src RevisionSource, spec RevisionSpec) (string, error) {
	heads, err := src.RevisionHeads(ctx)
	if err != nil {
		return "", err
	}
	if len(heads) == 0 {
		return "", nil
	}
	// Múltiples heads nunca se auto-mergean: resolverlos en silencio podría
	// taparnos una pérdida de datos.
	if len(heads) != 1 {
		return "", &UnrecognizedDatabaseError{Heads: heads}
	}
	rev := heads[0]
	if !spec.recognizes(rev) {
		return "", &UnrecognizedDatabaseError{Heads: heads}
	}
	return rev, nil
}

// Check valida que el store esté exactamente en spec.Required.
// Safe para llamar concurrentemente y en cada startup.
func Check(ctx context.Context, src RevisionSource, spec RevisionSpec) error {
	rev, err := CurrentRevision(ctx, src, spec)
	if err != nil {
		var unrec *UnrecognizedDatabaseError
		if errors.As(err, &unrec) {
			metrics.SchemaChecks.WithLabelValues("unrecognized").Inc()
		} else {
			metrics.SchemaChecks.WithLabelValues("error").Inc()
		}
		return err
	}
	if rev == "" {
		metrics.SchemaChecks.WithLabelValues("uninitialized").Inc()
		return &UninitializedDatabaseError{}
	}
	if rev != spec.Required {
		metrics.SchemaChecks.WithLabelValues("upgrade_needed").Inc()
		return &UpgradeNeededError{Current: rev, Required: spec.Required}
	}
	metrics.SchemaChecks.WithLabelValues("ok").Inc()
	return nil
}
