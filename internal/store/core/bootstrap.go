package core

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/gatehouse/internal/metrics"
	"github.com/dropDatabas3/gatehouse/internal/observability/logger"
)

// BuiltinRoles devuelve los dos roles que siembra el bootstrap. Las listas de
// scopes son literales fijos; la capa de autorización les da significado.
func BuiltinRoles() []Role {
	return []Role{
		{
			Name:        RoleUser,
			Description: "Default Role for users.",
			Scopes:      []string{"read:metadata", "read:data", "apikeys"},
		},
		{
			Name:        RoleAdmin,
			Description: "Default Role for services.",
			Scopes:      []string{"read:metadata", "read:data", "admin:apikeys", "read:principals", "metrics"},
		},
	}
}

// Initialize crea el schema completo, siembra los roles built-in y estampa el
// marker en spec.Required. Sólo para stores vírgenes: el caller debe haber
// visto CurrentRevision == "" antes de llamar. Un fallo a mitad de camino deja
// el store en estado indeterminado y se reporta como fatal, no se reintenta:
// el operador debe dropear y recrear.
//
// El stamp es una escritura única, no un replay de la cadena de migraciones:
// CreateSchema aplica el mismo DDL que aplicaría el runner, así que el store
// bootstrapeado queda schema-equivalente a uno migrado paso a paso.
func Initialize(ctx context.Context, s Store, spec RevisionSpec) error {
	log := logger.Named("bootstrap")

	if err := s.CreateSchema(ctx); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if err := s.SeedRoles(ctx, BuiltinRoles()); err != nil {
		return fmt.Errorf("seed default roles: %w", err)
	}
	if err := s.StampRevision(ctx, spec.Required); err != nil {
		return fmt.Errorf("stamp revision %s: %w", spec.Required, err)
	}

	metrics.BootstrapRuns.Inc()
	log.Info("database initialized", logger.Revision(spec.Required))
	return nil
}
