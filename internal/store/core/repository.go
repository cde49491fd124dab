package core

import (
	"context"
	"time"
)

// RevisionSource es la vista read-only que necesita el oráculo de schema.
type RevisionSource interface {
	// RevisionHeads devuelve todas las revisiones marcadas como head.
	// Cero heads => store sin inicializar. Más de uno => corrupción.
	RevisionHeads(ctx context.Context) ([]string, error)
}

// Store es el contrato que implementan los adapters (pg, memory).
// Cada escritura es una transacción propia: si el método devuelve error,
// nada quedó visible.
type Store interface {
	RevisionSource

	Ping(ctx context.Context) error
	Close()

	// Schema
	// CreateSchema aplica el DDL completo (idéntico al de las migraciones).
	CreateSchema(ctx context.Context) error
	// StampRevision reescribe el marker (una sola fila) a `revision`.
	StampRevision(ctx context.Context, revision string) error

	// Role registry
	// SeedRoles inserta roles en una sola transacción.
	SeedRoles(ctx context.Context, roles []Role) error
	// FindRole devuelve ErrNotFound si el nombre no existe.
	FindRole(ctx context.Context, name string) (*Role, error)

	// Principals e identities
	// CreatePrincipal inserta el principal y sus bindings de rol en una
	// transacción, y devuelve la entidad con el ID generado por el store.
	// Rol inexistente => *MisconfiguredRegistryError.
	CreatePrincipal(ctx context.Context, ptype PrincipalType, roleNames ...string) (*Principal, error)
	GetPrincipal(ctx context.Context, id string) (*Principal, error)
	// DeletePrincipal borra en cascada identities, bindings, api keys y sessions.
	DeletePrincipal(ctx context.Context, id string) error
	// GrantRole es idempotente: el binding duplicado no es error.
	// Rol inexistente => *MisconfiguredRegistryError.
	GrantRole(ctx context.Context, principalID, roleName string) error
	// CreateIdentity falla con ErrConflict si (provider, external_id) ya existe.
	CreateIdentity(ctx context.Context, ident *Identity) error
	FindIdentity(ctx context.Context, provider, externalID string) (*Identity, error)

	// Registros expirables
	CreateAPIKey(ctx context.Context, k *APIKey) error
	FindAPIKeyByHash(ctx context.Context, hashedSecret string) (*APIKey, error)
	CreateSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	DeleteSession(ctx context.Context, id string) error
	// DeleteExpired borra los registros de `kind` con expiration_time < cutoff
	// (NULL nunca matchea) y devuelve cuántos borró. Sin matches => no escribe.
	DeleteExpired(ctx context.Context, kind RecordKind, cutoff time.Time) (int, error)
}
