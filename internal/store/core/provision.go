package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/gatehouse/internal/metrics"
	"github.com/dropDatabas3/gatehouse/internal/observability/logger"
)

// CreateUser da de alta un principal tipo user para una identidad externa.
//
// Dos fases a propósito: el ID del principal lo genera el store, así que la
// fila de identity (FK sobre ese ID) recién puede insertarse cuando la primera
// transacción ya commiteó y el ID vino de vuelta materializado.
func CreateUser(ctx context.Context, s Store, provider, externalID string) (*Principal, error) {
	if provider == "" || externalID == "" {
		return nil, fmt.Errorf("%w: provider and external id are required", ErrInvalid)
	}

	p, err := s.CreatePrincipal(ctx, PrincipalUser, RoleUser)
	if err != nil {
		return nil, fmt.Errorf("create principal: %w", err)
	}

	ident := &Identity{
		Provider:    provider,
		ExternalID:  externalID,
		PrincipalID: p.ID,
	}
	if err := s.CreateIdentity(ctx, ident); err != nil {
		if errors.Is(err, ErrConflict) {
			// Perdimos la carrera: otro caller ya vinculó esta identidad.
			// Borrar el principal recién creado para no dejar huérfanos.
			_ = s.DeletePrincipal(ctx, p.ID)
		}
		return nil, fmt.Errorf("create identity %s/%s: %w", provider, externalID, err)
	}

	metrics.PrincipalsCreated.Inc()
	logger.Named("provision").Info("user created",
		logger.PrincipalID(p.ID),
		logger.Provider(provider),
	)
	return p, nil
}

// MakeAdminByIdentity eleva una identidad a admin de forma idempotente.
//
// Si la identidad no existe todavía se auto-provisiona vía CreateUser, así
// "dale admin a esta identidad" funciona aunque nunca haya logueado. El grant
// confía en el unique constraint de (principal_id, role_id): un insert
// duplicado se trata como éxito, no como error, lo que cierra la ventana de
// carrera entre llamadas concurrentes sin locking en proceso.
func MakeAdminByIdentity(ctx context.Context, s Store, provider, externalID string) (*Principal, error) {
	var principalID string

	ident, err := s.FindIdentity(ctx, provider, externalID)
	switch {
	case errors.Is(err, ErrNotFound):
		p, cerr := CreateUser(ctx, s, provider, externalID)
		if cerr != nil {
			// Otro caller pudo habernos ganado la creación de la identity.
			if errors.Is(cerr, ErrConflict) {
				ident, err = s.FindIdentity(ctx, provider, externalID)
				if err != nil {
					return nil, err
				}
				principalID = ident.PrincipalID
				break
			}
			return nil, cerr
		}
		principalID = p.ID
	case err != nil:
		return nil, err
	default:
		principalID = ident.PrincipalID
	}

	if err := s.GrantRole(ctx, principalID, RoleAdmin); err != nil {
		return nil, err
	}

	metrics.AdminGrants.Inc()
	logger.Named("provision").Info("admin granted",
		logger.PrincipalID(principalID),
		logger.Provider(provider),
	)

	// Releer para devolver el set de roles post-grant.
	return s.GetPrincipal(ctx, principalID)
}
