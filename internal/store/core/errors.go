package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	ErrInvalid  = errors.New("invalid")
)

// Los errores de estado de schema llevan datos (heads, revisiones) para que
// el caller pueda branchear con errors.As en vez de parsear strings.

// UnrecognizedDatabaseError: el marker del store no es interpretable por este
// software. Cubre dos casos que el diseño trata igual: más de un head (store
// corrupto o tocado por otro proceso) y un head único fuera del set reconocido
// (probablemente de una versión más nueva). Nunca se auto-resuelve.
type UnrecognizedDatabaseError struct {
	Heads []string
}

func (e *UnrecognizedDatabaseError) Error() string {
	if len(e.Heads) > 1 {
		return fmt.Sprintf("database has multiple revision heads [%s]: populated by another application or corrupted", strings.Join(e.Heads, ", "))
	}
	if len(e.Heads) == 1 {
		return fmt.Sprintf("database has unrecognized revision %s: it may have been created by a newer release", e.Heads[0])
	}
	return "database revision state is unrecognized"
}

// UninitializedDatabaseError: el store no tiene marker. Recuperable corriendo
// Initialize.
type UninitializedDatabaseError struct{}

func (e *UninitializedDatabaseError) Error() string {
	return "database has no revision stamp: it may be empty and can be initialized"
}

// UpgradeNeededError: head reconocido pero distinto del requerido. Recuperable
// sólo corriendo el migration runner externo.
type UpgradeNeededError struct {
	Current  string
	Required string
}

func (e *UpgradeNeededError) Error() string {
	return fmt.Sprintf("database has revision %s and needs to be upgraded to revision %s", e.Current, e.Required)
}

// MisconfiguredRegistryError: falta un rol built-in. Fatal; indica que el
// bootstrap nunca corrió o que alguien tocó la tabla de roles.
type MisconfiguredRegistryError struct {
	Role string
}

func (e *MisconfiguredRegistryError) Error() string {
	return fmt.Sprintf("built-in role %q is missing from the role registry: store was never bootstrapped or has been tampered with", e.Role)
}
