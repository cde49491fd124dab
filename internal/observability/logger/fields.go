package logger

import (
	"time"

	"go.uber.org/zap"
)

// Campos estándar del dominio, para mantener nombres consistentes en los logs.

// PrincipalID crea un campo para el ID de un principal.
func PrincipalID(v string) zap.Field {
	return zap.String("principal_id", v)
}

// Provider crea un campo para el identity provider externo.
func Provider(v string) zap.Field {
	return zap.String("provider", v)
}

// RoleName crea un campo para el nombre de un rol.
func RoleName(v string) zap.Field {
	return zap.String("role", v)
}

// Revision crea un campo para una revisión de schema.
func Revision(v string) zap.Field {
	return zap.String("revision", v)
}

// Kind crea un campo para un record kind expirable.
func Kind(v string) zap.Field {
	return zap.String("kind", v)
}

// Count crea un campo para cantidades (filas borradas, etc.).
func Count(v int) zap.Field {
	return zap.Int("count", v)
}

// Duration crea un campo para duraciones de operación.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// Err crea un campo para errores.
func Err(err error) zap.Field {
	return zap.Error(err)
}
