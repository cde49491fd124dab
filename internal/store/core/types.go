package core

import "time"

// PrincipalType distingue usuarios humanos de cuentas de servicio.
type PrincipalType string

const (
	PrincipalUser    PrincipalType = "user"
	PrincipalService PrincipalType = "service"
)

// Built-in role names seeded at bootstrap. Never deleted by this code.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type Role struct {
	ID          string
	Name        string
	Description string
	Scopes      []string
	CreatedAt   time.Time
}

type Principal struct {
	ID        string
	Type      PrincipalType
	Roles     []Role
	CreatedAt time.Time
}

// HasRole reporta si el principal ya tiene asignado el rol `name`.
func (p *Principal) HasRole(name string) bool {
	for _, r := range p.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// Identity vincula el subject de un provider externo con un Principal.
// Única por (Provider, ExternalID); un principal puede tener varias.
type Identity struct {
	Provider    string
	ExternalID  string
	PrincipalID string
	CreatedAt   time.Time
}

// APIKey guarda sólo el SHA-256 del secreto; FirstOctets son los primeros
// 8 hex chars para que un admin pueda reconocer la key sin ver el secreto.
type APIKey struct {
	ID             string
	PrincipalID    string
	FirstOctets    string
	HashedSecret   string
	Note           string
	Scopes         []string
	ExpirationTime *time.Time // nil => nunca expira
	CreatedAt      time.Time
}

type Session struct {
	ID             string
	PrincipalID    string
	ExpirationTime *time.Time // nil => nunca expira
	CreatedAt      time.Time
}

// RecordKind identifica una tabla de registros expirables para el reaper.
type RecordKind string

const (
	KindAPIKey  RecordKind = "api_key"
	KindSession RecordKind = "session"
)

func (k RecordKind) Valid() bool {
	switch k {
	case KindAPIKey, KindSession:
		return true
	}
	return false
}
