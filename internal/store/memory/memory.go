// Package memory implementa core.Store en proceso, sin persistencia.
//
// Respalda los tests unitarios y el modo dev (driver "memory"). Los kinds
// expirables viven en caches go-cache (keyed stores thread-safe); el sweep de
// vencidos es explícito vía DeleteExpired, nunca TTL automático, para que el
// reaper controle el cutoff. La unicidad que en Postgres dan los constraints
// acá la dan las keys de los maps bajo un RWMutex.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/dropDatabas3/gatehouse/internal/store/core"
)

type identityKey struct {
	provider   string
	externalID string
}

type Store struct {
	mu         sync.RWMutex
	heads      []string
	roles      map[string]core.Role           // name -> role
	principals map[string]core.Principal      // id -> principal (sin roles)
	bindings   map[string]map[string]struct{} // principal id -> set de role names
	identities map[identityKey]core.Identity

	apiKeys  *gocache.Cache // id -> core.APIKey
	sessions *gocache.Cache // id -> core.Session
}

var _ core.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		roles:      make(map[string]core.Role),
		principals: make(map[string]core.Principal),
		bindings:   make(map[string]map[string]struct{}),
		identities: make(map[identityKey]core.Identity),
		apiKeys:    gocache.New(gocache.NoExpiration, 0),
		sessions:   gocache.New(gocache.NoExpiration, 0),
	}
}

func (s *Store) Ping(ctx context.Context) error { return nil }
func (s *Store) Close()                         {}

// ---------- schema ----------

func (s *Store) RevisionHeads(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.heads))
	copy(out, s.heads)
	return out, nil
}

func (s *Store) StampRevision(ctx context.Context, revision string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.heads = []string{revision}
	return nil
}

// PrincipalCount devuelve cuántos principals existen. Hook de tests para
// verificar que las carreras de provisión no dejan filas de más.
func (s *Store) PrincipalCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.principals)
}

// SetRevisionHeads pisa el marker con heads arbitrarios. Hook para simular
// corrupción (múltiples heads) o revisiones ajenas en tests.
func (s *Store) SetRevisionHeads(heads ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.heads = append([]string(nil), heads...)
}

// CreateSchema es un no-op estructural: los contenedores existen desde New.
func (s *Store) CreateSchema(ctx context.Context) error { return nil }

// ---------- role registry ----------

func (s *Store) SeedRoles(ctx context.Context, roles []core.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Validar todo antes de tocar nada: la siembra es una transacción.
	for _, r := range roles {
		if _, exists := s.roles[r.Name]; exists {
			return core.ErrConflict
		}
	}
	now := time.Now().UTC()
	for _, r := range roles {
		r.ID = uuid.NewString()
		r.CreatedAt = now
		r.Scopes = append([]string(nil), r.Scopes...)
		s.roles[r.Name] = r
	}
	return nil
}

func (s *Store) FindRole(ctx context.Context, name string) (*core.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.roles[name]
	if !ok {
		return nil, core.ErrNotFound
	}
	out := r
	out.Scopes = append([]string(nil), r.Scopes...)
	return &out, nil
}

// ---------- principals ----------

func (s *Store) CreatePrincipal(ctx context.Context, ptype core.PrincipalType, roleNames ...string) (*core.Principal, error) {
	s.mu.Lock()
	for _, name := range roleNames {
		if _, ok := s.roles[name]; !ok {
			s.mu.Unlock()
			return nil, &core.MisconfiguredRegistryError{Role: name}
		}
	}
	p := core.Principal{
		ID:        uuid.NewString(),
		Type:      ptype,
		CreatedAt: time.Now().UTC(),
	}
	s.principals[p.ID] = p
	set := make(map[string]struct{}, len(roleNames))
	for _, name := range roleNames {
		set[name] = struct{}{}
	}
	s.bindings[p.ID] = set
	s.mu.Unlock()

	return s.GetPrincipal(ctx, p.ID)
}

func (s *Store) GetPrincipal(ctx context.Context, id string) (*core.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.principals[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	names := make([]string, 0, len(s.bindings[id]))
	for name := range s.bindings[id] {
		names = append(names, name)
	}
	sort.Strings(names)
	out := p
	for _, name := range names {
		r := s.roles[name]
		r.Scopes = append([]string(nil), r.Scopes...)
		out.Roles = append(out.Roles, r)
	}
	return &out, nil
}

func (s *Store) DeletePrincipal(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.principals[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.principals, id)
	delete(s.bindings, id)
	// Cascada: identities nunca quedan huérfanas.
	for k, ident := range s.identities {
		if ident.PrincipalID == id {
			delete(s.identities, k)
		}
	}
	for k, item := range s.apiKeys.Items() {
		if item.Object.(core.APIKey).PrincipalID == id {
			s.apiKeys.Delete(k)
		}
	}
	for k, item := range s.sessions.Items() {
		if item.Object.(core.Session).PrincipalID == id {
			s.sessions.Delete(k)
		}
	}
	return nil
}

func (s *Store) GrantRole(ctx context.Context, principalID, roleName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[roleName]; !ok {
		return &core.MisconfiguredRegistryError{Role: roleName}
	}
	if _, ok := s.principals[principalID]; !ok {
		return core.ErrNotFound
	}
	set := s.bindings[principalID]
	if set == nil {
		set = make(map[string]struct{})
		s.bindings[principalID] = set
	}
	// Membership es un set: el grant repetido es no-op, no error.
	set[roleName] = struct{}{}
	return nil
}

func (s *Store) CreateIdentity(ctx context.Context, ident *core.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := identityKey{ident.Provider, ident.ExternalID}
	if _, exists := s.identities[key]; exists {
		return core.ErrConflict
	}
	if _, ok := s.principals[ident.PrincipalID]; !ok {
		return core.ErrNotFound
	}
	ident.CreatedAt = time.Now().UTC()
	s.identities[key] = *ident
	return nil
}

func (s *Store) FindIdentity(ctx context.Context, provider, externalID string) (*core.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ident, ok := s.identities[identityKey{provider, externalID}]
	if !ok {
		return nil, core.ErrNotFound
	}
	out := ident
	return &out, nil
}

// ---------- expirables ----------

func (s *Store) expirableCache(kind core.RecordKind) (*gocache.Cache, error) {
	switch kind {
	case core.KindAPIKey:
		return s.apiKeys, nil
	case core.KindSession:
		return s.sessions, nil
	}
	return nil, core.ErrInvalid
}

func (s *Store) CreateAPIKey(ctx context.Context, k *core.APIKey) error {
	for _, item := range s.apiKeys.Items() {
		if item.Object.(core.APIKey).HashedSecret == k.HashedSecret {
			return core.ErrConflict
		}
	}
	k.ID = uuid.NewString()
	k.CreatedAt = time.Now().UTC()
	s.apiKeys.Set(k.ID, *k, gocache.NoExpiration)
	return nil
}

func (s *Store) FindAPIKeyByHash(ctx context.Context, hashedSecret string) (*core.APIKey, error) {
	for _, item := range s.apiKeys.Items() {
		k := item.Object.(core.APIKey)
		if k.HashedSecret == hashedSecret {
			return &k, nil
		}
	}
	return nil, core.ErrNotFound
}

func (s *Store) CreateSession(ctx context.Context, sess *core.Session) error {
	sess.ID = uuid.NewString()
	sess.CreatedAt = time.Now().UTC()
	s.sessions.Set(sess.ID, *sess, gocache.NoExpiration)
	return nil
}

func (s *Store) GetSession(ctx context.Context, id string) (*core.Session, error) {
	v, ok := s.sessions.Get(id)
	if !ok {
		return nil, core.ErrNotFound
	}
	sess := v.(core.Session)
	return &sess, nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	s.sessions.Delete(id)
	return nil
}

// DeleteExpired barre el cache del kind con el cutoff que pasó el caller
// (evaluado una sola vez por llamada). Expiración nil nunca matchea.
func (s *Store) DeleteExpired(ctx context.Context, kind core.RecordKind, cutoff time.Time) (int, error) {
	c, err := s.expirableCache(kind)
	if err != nil {
		return 0, err
	}
	n := 0
	for key, item := range c.Items() {
		var exp *time.Time
		switch rec := item.Object.(type) {
		case core.APIKey:
			exp = rec.ExpirationTime
		case core.Session:
			exp = rec.ExpirationTime
		}
		if exp != nil && exp.Before(cutoff) {
			c.Delete(key)
			n++
		}
	}
	return n, nil
}
