package core_test

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/gatehouse/internal/store/core"
	"github.com/dropDatabas3/gatehouse/internal/store/memory"
)

func bootstrappedStore(t *testing.T) *memory.Store {
	t.Helper()
	s := memory.New()
	if err := core.Initialize(context.Background(), s, core.DefaultRevisionSpec()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	return s
}

func roleNames(p *core.Principal) []string {
	out := make([]string, 0, len(p.Roles))
	for _, r := range p.Roles {
		out = append(out, r.Name)
	}
	return out
}

func TestCreateUser(t *testing.T) {
	s := bootstrappedStore(t)
	ctx := context.Background()

	p, err := core.CreateUser(ctx, s, "local", "alice")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if p.ID == "" {
		t.Fatal("principal id should be populated by the store")
	}
	if p.Type != core.PrincipalUser {
		t.Fatalf("expected type user, got %s", p.Type)
	}
	if !p.HasRole(core.RoleUser) {
		t.Fatalf("new user should hold the user role, roles=%v", roleNames(p))
	}

	ident, err := s.FindIdentity(ctx, "local", "alice")
	if err != nil {
		t.Fatalf("FindIdentity failed: %v", err)
	}
	if ident.PrincipalID != p.ID {
		t.Fatalf("identity bound to %s, expected %s", ident.PrincipalID, p.ID)
	}
}

func TestCreateUserDuplicateIdentity(t *testing.T) {
	s := bootstrappedStore(t)
	ctx := context.Background()

	if _, err := core.CreateUser(ctx, s, "local", "alice"); err != nil {
		t.Fatalf("first CreateUser failed: %v", err)
	}
	before := s.PrincipalCount()

	_, err := core.CreateUser(ctx, s, "local", "alice")
	if !errors.Is(err, core.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	// El principal del intento perdedor no debe quedar huérfano.
	if got := s.PrincipalCount(); got != before {
		t.Fatalf("orphan principal left behind: %d -> %d", before, got)
	}
}

func TestMakeAdminIdempotent(t *testing.T) {
	s := bootstrappedStore(t)
	ctx := context.Background()

	p1, err := core.MakeAdminByIdentity(ctx, s, "local", "alice")
	if err != nil {
		t.Fatalf("first MakeAdminByIdentity failed: %v", err)
	}
	p2, err := core.MakeAdminByIdentity(ctx, s, "local", "alice")
	if err != nil {
		t.Fatalf("second MakeAdminByIdentity failed: %v", err)
	}

	if p1.ID != p2.ID {
		t.Fatalf("expected same principal, got %s and %s", p1.ID, p2.ID)
	}
	if s.PrincipalCount() != 1 {
		t.Fatalf("expected exactly 1 principal, got %d", s.PrincipalCount())
	}
	// Exactamente un binding user y uno admin, sin duplicados.
	got := roleNames(p2)
	if len(got) != 2 || !p2.HasRole(core.RoleUser) || !p2.HasRole(core.RoleAdmin) {
		t.Fatalf("expected exactly [admin user], got %v", got)
	}
}

func TestMakeAdminAfterCreateUserSamePrincipal(t *testing.T) {
	s := bootstrappedStore(t)
	ctx := context.Background()

	created, err := core.CreateUser(ctx, s, "local", "bob")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	elevated, err := core.MakeAdminByIdentity(ctx, s, "local", "bob")
	if err != nil {
		t.Fatalf("MakeAdminByIdentity failed: %v", err)
	}
	if created.ID != elevated.ID {
		t.Fatalf("expected same principal id, got %s and %s", created.ID, elevated.ID)
	}
}

func TestMakeAdminMissingAdminRole(t *testing.T) {
	// Store con bootstrap incompleto: existe user pero no admin.
	s := memory.New()
	ctx := context.Background()
	builtins := core.BuiltinRoles()
	if err := s.SeedRoles(ctx, builtins[:1]); err != nil {
		t.Fatalf("SeedRoles failed: %v", err)
	}

	_, err := core.MakeAdminByIdentity(ctx, s, "local", "alice")
	var misc *core.MisconfiguredRegistryError
	if !errors.As(err, &misc) {
		t.Fatalf("expected MisconfiguredRegistryError, got %v", err)
	}
	if misc.Role != core.RoleAdmin {
		t.Fatalf("expected missing role admin, got %q", misc.Role)
	}
}

func TestMakeAdminConcurrent(t *testing.T) {
	s := bootstrappedStore(t)
	ctx := context.Background()

	const workers = 8
	ids := make([]string, workers)
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		i := i
		g.Go(func() error {
			p, err := core.MakeAdminByIdentity(ctx, s, "local", "alice")
			if err != nil {
				return err
			}
			ids[i] = p.ID
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent MakeAdminByIdentity failed: %v", err)
	}

	for _, id := range ids[1:] {
		if id != ids[0] {
			t.Fatalf("calls resolved to different principals: %v", ids)
		}
	}
	if s.PrincipalCount() != 1 {
		t.Fatalf("expected exactly 1 principal after race, got %d", s.PrincipalCount())
	}
	p, err := s.GetPrincipal(ctx, ids[0])
	if err != nil {
		t.Fatalf("GetPrincipal failed: %v", err)
	}
	if len(p.Roles) != 2 {
		t.Fatalf("expected exactly 2 role bindings, got %v", roleNames(p))
	}
}

func TestCreateUserValidation(t *testing.T) {
	s := bootstrappedStore(t)
	if _, err := core.CreateUser(context.Background(), s, "", "alice"); !errors.Is(err, core.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for empty provider, got %v", err)
	}
}
