package core_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dropDatabas3/gatehouse/internal/store/core"
)

func TestMintAPIKeyRoundTrip(t *testing.T) {
	s := bootstrappedStore(t)
	ctx := context.Background()
	p, err := core.CreateUser(ctx, s, "local", "alice")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	secret, key, err := core.MintAPIKey(p.ID, []string{"read:data"}, "ci runner", nil)
	if err != nil {
		t.Fatalf("MintAPIKey failed: %v", err)
	}
	if secret[:8] != key.FirstOctets {
		t.Fatalf("first octets %q do not prefix the secret %q", key.FirstOctets, secret[:8])
	}
	if key.HashedSecret == secret {
		t.Fatal("secret must not be stored in plaintext")
	}
	if err := s.CreateAPIKey(ctx, key); err != nil {
		t.Fatalf("CreateAPIKey failed: %v", err)
	}

	// El lookup se hace por digest del secreto presentado.
	got, err := s.FindAPIKeyByHash(ctx, core.HashAPIKeySecret(secret))
	if err != nil {
		t.Fatalf("FindAPIKeyByHash failed: %v", err)
	}
	if got.PrincipalID != p.ID {
		t.Fatalf("key bound to %s, expected %s", got.PrincipalID, p.ID)
	}

	if _, err := s.FindAPIKeyByHash(ctx, core.HashAPIKeySecret("wrong")); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown secret, got %v", err)
	}
}

func TestMintAPIKeySecretsAreUnique(t *testing.T) {
	s1, _, err := core.MintAPIKey("p1", nil, "", nil)
	if err != nil {
		t.Fatalf("MintAPIKey failed: %v", err)
	}
	s2, _, err := core.MintAPIKey("p1", nil, "", nil)
	if err != nil {
		t.Fatalf("MintAPIKey failed: %v", err)
	}
	if s1 == s2 {
		t.Fatal("two minted secrets should never collide")
	}
}

func TestMintAPIKeyRequiresPrincipal(t *testing.T) {
	if _, _, err := core.MintAPIKey("", nil, "", nil); !errors.Is(err, core.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}
