package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dropDatabas3/gatehouse/internal/store/core"
)

func timePtr(t time.Time) *time.Time { return &t }

func seedAPIKey(t *testing.T, s core.Store, principalID, hash string, exp *time.Time) {
	t.Helper()
	k := &core.APIKey{
		PrincipalID:    principalID,
		FirstOctets:    hash[:8],
		HashedSecret:   hash,
		ExpirationTime: exp,
	}
	if err := s.CreateAPIKey(context.Background(), k); err != nil {
		t.Fatalf("CreateAPIKey failed: %v", err)
	}
}

func TestPurgeExpiredAPIKeys(t *testing.T) {
	s := bootstrappedStore(t)
	ctx := context.Background()
	p, err := core.CreateUser(ctx, s, "local", "alice")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	now := time.Now().UTC()
	seedAPIKey(t, s, p.ID, "aaaaaaaa-expired", timePtr(now.Add(-time.Second)))
	seedAPIKey(t, s, p.ID, "bbbbbbbb-forever", nil)
	seedAPIKey(t, s, p.ID, "cccccccc-future", timePtr(now.Add(time.Hour)))

	kind, err := core.PurgeExpired(ctx, s, core.KindAPIKey)
	if err != nil {
		t.Fatalf("PurgeExpired failed: %v", err)
	}
	// Devuelve el kind para encadenar la query siguiente.
	if kind != core.KindAPIKey {
		t.Fatalf("expected returned kind %s, got %s", core.KindAPIKey, kind)
	}

	if _, err := s.FindAPIKeyByHash(ctx, "aaaaaaaa-expired"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expired key should be gone, got %v", err)
	}
	if _, err := s.FindAPIKeyByHash(ctx, "bbbbbbbb-forever"); err != nil {
		t.Fatalf("null-expiration key must survive: %v", err)
	}
	if _, err := s.FindAPIKeyByHash(ctx, "cccccccc-future"); err != nil {
		t.Fatalf("future key must survive: %v", err)
	}
}

func TestPurgeExpiredNothingToDo(t *testing.T) {
	s := bootstrappedStore(t)
	ctx := context.Background()

	// Tabla vacía: cero borrados, sin error.
	if _, err := core.PurgeExpired(ctx, s, core.KindSession); err != nil {
		t.Fatalf("PurgeExpired on empty table failed: %v", err)
	}

	p, err := core.CreateUser(ctx, s, "local", "alice")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	sess := &core.Session{PrincipalID: p.ID, ExpirationTime: nil}
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if _, err := core.PurgeExpired(ctx, s, core.KindSession); err != nil {
		t.Fatalf("PurgeExpired failed: %v", err)
	}
	if _, err := s.GetSession(ctx, sess.ID); err != nil {
		t.Fatalf("never-expiring session must survive: %v", err)
	}
}

func TestPurgeExpiredSessions(t *testing.T) {
	s := bootstrappedStore(t)
	ctx := context.Background()
	p, err := core.CreateUser(ctx, s, "local", "alice")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	dead := &core.Session{PrincipalID: p.ID, ExpirationTime: timePtr(time.Now().UTC().Add(-time.Minute))}
	live := &core.Session{PrincipalID: p.ID, ExpirationTime: timePtr(time.Now().UTC().Add(time.Hour))}
	for _, sess := range []*core.Session{dead, live} {
		if err := s.CreateSession(ctx, sess); err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}
	}

	if _, err := core.PurgeExpired(ctx, s, core.KindSession); err != nil {
		t.Fatalf("PurgeExpired failed: %v", err)
	}
	if _, err := s.GetSession(ctx, dead.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expired session should be gone, got %v", err)
	}
	if _, err := s.GetSession(ctx, live.ID); err != nil {
		t.Fatalf("live session must survive: %v", err)
	}
}

func TestPurgeExpiredUnknownKind(t *testing.T) {
	s := bootstrappedStore(t)
	if _, err := core.PurgeExpired(context.Background(), s, core.RecordKind("bogus")); !errors.Is(err, core.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for unknown kind, got %v", err)
	}
}
