package core

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// MintAPIKey genera un secreto nuevo y devuelve la fila lista para persistir
// con CreateAPIKey. El secreto plaintext se devuelve una sola vez: en el store
// queda sólo su SHA-256 (hex) más los primeros ocho hex chars para que un
// admin pueda reconocer la key en un listado sin ver el secreto.
func MintAPIKey(principalID string, scopes []string, note string, expiration *time.Time) (secret string, key *APIKey, err error) {
	if principalID == "" {
		return "", nil, fmt.Errorf("%w: principal id is required", ErrInvalid)
	}
	raw := make([]byte, 32)
	if _, err = rand.Read(raw); err != nil {
		return "", nil, err
	}
	secret = hex.EncodeToString(raw)
	h := sha256.Sum256([]byte(secret))

	key = &APIKey{
		PrincipalID:    principalID,
		FirstOctets:    secret[:8],
		HashedSecret:   hex.EncodeToString(h[:]),
		Note:           note,
		Scopes:         append([]string(nil), scopes...),
		ExpirationTime: expiration,
	}
	return secret, key, nil
}

// HashAPIKeySecret calcula el digest con el que se busca una key presentada
// por un caller (FindAPIKeyByHash).
func HashAPIKeySecret(secret string) string {
	h := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(h[:])
}
