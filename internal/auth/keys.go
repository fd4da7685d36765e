package auth

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Key purposes. Each token kind is signed with its own key so a session
// cookie can never be replayed as an OAuth state value (or vice versa).
const (
	purposeSession = "geniuspost/session"
	purposeState   = "geniuspost/oauth-state"
)

// deriveKey expands the configured secret into a 32-byte key bound to
// purpose using HKDF-SHA256.
func deriveKey(secret []byte, purpose string) ([]byte, error) {
	key := make([]byte, 32)
	r := hkdf.New(sha256.New, secret, nil, []byte(purpose))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("auth: deriving %s key: %w", purpose, err)
	}
	return key, nil
}
