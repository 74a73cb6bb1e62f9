package email

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// HashAddress returns the hex-encoded SHA-256 digest of the address. The
// durable member store keeps only these digests, never raw addresses; the
// digest is used for equality checks alone.
func HashAddress(address string) string {
	sum := sha256.Sum256([]byte(address))
	return hex.EncodeToString(sum[:])
}

// NewChallengeCode draws 32 bytes from the CSPRNG and returns the hex-encoded
// SHA-256 digest of them: a 64-character token that cannot be guessed or
// replayed across requests.
func NewChallengeCode() (string, error) {
	var buf [32]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("read entropy: %w", err)
	}
	sum := sha256.Sum256(buf[:])
	return hex.EncodeToString(sum[:]), nil
}
