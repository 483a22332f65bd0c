package registration

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// tokenBytes is the number of random bytes per verification token. 20 bytes
// (160 bits) hex-encode to a 40 character token; guessing one within its TTL
// is infeasible.
const tokenBytes = 20

// NewToken draws a verification token from the system's CSPRNG.
func NewToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
