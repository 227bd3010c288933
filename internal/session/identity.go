package session

import (
	"crypto/rand"
	"fmt"

	"github.com/google/uuid"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 8
)

// newSessionCode generates a random 8-character session code. Collision
// checking is the caller's job; codes are short by design so players can
// type them.
func newSessionCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating session code: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}

// newPlayerToken generates the opaque reconnect credential for a player.
// It carries no information about the player or session.
func newPlayerToken() string {
	return uuid.NewString()
}
