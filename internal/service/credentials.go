package service

import "crypto/subtle"

// CredentialVerifier decides whether a presented password matches the
// stored one.
type CredentialVerifier interface {
	Verify(stored, presented string) bool
}

// PlaintextVerifier compares passwords as stored, in constant time.
type PlaintextVerifier struct{}

func (PlaintextVerifier) Verify(stored, presented string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}
