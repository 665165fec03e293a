package pjlink

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
)

// Digest computes the PJLink authentication digest: lowercase hex MD5 over
// salt followed by secret.
func Digest(salt, secret string) (string, error) {
	h := md5.New()
	if _, err := h.Write([]byte(salt)); err != nil {
		return "", fmt.Errorf("%w: %w", ErrHashComputationFailed, err)
	}
	if _, err := h.Write([]byte(secret)); err != nil {
		return "", fmt.Errorf("%w: %w", ErrHashComputationFailed, err)
	}

	digest := hex.EncodeToString(h.Sum(nil))
	if len(digest) != DigestLen {
		return "", fmt.Errorf("%w: digest length %d", ErrHashComputationFailed, len(digest))
	}
	return digest, nil
}

// Authenticator holds the configured secret and, once a challenge has been
// answered, the digest that prefixes every outgoing command line.
type Authenticator struct {
	secret string
	digest string
}

// NewAuthenticator returns an authenticator for secret. An empty secret means
// none is configured.
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: secret}
}

// HasSecret reports whether a secret is configured.
func (a *Authenticator) HasSecret() bool {
	return a.secret != ""
}

// Active reports whether outgoing commands carry the digest prefix.
func (a *Authenticator) Active() bool {
	return a.digest != ""
}

// Challenge answers a greeting salt. It fails with ErrAuthRequired when no
// secret is configured and never leaves authentication half-enabled.
func (a *Authenticator) Challenge(salt string) error {
	if !a.HasSecret() {
		return ErrAuthRequired
	}
	digest, err := Digest(salt, a.secret)
	if err != nil {
		return err
	}
	a.digest = digest
	return nil
}

// Seal returns the bytes to put on the wire for a command line.
func (a *Authenticator) Seal(wire string) []byte {
	if !a.Active() {
		return []byte(wire)
	}
	out := make([]byte, 0, len(a.digest)+len(wire))
	out = append(out, a.digest...)
	return append(out, wire...)
}
