// Package identity provides the anonymization primitive that turns a raw
// client address into a non-reversible, pepper-dependent identifier.
package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// ErrEmptyPepper is returned when a Hasher is constructed without a secret.
var ErrEmptyPepper = errors.New("identity: pepper must not be empty")

// Hasher derives opaque visitor identifiers from raw network addresses.
//
// Derivation is two-stage: first a SHA-256 digest of the raw address alone,
// then an HMAC-SHA-256 over that digest keyed by the server pepper. The
// unkeyed stage normalizes any address format (IPv4, IPv6, textual) to a
// fixed-length, uniformly distributed input; only the keyed stage ties the
// result to the secret. Rotating the pepper therefore makes every previously
// stored identifier unlinkable, uniformly.
type Hasher struct {
	pepper []byte
}

// NewHasher returns a Hasher keyed by pepper. The pepper is copied, so the
// caller's slice can be discarded.
func NewHasher(pepper []byte) (*Hasher, error) {
	if len(pepper) == 0 {
		return nil, ErrEmptyPepper
	}
	p := make([]byte, len(pepper))
	copy(p, pepper)
	return &Hasher{pepper: p}, nil
}

// Anonymize returns the hex-encoded identifier for rawAddr. It is a pure
// function of (rawAddr, pepper): identical inputs yield identical output
// across calls and process restarts.
func (h *Hasher) Anonymize(rawAddr string) string {
	digest := sha256.Sum256([]byte(rawAddr))
	mac := hmac.New(sha256.New, h.pepper)
	mac.Write(digest[:])
	return hex.EncodeToString(mac.Sum(nil))
}
