// Package session manages the derived session credential: its derivation
// and authorization protocol, and its persistence across reloads.
package session

import (
	"github.com/gagliardetto/solana-go"
)

// Credential is an authorized session keypair. It is held exclusively by
// the current client context; only the signatures it was derived and
// authorized with are ever persisted, never the key material itself.
type Credential struct {
	Key    solana.PrivateKey
	Active bool

	CreatedAt int64 // unix seconds
	ExpiresAt int64 // unix seconds; 0 = never

	// DerivationSignature is the wallet signature the keypair was derived
	// from. Re-deriving from it reproduces Key exactly.
	DerivationSignature []byte

	// AuthSignature is the wallet signature binding the session key to the
	// wallet, as verified on-chain. Nil when authorization was skipped
	// because the session was already set up.
	AuthSignature []byte
}

// PublicKey returns the session's public key.
func (c *Credential) PublicKey() solana.PublicKey {
	return c.Key.PublicKey()
}

// Expired reports whether the credential has passed its expiry.
func (c *Credential) Expired(now int64) bool {
	return c.ExpiresAt != 0 && now >= c.ExpiresAt
}
