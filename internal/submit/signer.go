package submit

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// KeypairSigner adapts a raw keypair (the session credential) to Signer.
type KeypairSigner struct {
	key solana.PrivateKey
}

// NewKeypairSigner wraps a private key.
func NewKeypairSigner(key solana.PrivateKey) KeypairSigner {
	return KeypairSigner{key: key}
}

// PublicKey returns the keypair's public key.
func (s KeypairSigner) PublicKey() solana.PublicKey {
	return s.key.PublicKey()
}

// SignTransaction signs tx with the keypair.
func (s KeypairSigner) SignTransaction(tx *solana.Transaction) error {
	_, err := tx.PartialSign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(s.key.PublicKey()) {
			return &s.key
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sign transaction: %w", err)
	}
	return nil
}
