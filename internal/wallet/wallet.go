// Package wallet abstracts the primary wallet that owns the canvas identity.
//
// Routine operations are signed by the derived session key; the wallet is
// only asked to sign the two protocol messages and the funding transfer.
package wallet

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	// ErrWalletUnavailable is returned when no signer capability is present.
	ErrWalletUnavailable = errors.New("wallet unavailable: no signer capability")

	// ErrSignatureDeclined is returned when the user refuses a signature request.
	ErrSignatureDeclined = errors.New("signature request declined")
)

// Wallet is the primary signing identity.
type Wallet interface {
	// PublicKey returns the wallet's public identity.
	PublicKey() solana.PublicKey

	// SignMessage signs an arbitrary off-chain message and returns the
	// 64-byte ed25519 signature.
	SignMessage(msg []byte) ([]byte, error)

	// SignTransaction signs a transaction in place with the wallet key.
	SignTransaction(tx *solana.Transaction) error
}

// LocalWallet is a Wallet backed by a Solana CLI keypair file.
type LocalWallet struct {
	key solana.PrivateKey
}

// Load reads a Solana keygen JSON file and returns a LocalWallet.
func Load(path string) (*LocalWallet, error) {
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWalletUnavailable, err)
	}
	return &LocalWallet{key: key}, nil
}

// NewLocalWallet wraps an existing private key.
func NewLocalWallet(key solana.PrivateKey) *LocalWallet {
	return &LocalWallet{key: key}
}

// PublicKey returns the wallet's public identity.
func (w *LocalWallet) PublicKey() solana.PublicKey {
	return w.key.PublicKey()
}

// SignMessage signs an off-chain message.
func (w *LocalWallet) SignMessage(msg []byte) ([]byte, error) {
	sig, err := w.key.Sign(msg)
	if err != nil {
		return nil, fmt.Errorf("sign message: %w", err)
	}
	return sig[:], nil
}

// SignTransaction signs tx with the wallet key.
func (w *LocalWallet) SignTransaction(tx *solana.Transaction) error {
	_, err := tx.PartialSign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(w.key.PublicKey()) {
			return &w.key
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sign transaction: %w", err)
	}
	return nil
}
