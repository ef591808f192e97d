// Package keys derives the session keypair from a wallet signature.
//
// The derivation is a pure function: the wallet signs a fixed message once,
// and the signature bytes are hashed into an ed25519 seed. Re-signing the
// same message with the same wallet reproduces the same keypair, so the
// private key never needs to be stored.
package keys

import (
	"crypto/ed25519"
	"errors"

	"github.com/gagliardetto/solana-go"
	"golang.org/x/crypto/blake2b"
)

// SignatureLength is the expected length of the wallet's ed25519 signature.
const SignatureLength = 64

// ErrInvalidSignatureLength is returned when the input is not a 64-byte signature.
var ErrInvalidSignatureLength = errors.New("invalid signature length: expected 64 bytes")

// Derive turns a wallet signature into a deterministic session keypair.
// Identical input bytes always yield an identical keypair.
func Derive(signature []byte) (solana.PrivateKey, error) {
	if len(signature) != SignatureLength {
		return nil, ErrInvalidSignatureLength
	}
	seed := blake2b.Sum256(signature)
	key := ed25519.NewKeyFromSeed(seed[:])
	return solana.PrivateKey(key), nil
}
