// Package program is the client-side binding for the magicplace on-chain
// program: deterministic account addresses, instruction encoding, and
// account data decoding. No network access happens here.
package program

import (
	"crypto/sha256"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	// ID is the magicplace program id.
	ID = solana.MustPublicKeyFromBase58("4j29Do6VWdMhfLBdi4n3AeWdVXNEzJNG72sFVUe9cUSe")

	// DelegationProgramID is the ephemeral-rollups delegation program. An
	// account owned by it is currently delegated to the fast layer.
	DelegationProgramID = solana.MustPublicKeyFromBase58("DELeGGvXpWV2fqJUhqcF5ZSYMS4JTLjteaAMARRSaeSh")

	// Ed25519ProgramID is the native ed25519 signature-verification program.
	Ed25519ProgramID = solana.MustPublicKeyFromBase58("Ed25519SigVerify111111111111111111111111111")

	// MagicProgramID is the fast layer's magic program, consumed by commit_shard.
	MagicProgramID = solana.MustPublicKeyFromBase58("Magic11111111111111111111111111111111111111")

	// MagicContextID is the fast layer's commit context account.
	MagicContextID = solana.MustPublicKeyFromBase58("MagicContext1111111111111111111111111111111")
)

// PDA seed prefixes, fixed by the on-chain program.
var (
	seedSession            = []byte("session")
	seedShard              = []byte("shard")
	seedBuffer             = []byte("buffer")
	seedDelegationRecord   = []byte("delegation")
	seedDelegationMetadata = []byte("delegation-metadata")
)

// instructionDiscriminator returns the 8-byte Anchor discriminator for a
// global instruction name.
func instructionDiscriminator(name string) []byte {
	h := sha256.Sum256([]byte("global:" + name))
	return h[:8]
}

// accountDiscriminator returns the 8-byte Anchor discriminator for an
// account type name.
func accountDiscriminator(name string) []byte {
	h := sha256.Sum256([]byte("account:" + name))
	return h[:8]
}

// SessionPDA returns the session account address for a given session
// authority (the derived session key, not the main wallet).
func SessionPDA(authority solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{seedSession, authority.Bytes()}, ID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("session pda: %w", err)
	}
	return addr, nil
}

// ShardPDA returns the shard account address for grid coordinates (x, y).
func ShardPDA(x, y uint16) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{seedShard, le16(x), le16(y)}, ID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("shard pda: %w", err)
	}
	return addr, nil
}

// DelegationRecordPDA returns the delegation program's record account for a
// delegated address. Its existence is how a half-finished delegation is
// detected.
func DelegationRecordPDA(delegated solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{seedDelegationRecord, delegated.Bytes()}, DelegationProgramID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("delegation record pda: %w", err)
	}
	return addr, nil
}

// DelegationMetadataPDA returns the delegation program's metadata account
// for a delegated address.
func DelegationMetadataPDA(delegated solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{seedDelegationMetadata, delegated.Bytes()}, DelegationProgramID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("delegation metadata pda: %w", err)
	}
	return addr, nil
}

// DelegationBufferPDA returns the owner-program buffer account used by the
// delegation handoff for a delegated address.
func DelegationBufferPDA(delegated solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{seedBuffer, delegated.Bytes()}, ID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("delegation buffer pda: %w", err)
	}
	return addr, nil
}

func le16(v uint16) []byte {
	return []byte{byte(v), byte(v >> 8)}
}

func le32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}
