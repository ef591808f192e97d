package session

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// DefaultSalt namespaces stored credentials per protocol version. Bumping
// it invalidates every previously derived session key.
const DefaultSalt = "magicplace-session-v1"

// DerivationMessage is the deterministic message the wallet signs to derive
// the session keypair. It embeds the wallet identity and the salt so the
// derived key is unique per wallet and per protocol version.
func DerivationMessage(wallet solana.PublicKey, salt string) []byte {
	return []byte(fmt.Sprintf("%s\nwallet: %s", salt, wallet))
}

// AuthorizationMessage is the message the wallet signs to authorize a
// session key. The on-chain verify instruction checks this exact byte
// sequence, so it must never change shape.
func AuthorizationMessage(sessionKey, wallet solana.PublicKey) []byte {
	return []byte(fmt.Sprintf("authorize session %s for wallet %s", sessionKey, wallet))
}
