package session

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/ankushKun/magicplace-go/internal/keys"
)

// Store persists session credentials across client restarts, keyed by
// (owner identity, salt).
type Store interface {
	// Persist writes the credential's record, overwriting any prior record
	// under the same key.
	Persist(owner solana.PublicKey, salt string, cred *Credential) error

	// Restore reads and re-derives a credential. Returns (nil, nil) when
	// no usable record exists: absent, owned by a different wallet, or
	// expired (expired records are deleted as a side effect).
	Restore(owner solana.PublicKey, salt string) (*Credential, error)

	// Revoke deletes the record.
	Revoke(owner solana.PublicKey, salt string) error
}

// record is the stored shape of a credential. The private key is never
// stored; the derivation signature is enough to reproduce it, which keeps
// the record self-verifying.
type record struct {
	DerivationSignature string `json:"derivationSignature"`
	AuthSignature       string `json:"authSignature,omitempty"`
	CreatedAt           int64  `json:"createdAt"`
	ExpiresAt           int64  `json:"expiresAt,omitempty"`
	OwnerIdentity       string `json:"ownerIdentity"`
	SessionPublicKey    string `json:"sessionPublicKey"`
}

func storeKey(owner solana.PublicKey, salt string) string {
	return owner.String() + "/" + salt
}

func encodeRecord(owner solana.PublicKey, cred *Credential) ([]byte, error) {
	rec := record{
		DerivationSignature: base64.StdEncoding.EncodeToString(cred.DerivationSignature),
		CreatedAt:           cred.CreatedAt,
		ExpiresAt:           cred.ExpiresAt,
		OwnerIdentity:       owner.String(),
		SessionPublicKey:    cred.PublicKey().String(),
	}
	if cred.AuthSignature != nil {
		rec.AuthSignature = base64.StdEncoding.EncodeToString(cred.AuthSignature)
	}
	return json.Marshal(rec)
}

// decodeRecord validates a stored record against the caller's identity and
// the clock, then re-derives the keypair. Returns (nil, true) when the
// record is expired and should be deleted; (nil, false) when it is merely
// unusable.
func decodeRecord(data []byte, owner solana.PublicKey, now int64) (cred *Credential, expired bool, err error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, false, fmt.Errorf("decode session record: %w", err)
	}

	// Guard against stale cross-account data.
	if rec.OwnerIdentity != owner.String() {
		return nil, false, nil
	}
	if rec.ExpiresAt != 0 && now >= rec.ExpiresAt {
		return nil, true, nil
	}

	derivationSig, err := base64.StdEncoding.DecodeString(rec.DerivationSignature)
	if err != nil {
		return nil, false, fmt.Errorf("decode derivation signature: %w", err)
	}
	key, err := keys.Derive(derivationSig)
	if err != nil {
		return nil, false, fmt.Errorf("re-derive session key: %w", err)
	}
	if key.PublicKey().String() != rec.SessionPublicKey {
		return nil, false, fmt.Errorf("restored key does not match stored public key")
	}

	c := &Credential{
		Key:                 key,
		Active:              true,
		CreatedAt:           rec.CreatedAt,
		ExpiresAt:           rec.ExpiresAt,
		DerivationSignature: derivationSig,
	}
	if rec.AuthSignature != "" {
		authSig, err := base64.StdEncoding.DecodeString(rec.AuthSignature)
		if err != nil {
			return nil, false, fmt.Errorf("decode auth signature: %w", err)
		}
		c.AuthSignature = authSig
	}
	return c, false, nil
}

func nowUnix() int64 {
	return time.Now().Unix()
}
