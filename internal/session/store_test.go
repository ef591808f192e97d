package session_test

import (
	"bytes"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankushKun/magicplace-go/internal/keys"
	"github.com/ankushKun/magicplace-go/internal/session"
)

func newCredential(t *testing.T, seed byte) *session.Credential {
	t.Helper()
	sig := bytes.Repeat([]byte{seed}, keys.SignatureLength)
	key, err := keys.Derive(sig)
	require.NoError(t, err)
	return &session.Credential{
		Key:                 key,
		Active:              true,
		CreatedAt:           1_700_000_000,
		DerivationSignature: sig,
		AuthSignature:       bytes.Repeat([]byte{0xEE}, 64),
	}
}

func ownerKey(t *testing.T) solana.PublicKey {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return key.PublicKey()
}

func TestPersistRestoreRoundTrip(t *testing.T) {
	store := session.NewMemoryStore()
	owner := ownerKey(t)
	cred := newCredential(t, 0x11)

	require.NoError(t, store.Persist(owner, session.DefaultSalt, cred))

	got, err := store.Restore(owner, session.DefaultSalt)
	require.NoError(t, err)
	require.NotNil(t, got)

	// The keypair is re-derived from the stored signature, not read back.
	assert.Equal(t, cred.PublicKey(), got.PublicKey())
	assert.True(t, got.Active)
	assert.Equal(t, cred.DerivationSignature, got.DerivationSignature)
	assert.Equal(t, cred.AuthSignature, got.AuthSignature)
}

func TestRestoreAbsent(t *testing.T) {
	store := session.NewMemoryStore()
	got, err := store.Restore(ownerKey(t), session.DefaultSalt)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRestoreRejectsMismatchedOwner(t *testing.T) {
	store := session.NewMemoryStore()
	owner := ownerKey(t)
	other := ownerKey(t)

	require.NoError(t, store.Persist(owner, session.DefaultSalt, newCredential(t, 0x22)))

	got, err := store.Restore(other, session.DefaultSalt)
	require.NoError(t, err)
	assert.Nil(t, got, "a record persisted for another wallet must not restore")
}

func TestRestoreDeletesExpired(t *testing.T) {
	store := session.NewMemoryStore()
	owner := ownerKey(t)

	cred := newCredential(t, 0x33)
	cred.ExpiresAt = 1_700_000_100
	require.NoError(t, store.Persist(owner, session.DefaultSalt, cred))

	// Past expiry: restore fails and deletes the stale record.
	store.SetClock(func() int64 { return 1_700_000_200 })
	got, err := store.Restore(owner, session.DefaultSalt)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Even rewinding the clock cannot bring it back; it is gone.
	store.SetClock(func() int64 { return 1_700_000_000 })
	got, err = store.Restore(owner, session.DefaultSalt)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRevoke(t *testing.T) {
	store := session.NewMemoryStore()
	owner := ownerKey(t)

	require.NoError(t, store.Persist(owner, session.DefaultSalt, newCredential(t, 0x44)))
	require.NoError(t, store.Revoke(owner, session.DefaultSalt))

	got, err := store.Restore(owner, session.DefaultSalt)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSaltNamespacesRecords(t *testing.T) {
	store := session.NewMemoryStore()
	owner := ownerKey(t)

	require.NoError(t, store.Persist(owner, "v1", newCredential(t, 0x55)))

	got, err := store.Restore(owner, "v2")
	require.NoError(t, err)
	assert.Nil(t, got)
}
