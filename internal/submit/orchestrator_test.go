package submit_test

import (
	"context"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ankushKun/magicplace-go/internal/gateway"
	"github.com/ankushKun/magicplace-go/internal/program"
	"github.com/ankushKun/magicplace-go/internal/submit"
)

// fakeLedger implements gateway.Ledger in memory.
type fakeLedger struct {
	sent        [][]byte
	confirmErr  error
	sendErr     error
	confirmHang bool // block in ConfirmTransaction until the context ends
}

func (f *fakeLedger) GetAccount(ctx context.Context, addr solana.PublicKey) (*gateway.Account, error) {
	return nil, nil
}

func (f *fakeLedger) GetBalance(ctx context.Context, addr solana.PublicKey) (uint64, error) {
	return 0, nil
}

func (f *fakeLedger) LatestBlockhash(ctx context.Context) (gateway.Blockhash, error) {
	return gateway.Blockhash{Hash: solana.Hash{1, 2, 3}, ExpiryHeight: 1000}, nil
}

func (f *fakeLedger) SendRawTransaction(ctx context.Context, tx []byte, skipPreflight bool) (solana.Signature, error) {
	if f.sendErr != nil {
		return solana.Signature{}, f.sendErr
	}
	f.sent = append(f.sent, tx)
	return solana.Signature{9, 9, 9}, nil
}

func (f *fakeLedger) ConfirmTransaction(ctx context.Context, sig solana.Signature, bh gateway.Blockhash) error {
	if f.confirmHang {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.confirmErr
}

func transferIx(from, to solana.PrivateKey) solana.Instruction {
	return solana.NewInstruction(
		solana.SystemProgramID,
		solana.AccountMetaSlice{
			solana.Meta(from.PublicKey()).WRITE().SIGNER(),
			solana.Meta(to.PublicKey()).WRITE(),
		},
		[]byte{2, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0},
	)
}

func TestSubmitHappyPath(t *testing.T) {
	ledger := &fakeLedger{}
	orch := submit.New(ledger, "base", submit.Legacy, zaptest.NewLogger(t))

	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	other, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	sig, err := orch.Submit(context.Background(),
		[]solana.Instruction{transferIx(key, other)},
		submit.NewKeypairSigner(key),
		submit.Options{},
	)
	require.NoError(t, err)
	assert.NotEqual(t, solana.Signature{}, sig)
	assert.Len(t, ledger.sent, 1)
	assert.Equal(t, 0, orch.InFlight())
}

func TestSubmitRejectsEmpty(t *testing.T) {
	orch := submit.New(&fakeLedger{}, "base", submit.Legacy, zaptest.NewLogger(t))
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	_, err = orch.Submit(context.Background(), nil, submit.NewKeypairSigner(key), submit.Options{})
	assert.Error(t, err)
}

func TestSubmitEnforcesVerifyFirst(t *testing.T) {
	ledger := &fakeLedger{}
	orch := submit.New(ledger, "base", submit.Legacy, zaptest.NewLogger(t))

	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	other, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	verify, err := program.Ed25519VerifyInstruction(key.PublicKey(), []byte("msg"), make([]byte, 64))
	require.NoError(t, err)

	// Verify instruction anywhere but index 0 is rejected before any
	// network call.
	_, err = orch.Submit(context.Background(),
		[]solana.Instruction{transferIx(key, other), verify},
		submit.NewKeypairSigner(key),
		submit.Options{SkipPreflight: true},
	)
	assert.ErrorIs(t, err, submit.ErrVerifyNotFirst)
	assert.Empty(t, ledger.sent)
}

func TestSubmitConfirmTimeout(t *testing.T) {
	ledger := &fakeLedger{confirmHang: true}
	orch := submit.New(ledger, "base", submit.Legacy, zaptest.NewLogger(t))
	orch.SetConfirmTimeout(20 * time.Millisecond)

	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	other, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	start := time.Now()
	_, err = orch.Submit(context.Background(),
		[]solana.Instruction{transferIx(key, other)},
		submit.NewKeypairSigner(key),
		submit.Options{},
	)
	// The configured timeout bounds the confirmation wait; the transaction
	// itself was sent.
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Len(t, ledger.sent, 1)
}

func TestSubmitSurfacesRevert(t *testing.T) {
	ledger := &fakeLedger{
		confirmErr: &gateway.RevertError{Detail: "custom program error: 0x1"},
	}
	orch := submit.New(ledger, "base", submit.Legacy, zaptest.NewLogger(t))

	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	other, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	_, err = orch.Submit(context.Background(),
		[]solana.Instruction{transferIx(key, other)},
		submit.NewKeypairSigner(key),
		submit.Options{},
	)
	var revert *gateway.RevertError
	require.ErrorAs(t, err, &revert)
	assert.Contains(t, revert.Detail, "0x1")
	// The transaction was sent; submission success and execution success
	// are distinct outcomes.
	assert.Len(t, ledger.sent, 1)
}
