package paint_test

import (
	"context"
	"crypto/sha256"
	"errors"
	"testing"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ankushKun/magicplace-go/internal/canvas"
	"github.com/ankushKun/magicplace-go/internal/cooldown"
	"github.com/ankushKun/magicplace-go/internal/gateway"
	"github.com/ankushKun/magicplace-go/internal/paint"
	"github.com/ankushKun/magicplace-go/internal/program"
	"github.com/ankushKun/magicplace-go/internal/submit"
)

// paintLedger serves accounts from a map and records sent transactions.
type paintLedger struct {
	accounts map[solana.PublicKey]*gateway.Account
	getErr   error
	sent     int
}

func (l *paintLedger) GetAccount(ctx context.Context, addr solana.PublicKey) (*gateway.Account, error) {
	if l.getErr != nil {
		return nil, l.getErr
	}
	return l.accounts[addr], nil
}

func (l *paintLedger) GetBalance(ctx context.Context, addr solana.PublicKey) (uint64, error) {
	return 0, nil
}

func (l *paintLedger) LatestBlockhash(ctx context.Context) (gateway.Blockhash, error) {
	return gateway.Blockhash{Hash: solana.Hash{7}, ExpiryHeight: 500}, nil
}

func (l *paintLedger) SendRawTransaction(ctx context.Context, tx []byte, skipPreflight bool) (solana.Signature, error) {
	l.sent++
	return solana.Signature{byte(l.sent)}, nil
}

func (l *paintLedger) ConfirmTransaction(ctx context.Context, sig solana.Signature, bh gateway.Blockhash) error {
	return nil
}

func encodeSession(t *testing.T, acct program.SessionAccount) []byte {
	t.Helper()
	payload, err := bin.MarshalBorsh(&acct)
	require.NoError(t, err)
	disc := sha256.Sum256([]byte("account:SessionAccount"))
	return append(append([]byte{}, disc[:8]...), payload...)
}

func encodeShard(t *testing.T, shard program.PixelShard) []byte {
	t.Helper()
	payload, err := bin.MarshalBorsh(&shard)
	require.NoError(t, err)
	disc := sha256.Sum256([]byte("account:PixelShard"))
	return append(append([]byte{}, disc[:8]...), payload...)
}

// testCanvasState primes a fast-layer ledger with an initialized shard for
// pixel (10, 10) and a session account for the given credential.
func testCanvasState(t *testing.T, sessionKey solana.PrivateKey, creator solana.PublicKey, session program.SessionAccount) *paintLedger {
	t.Helper()
	coord, err := canvas.ShardForPixel(10, 10)
	require.NoError(t, err)
	shardAddr, err := program.ShardPDA(coord.X, coord.Y)
	require.NoError(t, err)
	sessionAddr, err := program.SessionPDA(sessionKey.PublicKey())
	require.NoError(t, err)

	return &paintLedger{accounts: map[solana.PublicKey]*gateway.Account{
		shardAddr: {Data: encodeShard(t, program.PixelShard{
			ShardX:  coord.X,
			ShardY:  coord.Y,
			Pixels:  make([]byte, canvas.PixelsPerShard),
			Creator: creator,
			Bump:    255,
		})},
		sessionAddr: {Data: encodeSession(t, session)},
	}}
}

func newPainter(t *testing.T, base, fast *paintLedger, sessionKey solana.PrivateKey, wallet solana.PublicKey) *paint.Painter {
	t.Helper()
	logger := zaptest.NewLogger(t)
	orch := submit.New(fast, "ephemeral", submit.Legacy, logger)
	return paint.New(base, fast, orch, sessionKey, wallet, logger)
}

func TestPlaceHappyPath(t *testing.T) {
	sessionKey, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	wallet, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	creator, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	fast := testCanvasState(t, sessionKey, creator.PublicKey(), program.SessionAccount{
		MainAddress:        wallet.PublicKey(),
		Authority:          sessionKey.PublicKey(),
		CooldownCounter:    3,
		LastPlaceTimestamp: uint64(time.Now().Unix()),
	})
	p := newPainter(t, &paintLedger{}, fast, sessionKey, wallet.PublicKey())

	sig, err := p.Place(context.Background(), 10, 10, 42)
	require.NoError(t, err)
	assert.NotEqual(t, solana.Signature{}, sig)
	assert.Equal(t, 1, fast.sent)
}

func TestPlaceRejectsInvalidColor(t *testing.T) {
	sessionKey, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	fast := &paintLedger{}
	p := newPainter(t, &paintLedger{}, fast, sessionKey, sessionKey.PublicKey())

	_, err = p.Place(context.Background(), 10, 10, 0)
	assert.Error(t, err)
	assert.Equal(t, 0, fast.sent)
}

func TestPlaceDeniedByCooldown(t *testing.T) {
	sessionKey, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	wallet, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	creator, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	// Window exhausted seconds ago: the server would reject, so nothing is
	// submitted.
	fast := testCanvasState(t, sessionKey, creator.PublicKey(), program.SessionAccount{
		MainAddress:        wallet.PublicKey(),
		Authority:          sessionKey.PublicKey(),
		CooldownCounter:    cooldown.DefaultLimit,
		LastPlaceTimestamp: uint64(time.Now().Unix() - 5),
	})
	p := newPainter(t, &paintLedger{}, fast, sessionKey, wallet.PublicKey())

	_, err = p.Place(context.Background(), 10, 10, 42)
	var denied *paint.CooldownActiveError
	require.ErrorAs(t, err, &denied)
	assert.Greater(t, denied.RefreshIn, int64(0))
	assert.LessOrEqual(t, denied.RefreshIn, cooldown.DefaultPeriod)
	assert.Equal(t, 0, fast.sent)
}

func TestPlaceOwnerExemptFromCooldown(t *testing.T) {
	sessionKey, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	wallet, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	// The acting wallet created this shard, so the exhausted counter does
	// not apply.
	fast := testCanvasState(t, sessionKey, wallet.PublicKey(), program.SessionAccount{
		MainAddress:        wallet.PublicKey(),
		Authority:          sessionKey.PublicKey(),
		CooldownCounter:    cooldown.DefaultLimit,
		LastPlaceTimestamp: uint64(time.Now().Unix() - 5),
	})
	p := newPainter(t, &paintLedger{}, fast, sessionKey, wallet.PublicKey())

	_, err = p.Place(context.Background(), 10, 10, 42)
	require.NoError(t, err)
	assert.Equal(t, 1, fast.sent)
}

func TestPlaceUninitializedShard(t *testing.T) {
	sessionKey, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	fast := &paintLedger{accounts: map[solana.PublicKey]*gateway.Account{}}
	p := newPainter(t, &paintLedger{}, fast, sessionKey, sessionKey.PublicKey())

	_, err = p.Place(context.Background(), 10, 10, 42)
	assert.ErrorContains(t, err, "not initialized")
	assert.Equal(t, 0, fast.sent)
}

func TestPlaceFallsBackToBaseLedger(t *testing.T) {
	sessionKey, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	wallet, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	creator, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	// Fast-layer reads fail, but it still accepts transactions. Account
	// state comes from the base ledger instead.
	base := testCanvasState(t, sessionKey, creator.PublicKey(), program.SessionAccount{
		MainAddress: wallet.PublicKey(),
		Authority:   sessionKey.PublicKey(),
	})
	fast := &paintLedger{getErr: errors.New("rpc unavailable")}
	p := newPainter(t, base, fast, sessionKey, wallet.PublicKey())

	_, err = p.Place(context.Background(), 10, 10, 42)
	require.NoError(t, err)
	assert.Equal(t, 1, fast.sent)
}

func TestEraseSkipsCooldown(t *testing.T) {
	sessionKey, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	// Erase never consults the rate limit, so it needs no account state.
	fast := &paintLedger{}
	p := newPainter(t, &paintLedger{}, fast, sessionKey, sessionKey.PublicKey())

	_, err = p.Erase(context.Background(), 10, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, fast.sent)
}

func TestCommitShard(t *testing.T) {
	sessionKey, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	fast := &paintLedger{}
	p := newPainter(t, &paintLedger{}, fast, sessionKey, sessionKey.PublicKey())

	coord, err := canvas.NewShardCoord(0, 0)
	require.NoError(t, err)
	_, err = p.Commit(context.Background(), coord)
	require.NoError(t, err)
	assert.Equal(t, 1, fast.sent)
}
