package program_test

import (
	"crypto/sha256"
	"encoding/binary"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankushKun/magicplace-go/internal/program"
)

func testKey(seed byte) solana.PublicKey {
	var b [32]byte
	for i := range b {
		b[i] = seed
	}
	return solana.PublicKeyFromBytes(b[:])
}

func TestPDAsAreDeterministic(t *testing.T) {
	auth := testKey(7)

	a, err := program.SessionPDA(auth)
	require.NoError(t, err)
	b, err := program.SessionPDA(auth)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	s1, err := program.ShardPDA(3, 4)
	require.NoError(t, err)
	s2, err := program.ShardPDA(3, 4)
	require.NoError(t, err)
	assert.Equal(t, s1, s2)

	// Different coordinates yield different addresses.
	s3, err := program.ShardPDA(4, 3)
	require.NoError(t, err)
	assert.NotEqual(t, s1, s3)
}

func TestInitializeShardData(t *testing.T) {
	ix, err := program.InitializeShard(testKey(1), 0x0102, 0x0304)
	require.NoError(t, err)
	assert.Equal(t, program.ID, ix.ProgramID())

	data, err := ix.Data()
	require.NoError(t, err)

	disc := sha256.Sum256([]byte("global:initialize_shard"))
	assert.Equal(t, disc[:8], data[:8])
	// Coordinates are little-endian u16.
	assert.Equal(t, []byte{0x02, 0x01, 0x04, 0x03}, data[8:12])
}

func TestPlacePixelData(t *testing.T) {
	ix, err := program.PlacePixel(testKey(1), 1, 2, 95, 181, 42)
	require.NoError(t, err)

	data, err := ix.Data()
	require.NoError(t, err)

	disc := sha256.Sum256([]byte("global:place_pixel"))
	assert.Equal(t, disc[:8], data[:8])
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(data[8:10]))
	assert.Equal(t, uint16(2), binary.LittleEndian.Uint16(data[10:12]))
	assert.Equal(t, uint32(95), binary.LittleEndian.Uint32(data[12:16]))
	assert.Equal(t, uint32(181), binary.LittleEndian.Uint32(data[16:20]))
	assert.Equal(t, uint8(42), data[20])
}

func TestInitializeUserRejectsBadSignature(t *testing.T) {
	_, err := program.InitializeUser(testKey(1), testKey(2), make([]byte, 63))
	assert.Error(t, err)
}

func TestEd25519VerifyLayout(t *testing.T) {
	pub := testKey(9)
	msg := []byte("authorize this session")
	sig := make([]byte, 64)
	for i := range sig {
		sig[i] = byte(i)
	}

	ix, err := program.Ed25519VerifyInstruction(pub, msg, sig)
	require.NoError(t, err)
	assert.Equal(t, program.Ed25519ProgramID, ix.ProgramID())

	data, err := ix.Data()
	require.NoError(t, err)

	assert.Equal(t, uint8(1), data[0], "one signature")

	// The on-chain check reads the public key offset from bytes 6..8.
	pubkeyOff := binary.LittleEndian.Uint16(data[6:8])
	assert.Equal(t, pub.Bytes(), data[pubkeyOff:pubkeyOff+32])

	sigOff := binary.LittleEndian.Uint16(data[2:4])
	assert.Equal(t, sig, data[sigOff:sigOff+64])

	msgOff := binary.LittleEndian.Uint16(data[10:12])
	msgLen := binary.LittleEndian.Uint16(data[12:14])
	assert.Equal(t, len(msg), int(msgLen))
	assert.Equal(t, msg, data[msgOff:int(msgOff)+len(msg)])
}

func TestDecodeSessionAccountRoundTrip(t *testing.T) {
	acct := program.SessionAccount{
		MainAddress:        testKey(3),
		Authority:          testKey(4),
		CooldownCounter:    17,
		LastPlaceTimestamp: 1725000000,
		Bump:               254,
	}
	payload, err := bin.MarshalBorsh(&acct)
	require.NoError(t, err)

	disc := sha256.Sum256([]byte("account:SessionAccount"))
	data := append(append([]byte{}, disc[:8]...), payload...)

	got, err := program.DecodeSessionAccount(data)
	require.NoError(t, err)
	assert.Equal(t, &acct, got)
}

func TestDecodeSessionAccountRejectsWrongDiscriminator(t *testing.T) {
	_, err := program.DecodeSessionAccount(make([]byte, 80))
	assert.Error(t, err)
	_, err = program.DecodeSessionAccount([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestDecodePixelShard(t *testing.T) {
	shard := program.PixelShard{
		ShardX:  10,
		ShardY:  20,
		Pixels:  []byte{0, 1, 2, 3},
		Creator: testKey(6),
		Bump:    255,
	}
	payload, err := bin.MarshalBorsh(&shard)
	require.NoError(t, err)

	disc := sha256.Sum256([]byte("account:PixelShard"))
	data := append(append([]byte{}, disc[:8]...), payload...)

	got, err := program.DecodePixelShard(data)
	require.NoError(t, err)
	assert.Equal(t, &shard, got)
}
