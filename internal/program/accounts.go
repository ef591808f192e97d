package program

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// SessionAccount is the on-chain rate-limit state for one session
// credential. CooldownCounter is only meaningful relative to
// LastPlaceTimestamp and the fixed cooldown constants.
type SessionAccount struct {
	MainAddress        solana.PublicKey
	Authority          solana.PublicKey
	CooldownCounter    uint8
	LastPlaceTimestamp uint64
	Bump               uint8
}

// PixelShard is the on-chain state of one canvas shard. Pixels holds one
// byte per local pixel, 0 meaning transparent.
type PixelShard struct {
	ShardX  uint16
	ShardY  uint16
	Pixels  []byte
	Creator solana.PublicKey
	Bump    uint8
}

// DecodeSessionAccount deserializes a session account, checking the Anchor
// discriminator first.
func DecodeSessionAccount(data []byte) (*SessionAccount, error) {
	payload, err := stripDiscriminator(data, "SessionAccount")
	if err != nil {
		return nil, err
	}
	var acct SessionAccount
	if err := bin.NewBorshDecoder(payload).Decode(&acct); err != nil {
		return nil, fmt.Errorf("decode session account: %w", err)
	}
	return &acct, nil
}

// DecodePixelShard deserializes a shard account, checking the Anchor
// discriminator first.
func DecodePixelShard(data []byte) (*PixelShard, error) {
	payload, err := stripDiscriminator(data, "PixelShard")
	if err != nil {
		return nil, err
	}
	var shard PixelShard
	if err := bin.NewBorshDecoder(payload).Decode(&shard); err != nil {
		return nil, fmt.Errorf("decode pixel shard: %w", err)
	}
	return &shard, nil
}

func stripDiscriminator(data []byte, account string) ([]byte, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("%s: account data too short (%d bytes)", account, len(data))
	}
	want := accountDiscriminator(account)
	if !bytes.Equal(data[:8], want) {
		return nil, fmt.Errorf("%s: discriminator mismatch", account)
	}
	return data[8:], nil
}
