package program

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Layout of a single-signature ed25519 verify instruction:
//
//	[0]      number of signatures (1)
//	[1]      padding
//	[2:16]   offsets header (seven u16 little-endian fields)
//	[16:48]  public key
//	[48:112] signature
//	[112:]   message
//
// The on-chain program reads the public-key offset from bytes 6..8 of the
// instruction data, so the header position is part of the ABI.
const (
	ed25519HeaderStart = 2
	ed25519PubkeyOff   = 16
	ed25519SigOff      = ed25519PubkeyOff + 32
	ed25519MsgOff      = ed25519SigOff + 64

	// currentInstruction marks offsets as referring to this instruction.
	currentInstruction = uint16(0xFFFF)
)

// Ed25519VerifyInstruction builds a native ed25519 signature-verification
// instruction asserting that pub signed msg. It must be placed at index 0
// of any transaction whose program instruction consumes the verification.
func Ed25519VerifyInstruction(pub solana.PublicKey, msg, sig []byte) (solana.Instruction, error) {
	if len(sig) != 64 {
		return nil, fmt.Errorf("ed25519 signature must be 64 bytes, got %d", len(sig))
	}
	if len(msg) == 0 {
		return nil, fmt.Errorf("ed25519 message must not be empty")
	}

	data := make([]byte, ed25519MsgOff+len(msg))
	data[0] = 1 // one signature
	data[1] = 0 // padding

	header := data[ed25519HeaderStart:]
	binary.LittleEndian.PutUint16(header[0:], ed25519SigOff)
	binary.LittleEndian.PutUint16(header[2:], currentInstruction) // signature instruction index
	binary.LittleEndian.PutUint16(header[4:], ed25519PubkeyOff)
	binary.LittleEndian.PutUint16(header[6:], currentInstruction) // pubkey instruction index
	binary.LittleEndian.PutUint16(header[8:], ed25519MsgOff)
	binary.LittleEndian.PutUint16(header[10:], uint16(len(msg)))
	binary.LittleEndian.PutUint16(header[12:], currentInstruction) // message instruction index

	copy(data[ed25519PubkeyOff:], pub.Bytes())
	copy(data[ed25519SigOff:], sig)
	copy(data[ed25519MsgOff:], msg)

	// The verify program takes no accounts; everything is in the data.
	return solana.NewInstruction(Ed25519ProgramID, solana.AccountMetaSlice{}, data), nil
}
