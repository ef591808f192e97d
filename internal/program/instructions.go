package program

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// InitializeUser builds the initialize_user instruction. It creates the
// session account PDA and records the (main wallet, session authority)
// binding. The transaction carrying it must have the matching ed25519
// verify instruction at index 0; see Ed25519VerifyInstruction.
func InitializeUser(sessionAuthority, mainWallet solana.PublicKey, authSignature []byte) (solana.Instruction, error) {
	if len(authSignature) != 64 {
		return nil, fmt.Errorf("auth signature must be 64 bytes, got %d", len(authSignature))
	}
	user, err := SessionPDA(sessionAuthority)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 0, 8+32+64)
	data = append(data, instructionDiscriminator("initialize_user")...)
	data = append(data, mainWallet.Bytes()...)
	data = append(data, authSignature...)

	accounts := solana.AccountMetaSlice{
		solana.Meta(user).WRITE(),
		solana.Meta(sessionAuthority).WRITE().SIGNER(),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(solana.SysVarInstructionsPubkey),
	}
	return solana.NewInstruction(ID, accounts, data), nil
}

// DelegateUser builds the delegate_user instruction, handing the session
// account's write authority to the delegation program. validator optionally
// pins a specific fast-layer validator.
func DelegateUser(sessionAuthority, mainWallet solana.PublicKey, validator *solana.PublicKey) (solana.Instruction, error) {
	user, err := SessionPDA(sessionAuthority)
	if err != nil {
		return nil, err
	}
	accounts, err := delegationAccounts(
		solana.AccountMetaSlice{
			solana.Meta(user).WRITE(),
			solana.Meta(sessionAuthority).WRITE().SIGNER(),
		},
		user, validator,
	)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 0, 8+32)
	data = append(data, instructionDiscriminator("delegate_user")...)
	data = append(data, mainWallet.Bytes()...)

	return solana.NewInstruction(ID, accounts, data), nil
}

// InitializeShard builds the initialize_shard instruction for grid
// coordinates (x, y), paid for and signed by the session authority.
func InitializeShard(sessionAuthority solana.PublicKey, x, y uint16) (solana.Instruction, error) {
	shard, err := ShardPDA(x, y)
	if err != nil {
		return nil, err
	}
	session, err := SessionPDA(sessionAuthority)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 0, 8+2+2)
	data = append(data, instructionDiscriminator("initialize_shard")...)
	data = append(data, le16(x)...)
	data = append(data, le16(y)...)

	accounts := solana.AccountMetaSlice{
		solana.Meta(shard).WRITE(),
		solana.Meta(session),
		solana.Meta(sessionAuthority).WRITE().SIGNER(),
		solana.Meta(solana.SystemProgramID),
	}
	return solana.NewInstruction(ID, accounts, data), nil
}

// DelegateShard builds the delegate_shard instruction, migrating the shard
// account to the fast layer.
func DelegateShard(sessionAuthority solana.PublicKey, x, y uint16, validator *solana.PublicKey) (solana.Instruction, error) {
	shard, err := ShardPDA(x, y)
	if err != nil {
		return nil, err
	}
	accounts, err := delegationAccounts(
		solana.AccountMetaSlice{
			solana.Meta(sessionAuthority).WRITE().SIGNER(),
		},
		shard, validator,
	)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 0, 8+2+2)
	data = append(data, instructionDiscriminator("delegate_shard")...)
	data = append(data, le16(x)...)
	data = append(data, le16(y)...)

	return solana.NewInstruction(ID, accounts, data), nil
}

// PlacePixel builds the place_pixel instruction for global pixel (px, py).
// Shard coordinates are part of the instruction so the program can validate
// the shard account seeds.
func PlacePixel(sessionAuthority solana.PublicKey, shardX, shardY uint16, px, py uint32, color uint8) (solana.Instruction, error) {
	data := make([]byte, 0, 8+2+2+4+4+1)
	data = append(data, instructionDiscriminator("place_pixel")...)
	data = append(data, le16(shardX)...)
	data = append(data, le16(shardY)...)
	data = append(data, le32(px)...)
	data = append(data, le32(py)...)
	data = append(data, color)

	return pixelAccounts(sessionAuthority, shardX, shardY, data)
}

// ErasePixel builds the erase_pixel instruction, resetting global pixel
// (px, py) to transparent.
func ErasePixel(sessionAuthority solana.PublicKey, shardX, shardY uint16, px, py uint32) (solana.Instruction, error) {
	data := make([]byte, 0, 8+2+2+4+4)
	data = append(data, instructionDiscriminator("erase_pixel")...)
	data = append(data, le16(shardX)...)
	data = append(data, le16(shardY)...)
	data = append(data, le32(px)...)
	data = append(data, le32(py)...)

	return pixelAccounts(sessionAuthority, shardX, shardY, data)
}

// CommitShard builds the commit_shard instruction, scheduling the shard's
// fast-layer state to be committed back to the base ledger.
func CommitShard(payer solana.PublicKey, x, y uint16) (solana.Instruction, error) {
	shard, err := ShardPDA(x, y)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 0, 8+2+2)
	data = append(data, instructionDiscriminator("commit_shard")...)
	data = append(data, le16(x)...)
	data = append(data, le16(y)...)

	accounts := solana.AccountMetaSlice{
		solana.Meta(payer).WRITE().SIGNER(),
		solana.Meta(shard).WRITE(),
		solana.Meta(MagicContextID).WRITE(),
		solana.Meta(MagicProgramID),
	}
	return solana.NewInstruction(ID, accounts, data), nil
}

// pixelAccounts assembles the shared account list for place_pixel and
// erase_pixel.
func pixelAccounts(sessionAuthority solana.PublicKey, shardX, shardY uint16, data []byte) (solana.Instruction, error) {
	shard, err := ShardPDA(shardX, shardY)
	if err != nil {
		return nil, err
	}
	session, err := SessionPDA(sessionAuthority)
	if err != nil {
		return nil, err
	}
	accounts := solana.AccountMetaSlice{
		solana.Meta(shard).WRITE(),
		solana.Meta(session).WRITE(),
		solana.Meta(sessionAuthority).WRITE().SIGNER(),
	}
	return solana.NewInstruction(ID, accounts, data), nil
}

// delegationAccounts appends the accounts the delegation handoff expects
// after the instruction's own accounts: buffer, delegation record,
// delegation metadata, the delegated pda itself, the owner program, the
// delegation program, and the system program. A validator hint, if any,
// goes last as a remaining account.
func delegationAccounts(own solana.AccountMetaSlice, delegated solana.PublicKey, validator *solana.PublicKey) (solana.AccountMetaSlice, error) {
	buffer, err := DelegationBufferPDA(delegated)
	if err != nil {
		return nil, err
	}
	record, err := DelegationRecordPDA(delegated)
	if err != nil {
		return nil, err
	}
	metadata, err := DelegationMetadataPDA(delegated)
	if err != nil {
		return nil, err
	}

	accounts := append(own,
		solana.Meta(buffer).WRITE(),
		solana.Meta(record).WRITE(),
		solana.Meta(metadata).WRITE(),
		solana.Meta(delegated).WRITE(),
		solana.Meta(ID),
		solana.Meta(DelegationProgramID),
		solana.Meta(solana.SystemProgramID),
	)
	if validator != nil {
		accounts = append(accounts, solana.Meta(*validator))
	}
	return accounts, nil
}
