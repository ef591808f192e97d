package submit

import (
	"github.com/gagliardetto/solana-go"
)

// Version selects the wire transaction shape. The choice is made once at
// orchestrator construction instead of being type-checked per call.
type Version int

const (
	// Legacy is the pre-versioned transaction format.
	Legacy Version = iota
	// V0 is the versioned transaction format.
	V0
)

// scheme builds an unsigned transaction in one of the two wire shapes.
type scheme interface {
	build(instrs []solana.Instruction, payer solana.PublicKey, bh solana.Hash) (*solana.Transaction, error)
}

func schemeFor(v Version) scheme {
	if v == V0 {
		return v0Scheme{}
	}
	return legacyScheme{}
}

type legacyScheme struct{}

func (legacyScheme) build(instrs []solana.Instruction, payer solana.PublicKey, bh solana.Hash) (*solana.Transaction, error) {
	return solana.NewTransaction(instrs, bh, solana.TransactionPayer(payer))
}

type v0Scheme struct{}

func (v0Scheme) build(instrs []solana.Instruction, payer solana.PublicKey, bh solana.Hash) (*solana.Transaction, error) {
	tx, err := solana.NewTransaction(instrs, bh, solana.TransactionPayer(payer))
	if err != nil {
		return nil, err
	}
	tx.Message.SetVersion(solana.MessageVersionV0)
	return tx, nil
}
