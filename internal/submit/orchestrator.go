// Package submit builds, signs, submits, and confirms transactions against
// one ledger instance.
package submit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/ankushKun/magicplace-go/internal/gateway"
	"github.com/ankushKun/magicplace-go/internal/metrics"
	"github.com/ankushKun/magicplace-go/internal/program"
)

// Signer is the signing capability attached to a submission: either the
// primary wallet or the derived session key.
type Signer interface {
	PublicKey() solana.PublicKey
	SignTransaction(tx *solana.Transaction) error
}

// Options controls a single submission.
type Options struct {
	// SkipPreflight bypasses simulation. Required for transactions that
	// carry an ed25519 verify instruction, which simulation cannot satisfy.
	SkipPreflight bool
}

// ErrVerifyNotFirst is returned when an ed25519 verify instruction is
// placed anywhere but index 0. The program reads the verification result
// from index 0 of the instructions sysvar, so the position is part of the
// ABI.
var ErrVerifyNotFirst = errors.New("ed25519 verify instruction must be at index 0")

// Orchestrator submits instruction sequences to a single ledger.
type Orchestrator struct {
	ledger         gateway.Ledger
	name           string
	scheme         scheme
	pending        *pendingSet
	confirmTimeout time.Duration
	logger         *zap.Logger
}

// New creates an Orchestrator for one ledger. name labels metrics and log
// lines. version selects the wire transaction shape once, at construction.
func New(ledger gateway.Ledger, name string, version Version, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		ledger:  ledger,
		name:    name,
		scheme:  schemeFor(version),
		pending: newPendingSet(),
		logger:  logger.With(zap.String("ledger", name)),
	}
}

// SetConfirmTimeout bounds the confirmation wait of every subsequent
// Submit. Zero means wait until the blockhash expires.
func (o *Orchestrator) SetConfirmTimeout(d time.Duration) {
	o.confirmTimeout = d
}

// Submit builds a transaction from instructions in the given order, signs
// it with signer, submits it, and waits for confirmation. It returns the
// submission signature only after execution succeeded; a revert during
// confirmation is reported as *gateway.RevertError even though submission
// itself went through.
func (o *Orchestrator) Submit(ctx context.Context, instrs []solana.Instruction, signer Signer, opts Options) (solana.Signature, error) {
	if len(instrs) == 0 {
		return solana.Signature{}, errors.New("no instructions to submit")
	}
	for i, ix := range instrs[1:] {
		if ix.ProgramID().Equals(program.Ed25519ProgramID) {
			return solana.Signature{}, fmt.Errorf("%w (found at index %d)", ErrVerifyNotFirst, i+1)
		}
	}

	bh, err := o.ledger.LatestBlockhash(ctx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("fetch blockhash: %w", err)
	}

	tx, err := o.scheme.build(instrs, signer.PublicKey(), bh.Hash)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("build transaction: %w", err)
	}
	if err := signer.SignTransaction(tx); err != nil {
		return solana.Signature{}, err
	}

	raw, err := tx.MarshalBinary()
	if err != nil {
		return solana.Signature{}, fmt.Errorf("serialize transaction: %w", err)
	}

	sig, err := o.ledger.SendRawTransaction(ctx, raw, opts.SkipPreflight)
	if err != nil {
		return solana.Signature{}, err
	}
	metrics.TxSubmitted.WithLabelValues(o.name).Inc()
	o.pending.add(sig, bh)
	defer o.pending.remove(sig)

	o.logger.Debug("transaction submitted",
		zap.String("signature", sig.String()),
		zap.Uint64("expiryHeight", bh.ExpiryHeight),
	)

	confirmCtx := ctx
	if o.confirmTimeout > 0 {
		var cancel context.CancelFunc
		confirmCtx, cancel = context.WithTimeout(ctx, o.confirmTimeout)
		defer cancel()
	}
	if err := o.ledger.ConfirmTransaction(confirmCtx, sig, bh); err != nil {
		var revert *gateway.RevertError
		if errors.As(err, &revert) {
			metrics.TxReverted.WithLabelValues(o.name).Inc()
		}
		return sig, err
	}
	metrics.TxConfirmed.WithLabelValues(o.name).Inc()
	return sig, nil
}

// InFlight returns the number of submissions currently awaiting
// confirmation.
func (o *Orchestrator) InFlight() int {
	return o.pending.len()
}
