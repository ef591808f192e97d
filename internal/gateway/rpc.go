package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// RPCLedger implements Ledger over a Solana JSON-RPC endpoint. Two
// instances are used: one against the base ledger, one against the fast
// layer's ephemeral validator.
type RPCLedger struct {
	client       *rpc.Client
	name         string
	pollInterval time.Duration
	logger       *zap.Logger
}

// NewRPCLedger creates an RPCLedger for the given endpoint. name labels log
// lines ("base" or "ephemeral").
func NewRPCLedger(endpoint, name string, logger *zap.Logger) *RPCLedger {
	return &RPCLedger{
		client:       rpc.New(endpoint),
		name:         name,
		pollInterval: time.Second,
		logger:       logger.With(zap.String("ledger", name)),
	}
}

// GetAccount fetches an account, translating not-found into (nil, nil).
func (l *RPCLedger) GetAccount(ctx context.Context, addr solana.PublicKey) (*Account, error) {
	out, err := l.client.GetAccountInfoWithOpts(ctx, addr, &rpc.GetAccountInfoOpts{
		Commitment: rpc.CommitmentConfirmed,
		Encoding:   solana.EncodingBase64,
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account %s: %w", addr, err)
	}
	if out == nil || out.Value == nil {
		return nil, nil
	}
	acct := &Account{
		Owner:    out.Value.Owner,
		Lamports: out.Value.Lamports,
	}
	if out.Value.Data != nil {
		acct.Data = out.Value.Data.GetBinary()
	}
	return acct, nil
}

// GetBalance returns the lamport balance of addr.
func (l *RPCLedger) GetBalance(ctx context.Context, addr solana.PublicKey) (uint64, error) {
	out, err := l.client.GetBalance(ctx, addr, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("get balance %s: %w", addr, err)
	}
	return out.Value, nil
}

// LatestBlockhash fetches a fresh blockhash and its expiry height.
func (l *RPCLedger) LatestBlockhash(ctx context.Context) (Blockhash, error) {
	out, err := l.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return Blockhash{}, fmt.Errorf("get latest blockhash: %w", err)
	}
	return Blockhash{
		Hash:         out.Value.Blockhash,
		ExpiryHeight: out.Value.LastValidBlockHeight,
	}, nil
}

// SendRawTransaction submits a signed serialized transaction.
func (l *RPCLedger) SendRawTransaction(ctx context.Context, tx []byte, skipPreflight bool) (solana.Signature, error) {
	sig, err := l.client.SendRawTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       skipPreflight,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return sig, nil
}

// ConfirmTransaction polls the signature status until it confirms, reverts,
// or the blockhash expires. The expiry height gives every submission a
// natural timeout.
func (l *RPCLedger) ConfirmTransaction(ctx context.Context, sig solana.Signature, bh Blockhash) error {
	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	for {
		out, err := l.client.GetSignatureStatuses(ctx, true, sig)
		if err == nil && out != nil && len(out.Value) > 0 && out.Value[0] != nil {
			status := out.Value[0]
			if status.Err != nil {
				return &RevertError{Signature: sig, Detail: fmt.Sprintf("%v", status.Err)}
			}
			if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
				status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
				return nil
			}
		}
		if err != nil {
			l.logger.Debug("signature status poll failed", zap.Error(err))
		}

		height, err := l.client.GetBlockHeight(ctx, rpc.CommitmentConfirmed)
		if err == nil && height > bh.ExpiryHeight {
			return ErrBlockhashExpired
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
