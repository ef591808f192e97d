package gateway

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// FetchOptional is the fail-open account fetch used for fast-layer
// residency checks: an endpoint error is treated the same as the account
// not being there, never as fatal. This is a deliberate policy — the fast
// layer answering "no" and the fast layer being unreachable both mean the
// caller falls back to the base ledger.
func FetchOptional(ctx context.Context, l Ledger, addr solana.PublicKey, logger *zap.Logger) *Account {
	acct, err := l.GetAccount(ctx, addr)
	if err != nil {
		logger.Debug("optional account fetch failed, treating as not found",
			zap.String("address", addr.String()),
			zap.Error(err),
		)
		return nil
	}
	return acct
}
