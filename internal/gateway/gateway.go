// Package gateway is the thin query/submit interface to the two ledgers the
// client talks to: the base ledger and the ephemeral fast layer. Both are
// exposed through the same Ledger interface; everything above this package
// is transport-agnostic.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// Account is the subset of on-ledger account state the client consumes.
type Account struct {
	Owner    solana.PublicKey
	Lamports uint64
	Data     []byte
}

// Blockhash is a recent blockhash together with the block height after
// which a transaction using it can no longer land.
type Blockhash struct {
	Hash         solana.Hash
	ExpiryHeight uint64
}

// Ledger is the query/submit surface of one ledger instance.
type Ledger interface {
	// GetAccount fetches an account. Returns (nil, nil) when the account
	// does not exist.
	GetAccount(ctx context.Context, addr solana.PublicKey) (*Account, error)

	// GetBalance returns the lamport balance of an identity.
	GetBalance(ctx context.Context, addr solana.PublicKey) (uint64, error)

	// LatestBlockhash fetches a fresh blockhash and its expiry height.
	LatestBlockhash(ctx context.Context) (Blockhash, error)

	// SendRawTransaction submits a signed serialized transaction.
	SendRawTransaction(ctx context.Context, tx []byte, skipPreflight bool) (solana.Signature, error)

	// ConfirmTransaction waits until the signature is confirmed or the
	// blockhash expires. An on-chain revert is reported as a *RevertError:
	// submission success and execution success are distinct outcomes.
	ConfirmTransaction(ctx context.Context, sig solana.Signature, bh Blockhash) error
}

// RevertError reports a transaction that was accepted by the ledger but
// failed during execution.
type RevertError struct {
	Signature solana.Signature
	Detail    string
}

func (e *RevertError) Error() string {
	return fmt.Sprintf("transaction %s reverted: %s", e.Signature, e.Detail)
}

// ErrBlockhashExpired means the transaction's blockhash passed its expiry
// height before the signature was observed. Retryable with a fresh hash.
var ErrBlockhashExpired = errors.New("blockhash expired before confirmation")

// ErrSendFailed wraps a submission that never reached the ledger.
var ErrSendFailed = errors.New("transaction send failed")

// transientMarkers are error substrings of the known transient-failure
// family: the submission may succeed if simply tried again.
var transientMarkers = []string{
	"blockhash not found",
	"blockhashnotfound",
	"account in use",
	"accountinuse",
	"accountnotfound",
	"account not found",
	"not writable",
	"node is behind",
	"timed out",
	"timeout",
	"connection refused",
	"connection reset",
	"too many requests",
}

// IsTransient classifies an error as a member of the transient-failure
// family (stale blockhash, timeout, send failure, not-yet-writable or
// not-yet-visible account). Reverts are never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var revert *RevertError
	if errors.As(err, &revert) {
		return false
	}
	if errors.Is(err, ErrBlockhashExpired) || errors.Is(err, ErrSendFailed) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
