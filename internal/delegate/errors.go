package delegate

import (
	"errors"
	"fmt"
)

// InsufficientBalanceError reports that the session credential cannot pay
// for the required transitions. Nothing has been submitted when this is
// returned; the caller knows exactly how much funding is missing.
type InsufficientBalanceError struct {
	Required uint64 // lamports
	Have     uint64 // lamports
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient session balance: need %d lamports, have %d", e.Required, e.Have)
}

// ErrAccountNotCreated means the initialize transaction confirmed but the
// shard account still cannot be observed on the base ledger.
var ErrAccountNotCreated = errors.New("shard account not found after initialize confirmed")

// ErrStuckDelegation means a previous delegation attempt left the shard
// half-migrated: the delegation program holds a record for it, but the
// account itself is not owned by the delegation program. Retrying will not
// help; pick a different shard or remediate manually.
var ErrStuckDelegation = errors.New("shard is stuck mid-delegation: delegation record exists but account is not delegated; choose another shard or remediate manually")

// ErrNotVisibleOnFastLayer means the delegate transaction confirmed on the
// base ledger but the shard never appeared on the fast layer within the
// polling budget.
var ErrNotVisibleOnFastLayer = errors.New("shard not visible on fast layer after delegation")
