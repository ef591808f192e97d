// Package cooldown replicates the server-enforced placement rate limit so
// the client can predict and explain rejections before submitting. The
// ledger remains authoritative; this is an estimate, not enforcement.
package cooldown

import "github.com/ankushKun/magicplace-go/internal/program"

// Defaults fixed by the on-chain program.
const (
	// DefaultLimit is the max pixels a non-owner may place in one window.
	DefaultLimit uint8 = 50
	// DefaultPeriod is the window length in seconds.
	DefaultPeriod int64 = 30
)

// Verdict is the outcome of a cooldown evaluation.
type Verdict struct {
	// Allowed reports whether a placement would be accepted right now.
	Allowed bool
	// Remaining is the number of placements left in the current window.
	// Only meaningful when Allowed is true.
	Remaining uint8
	// RefreshIn is the number of seconds until the window resets. Only
	// meaningful when Allowed is false.
	RefreshIn int64
}

// Evaluate predicts whether a placement by this session would be accepted.
// Shard owners are exempt. A nil account means no session account exists
// yet, which is treated as a fresh window.
func Evaluate(acct *program.SessionAccount, now int64, limit uint8, period int64, isOwner bool) Verdict {
	if isOwner {
		return Verdict{Allowed: true, Remaining: limit}
	}
	if acct == nil {
		return Verdict{Allowed: true, Remaining: limit}
	}

	elapsed := now - int64(acct.LastPlaceTimestamp)

	// A full period has passed: the stored counter is stale and the server
	// will treat the window as fresh regardless of its value.
	effective := acct.CooldownCounter
	if elapsed >= period {
		effective = 0
	}

	if effective >= limit {
		return Verdict{Allowed: false, RefreshIn: period - elapsed}
	}
	return Verdict{Allowed: true, Remaining: limit - effective}
}
