package delegate

// Status is a shard's current residency.
type Status int

const (
	// StatusNotInitialized means no shard account exists on the base ledger.
	StatusNotInitialized Status = iota
	// StatusPresentUndelegated means the account exists on the base ledger
	// and is still owned by the program itself.
	StatusPresentUndelegated
	// StatusDelegated means the account's write authority currently
	// belongs to the fast layer's delegation program.
	StatusDelegated
	// StatusChecking is a transient value for progress display only; it is
	// never returned by CheckResidency.
	StatusChecking
)

func (s Status) String() string {
	switch s {
	case StatusNotInitialized:
		return "not-initialized"
	case StatusPresentUndelegated:
		return "present-undelegated"
	case StatusDelegated:
		return "delegated"
	case StatusChecking:
		return "checking"
	default:
		return "unknown"
	}
}

// Phase names handed to the progress callback during EnsureDelegated. They
// are for reporting only and never affect control flow.
type Phase string

const (
	PhaseChecking     Phase = "checking residency"
	PhaseInitializing Phase = "initializing shard"
	PhaseSettling     Phase = "waiting for ledger settle"
	PhaseDelegating   Phase = "delegating to fast layer"
	PhaseVerifying    Phase = "verifying fast-layer visibility"
	PhaseDone         Phase = "done"
)
