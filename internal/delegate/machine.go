// Package delegate determines where a shard currently lives and drives the
// initialize -> delegate transition that unlocks it for fast-layer painting.
package delegate

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ankushKun/magicplace-go/internal/canvas"
	"github.com/ankushKun/magicplace-go/internal/gateway"
	"github.com/ankushKun/magicplace-go/internal/metrics"
	"github.com/ankushKun/magicplace-go/internal/program"
	"github.com/ankushKun/magicplace-go/internal/submit"
)

// Costs are the lamport amounts a shard transition can require. They feed
// the balance preflight; the ledger is what actually charges.
type Costs struct {
	RentLamports        uint64 // rent-exempt minimum for a shard account
	TxFeeLamports       uint64 // flat fee per transaction
	DelegateFeeLamports uint64 // fee for the delegate transaction
}

// Timing bounds the machine's waits and its retry schedule. Zero fields
// fall back to the package defaults.
type Timing struct {
	SettleDelay  time.Duration // pause between initialize and delegate
	PollInterval time.Duration // fast-layer visibility poll interval
	PollAttempts int           // fast-layer visibility poll budget
	RetryStep    time.Duration // linear backoff step for delegate retries
	MaxAttempts  int           // total delegate attempts
}

func (t Timing) withDefaults() Timing {
	if t.SettleDelay <= 0 {
		t.SettleDelay = 2 * time.Second
	}
	if t.PollInterval <= 0 {
		t.PollInterval = time.Second
	}
	if t.PollAttempts <= 0 {
		t.PollAttempts = 10
	}
	if t.RetryStep <= 0 {
		t.RetryStep = 2 * time.Second
	}
	if t.MaxAttempts <= 0 {
		t.MaxAttempts = 3
	}
	return t
}

// Machine drives shard residency transitions with the session credential.
type Machine struct {
	base      gateway.Ledger
	fast      gateway.Ledger
	orch      *submit.Orchestrator // submits against the base ledger
	session   submit.KeypairSigner
	validator *solana.PublicKey
	costs     Costs
	timing    Timing
	logger    *zap.Logger
}

// NewMachine creates a Machine. orch must submit against the base ledger;
// fast is only queried, never written to by this component.
func NewMachine(base, fast gateway.Ledger, orch *submit.Orchestrator, session solana.PrivateKey, validator *solana.PublicKey, costs Costs, timing Timing, logger *zap.Logger) *Machine {
	return &Machine{
		base:      base,
		fast:      fast,
		orch:      orch,
		session:   submit.NewKeypairSigner(session),
		validator: validator,
		costs:     costs,
		timing:    timing.withDefaults(),
		logger:    logger,
	}
}

// CheckResidency queries the fast layer first (the cheap happy path) and
// falls back to the base ledger. A fast-layer error counts as "not found
// there", per the fail-open policy in gateway.FetchOptional.
func (m *Machine) CheckResidency(ctx context.Context, coord canvas.ShardCoord) (Status, error) {
	addr, err := program.ShardPDA(coord.X, coord.Y)
	if err != nil {
		return StatusNotInitialized, err
	}

	if acct := gateway.FetchOptional(ctx, m.fast, addr, m.logger); acct != nil && len(acct.Data) > 0 {
		return StatusDelegated, nil
	}

	acct, err := m.base.GetAccount(ctx, addr)
	if err != nil {
		return StatusNotInitialized, fmt.Errorf("base residency check %s: %w", coord, err)
	}
	switch {
	case acct == nil:
		return StatusNotInitialized, nil
	case acct.Owner.Equals(program.DelegationProgramID):
		return StatusDelegated, nil
	default:
		return StatusPresentUndelegated, nil
	}
}

// EnsureDelegated takes a shard to the delegated state: balance preflight,
// initialize if absent, delegate if undelegated, then wait until the shard
// is actually visible on the fast layer. Already-delegated shards return
// immediately. onPhase receives progress notifications and may be nil.
func (m *Machine) EnsureDelegated(ctx context.Context, coord canvas.ShardCoord, onPhase func(Phase)) error {
	report := func(p Phase) {
		if onPhase != nil {
			onPhase(p)
		}
	}
	log := m.logger.With(
		zap.String("shard", coord.String()),
		zap.String("op", uuid.NewString()),
	)

	report(PhaseChecking)
	status, err := m.CheckResidency(ctx, coord)
	if err != nil {
		return err
	}
	if status == StatusDelegated {
		log.Debug("shard already delegated")
		report(PhaseDone)
		return nil
	}

	needsInit := status == StatusNotInitialized

	if err := m.preflightBalance(ctx, needsInit); err != nil {
		return err
	}

	if needsInit {
		report(PhaseInitializing)
		if err := m.initialize(ctx, coord, log); err != nil {
			return err
		}
		report(PhaseSettling)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.timing.SettleDelay):
		}
	}

	report(PhaseDelegating)
	if err := m.delegateWithRetry(ctx, coord, log); err != nil {
		return err
	}

	report(PhaseVerifying)
	if err := m.awaitFastLayer(ctx, coord, log); err != nil {
		return err
	}

	metrics.ShardsDelegated.Inc()
	log.Info("shard delegated to fast layer")
	report(PhaseDone)
	return nil
}

// preflightBalance fails with InsufficientBalanceError before any
// transaction is attempted when the session cannot cover the transitions.
func (m *Machine) preflightBalance(ctx context.Context, needsInit bool) error {
	var required uint64
	if needsInit {
		required += m.costs.RentLamports + m.costs.TxFeeLamports
	}
	// Reaching this point implies the shard is not delegated yet.
	required += m.costs.DelegateFeeLamports

	have, err := m.base.GetBalance(ctx, m.session.PublicKey())
	if err != nil {
		return fmt.Errorf("fetch session balance: %w", err)
	}
	if have < required {
		return &InsufficientBalanceError{Required: required, Have: have}
	}
	return nil
}

// initialize submits the initialize transaction and confirms the account
// actually exists afterwards. Reverts are fatal here, not retried.
func (m *Machine) initialize(ctx context.Context, coord canvas.ShardCoord, log *zap.Logger) error {
	ix, err := program.InitializeShard(m.session.PublicKey(), coord.X, coord.Y)
	if err != nil {
		return err
	}
	if _, err := m.orch.Submit(ctx, []solana.Instruction{ix}, m.session, submit.Options{}); err != nil {
		return fmt.Errorf("initialize shard %s: %w", coord, err)
	}

	addr, err := program.ShardPDA(coord.X, coord.Y)
	if err != nil {
		return err
	}
	acct, err := m.base.GetAccount(ctx, addr)
	if err != nil {
		return fmt.Errorf("re-fetch shard %s: %w", coord, err)
	}
	if acct == nil {
		return ErrAccountNotCreated
	}
	log.Debug("shard initialized")
	return nil
}

// delegateWithRetry submits the delegate transaction under the bounded
// retry policy. Transient failures are retried; a stuck half-delegation is
// surfaced as ErrStuckDelegation and never retried.
func (m *Machine) delegateWithRetry(ctx context.Context, coord canvas.ShardCoord, log *zap.Logger) error {
	ix, err := program.DelegateShard(m.session.PublicKey(), coord.X, coord.Y, m.validator)
	if err != nil {
		return err
	}

	attempt := 0
	operation := func() error {
		attempt++
		if attempt > 1 {
			metrics.DelegateRetries.Inc()
		}

		if stuck, err := m.isStuck(ctx, coord); err == nil && stuck {
			return backoff.Permanent(ErrStuckDelegation)
		}

		_, err := m.orch.Submit(ctx, []solana.Instruction{ix}, m.session, submit.Options{})
		if err == nil {
			return nil
		}
		if gateway.IsTransient(err) {
			log.Warn("delegate submission failed, will retry",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.WithContext(retryPolicy(m.timing.RetryStep, m.timing.MaxAttempts), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return fmt.Errorf("delegate shard %s: %w", coord, err)
	}
	return nil
}

// isStuck detects the half-migrated state: the delegation program already
// holds a record for the shard while the shard account itself is not owned
// by the delegation program.
func (m *Machine) isStuck(ctx context.Context, coord canvas.ShardCoord) (bool, error) {
	addr, err := program.ShardPDA(coord.X, coord.Y)
	if err != nil {
		return false, err
	}
	record, err := program.DelegationRecordPDA(addr)
	if err != nil {
		return false, err
	}

	recordAcct, err := m.base.GetAccount(ctx, record)
	if err != nil || recordAcct == nil {
		return false, err
	}
	shardAcct, err := m.base.GetAccount(ctx, addr)
	if err != nil || shardAcct == nil {
		return false, err
	}
	return !shardAcct.Owner.Equals(program.DelegationProgramID), nil
}

// awaitFastLayer polls the fast layer until the shard is visible there.
// Success is only reported once the shard is genuinely fast-path-visible;
// otherwise an immediate paint would still be rejected.
func (m *Machine) awaitFastLayer(ctx context.Context, coord canvas.ShardCoord, log *zap.Logger) error {
	addr, err := program.ShardPDA(coord.X, coord.Y)
	if err != nil {
		return err
	}
	for i := 0; i < m.timing.PollAttempts; i++ {
		if acct := gateway.FetchOptional(ctx, m.fast, addr, log); acct != nil && len(acct.Data) > 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.timing.PollInterval):
		}
	}
	return ErrNotVisibleOnFastLayer
}
