package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"go.uber.org/zap"

	"github.com/ankushKun/magicplace-go/internal/gateway"
	"github.com/ankushKun/magicplace-go/internal/keys"
	"github.com/ankushKun/magicplace-go/internal/program"
	"github.com/ankushKun/magicplace-go/internal/submit"
	"github.com/ankushKun/magicplace-go/internal/wallet"
)

// State is the protocol's current step. Transitions are strictly forward
// within one invocation; StateError absorbs any failure.
type State int

const (
	StateIdle State = iota
	StateDeriving
	StateAuthorizing
	StateCreatingAccount
	StateComplete
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDeriving:
		return "deriving"
	case StateAuthorizing:
		return "authorizing"
	case StateCreatingAccount:
		return "creating-account"
	case StateComplete:
		return "complete"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// ProtocolConfig tunes the session setup protocol.
type ProtocolConfig struct {
	// Salt namespaces the derivation per protocol version.
	Salt string
	// FundLamports is transferred from the wallet when the session balance
	// is below MinBalanceLamports.
	FundLamports uint64
	// MinBalanceLamports is the balance considered "sufficient" both for
	// skipping funding and for skipping the whole setup.
	MinBalanceLamports uint64
	// TTL bounds the credential's validity; 0 means never expires.
	TTL time.Duration
	// Validator optionally pins the fast-layer validator for delegation.
	Validator *solana.PublicKey
}

// Protocol drives the two-signature session setup: derive the keypair from
// a wallet signature, authorize it with a second signature, create and
// delegate the on-chain session account, then persist the credential.
type Protocol struct {
	wallet wallet.Wallet
	store  Store
	base   gateway.Ledger
	orch   *submit.Orchestrator
	cfg    ProtocolConfig
	logger *zap.Logger
	state  State
}

// NewProtocol creates a Protocol. orch must submit against the base ledger.
func NewProtocol(w wallet.Wallet, store Store, base gateway.Ledger, orch *submit.Orchestrator, cfg ProtocolConfig, logger *zap.Logger) *Protocol {
	if cfg.Salt == "" {
		cfg.Salt = DefaultSalt
	}
	return &Protocol{
		wallet: w,
		store:  store,
		base:   base,
		orch:   orch,
		cfg:    cfg,
		logger: logger,
		state:  StateIdle,
	}
}

// State returns the protocol's current step.
func (p *Protocol) State() State {
	return p.state
}

// setup is the snapshot the decision function works from.
type setup struct {
	balance       uint64
	accountExists bool
	delegated     bool
}

// skip reports whether the remaining protocol steps can be short-circuited:
// the session is already funded and delegated, so re-prompting the wallet
// for the authorization signature would change nothing. The existing
// on-chain authorization proof is reused as-is.
func (s setup) skip(minBalance uint64) bool {
	return s.balance >= minBalance && s.delegated
}

// inspect gathers the session's current on-chain state in one place; every
// branching decision in Run derives from this snapshot.
func (p *Protocol) inspect(ctx context.Context, sessionKey solana.PublicKey) (setup, error) {
	var s setup

	balance, err := p.base.GetBalance(ctx, sessionKey)
	if err != nil {
		return s, fmt.Errorf("fetch session balance: %w", err)
	}
	s.balance = balance

	addr, err := program.SessionPDA(sessionKey)
	if err != nil {
		return s, err
	}
	acct, err := p.base.GetAccount(ctx, addr)
	if err != nil {
		return s, fmt.Errorf("fetch session account: %w", err)
	}
	if acct != nil {
		s.accountExists = true
		s.delegated = acct.Owner.Equals(program.DelegationProgramID)
	}
	return s, nil
}

// Run executes the protocol from the beginning. On success the credential
// has been persisted and is returned active. On any failure nothing is
// persisted and the underlying error is surfaced with the failing step.
func (p *Protocol) Run(ctx context.Context) (*Credential, error) {
	walletPub := p.wallet.PublicKey()

	// Deriving: first wallet signature, deterministic per wallet and salt.
	p.state = StateDeriving
	derivationSig, err := p.wallet.SignMessage(DerivationMessage(walletPub, p.cfg.Salt))
	if err != nil {
		return nil, p.fail(err)
	}
	key, err := keys.Derive(derivationSig)
	if err != nil {
		return nil, p.fail(err)
	}
	sessionPub := key.PublicKey()
	p.logger.Info("session key derived",
		zap.String("wallet", walletPub.String()),
		zap.String("sessionKey", sessionPub.String()),
	)

	st, err := p.inspect(ctx, sessionPub)
	if err != nil {
		return nil, p.fail(err)
	}

	var authSig []byte
	if st.skip(p.cfg.MinBalanceLamports) {
		p.logger.Info("session already funded and delegated, skipping authorization")
	} else {
		// Authorizing: second wallet signature, the delegation proof the
		// program verifies on-chain.
		p.state = StateAuthorizing
		authSig, err = p.wallet.SignMessage(AuthorizationMessage(sessionPub, walletPub))
		if err != nil {
			return nil, p.fail(err)
		}

		p.state = StateCreatingAccount
		if err := p.createAccount(ctx, key, walletPub, authSig, st); err != nil {
			return nil, p.fail(err)
		}
	}

	p.state = StateComplete
	now := time.Now().Unix()
	cred := &Credential{
		Key:                 key,
		Active:              true,
		CreatedAt:           now,
		DerivationSignature: derivationSig,
		AuthSignature:       authSig,
	}
	if p.cfg.TTL > 0 {
		cred.ExpiresAt = now + int64(p.cfg.TTL.Seconds())
	}
	// Persistence only happens after full success.
	if err := p.store.Persist(walletPub, p.cfg.Salt, cred); err != nil {
		return nil, p.fail(fmt.Errorf("persist credential: %w", err))
	}
	p.logger.Info("session set up", zap.String("sessionKey", sessionPub.String()))
	return cred, nil
}

// createAccount funds the session key, creates the on-chain session
// account, and delegates it, skipping whichever steps the snapshot shows
// are already done.
func (p *Protocol) createAccount(ctx context.Context, key solana.PrivateKey, walletPub solana.PublicKey, authSig []byte, st setup) error {
	sessionPub := key.PublicKey()
	signer := submit.NewKeypairSigner(key)

	if st.balance < p.cfg.MinBalanceLamports {
		transfer := system.NewTransferInstruction(p.cfg.FundLamports, walletPub, sessionPub).Build()
		if _, err := p.orch.Submit(ctx, []solana.Instruction{transfer}, p.wallet, submit.Options{}); err != nil {
			return fmt.Errorf("fund session: %w", err)
		}
		p.logger.Info("session funded", zap.Uint64("lamports", p.cfg.FundLamports))
	}

	if !st.accountExists {
		verify, err := program.Ed25519VerifyInstruction(walletPub, AuthorizationMessage(sessionPub, walletPub), authSig)
		if err != nil {
			return err
		}
		init, err := program.InitializeUser(sessionPub, walletPub, authSig)
		if err != nil {
			return err
		}
		// The verify instruction cannot be simulated, so preflight is
		// skipped; it must sit at index 0 for the program's sysvar check.
		_, err = p.orch.Submit(ctx, []solana.Instruction{verify, init}, signer, submit.Options{SkipPreflight: true})
		if err != nil && !p.accountNowExists(ctx, sessionPub, err) {
			return fmt.Errorf("create session account: %w", err)
		}
	}

	if !st.delegated {
		del, err := program.DelegateUser(sessionPub, walletPub, p.cfg.Validator)
		if err != nil {
			return err
		}
		if _, err := p.orch.Submit(ctx, []solana.Instruction{del}, signer, submit.Options{}); err != nil {
			return fmt.Errorf("delegate session account: %w", err)
		}
	}
	return nil
}

// accountNowExists tolerates the already-exists race on account creation:
// if the create reverted but the account is observable, another submission
// won and the outcome is what we wanted.
func (p *Protocol) accountNowExists(ctx context.Context, sessionPub solana.PublicKey, cause error) bool {
	var revert *gateway.RevertError
	if !errors.As(cause, &revert) {
		return false
	}
	addr, err := program.SessionPDA(sessionPub)
	if err != nil {
		return false
	}
	acct, err := p.base.GetAccount(ctx, addr)
	if err != nil || acct == nil {
		return false
	}
	p.logger.Debug("session account already exists, treating as success")
	return true
}

func (p *Protocol) fail(err error) error {
	failed := p.state
	p.state = StateError
	return fmt.Errorf("session setup failed at %s: %w", failed, err)
}
