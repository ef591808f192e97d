// Package client wires all magicplace components and exposes the
// operations the CLI drives.
package client

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ankushKun/magicplace-go/internal/canvas"
	"github.com/ankushKun/magicplace-go/internal/config"
	"github.com/ankushKun/magicplace-go/internal/delegate"
	"github.com/ankushKun/magicplace-go/internal/gateway"
	"github.com/ankushKun/magicplace-go/internal/paint"
	"github.com/ankushKun/magicplace-go/internal/session"
	"github.com/ankushKun/magicplace-go/internal/submit"
	"github.com/ankushKun/magicplace-go/internal/wallet"
)

// Client bootstraps the two-ledger stack and holds the wired components.
type Client struct {
	cfg    *config.Config
	logger *zap.Logger

	wallet   *wallet.LocalWallet
	base     gateway.Ledger
	fast     gateway.Ledger
	baseOrch *submit.Orchestrator
	fastOrch *submit.Orchestrator
	store    session.Store
	closers  []func() error
}

// ShardReport is the residency of one shard, as returned by ShardStatus.
type ShardReport struct {
	Coord  canvas.ShardCoord
	Status delegate.Status
	Err    error
}

// New wires a Client from configuration. Close must be called when done.
func New(cfg *config.Config, logger *zap.Logger) (*Client, error) {
	c := &Client{cfg: cfg, logger: logger}

	w, err := wallet.Load(walletPath(cfg))
	if err != nil {
		return nil, err
	}
	c.wallet = w

	c.base = gateway.NewRPCLedger(cfg.RPC.BaseEndpoint, "base", logger)
	c.fast = gateway.NewRPCLedger(cfg.RPC.EphemeralEndpoint, "ephemeral", logger)

	version, err := parseVersion(cfg.Submit.MessageVersion)
	if err != nil {
		return nil, err
	}
	c.baseOrch = submit.New(c.base, "base", version, logger)
	c.fastOrch = submit.New(c.fast, "ephemeral", version, logger)
	c.baseOrch.SetConfirmTimeout(cfg.Submit.ConfirmTimeout)
	c.fastOrch.SetConfirmTimeout(cfg.Submit.ConfirmTimeout)

	store := session.NewPebbleStore(storePath(cfg), logger)
	if err := store.Init(); err != nil {
		return nil, fmt.Errorf("session store init: %w", err)
	}
	c.store = store
	c.closers = append(c.closers, store.Close)

	if cfg.Metrics.Enabled {
		c.startMetricsServer(cfg.Metrics.Listen)
	}
	return c, nil
}

// Close releases the client's resources.
func (c *Client) Close() {
	for _, fn := range c.closers {
		if err := fn(); err != nil {
			c.logger.Warn("close failed", zap.Error(err))
		}
	}
}

// Wallet returns the acting wallet.
func (c *Client) Wallet() *wallet.LocalWallet {
	return c.wallet
}

// SessionSetup runs the full session setup protocol, prompting the wallet
// for up to two signatures.
func (c *Client) SessionSetup(ctx context.Context) (*session.Credential, error) {
	proto := session.NewProtocol(c.wallet, c.store, c.base, c.baseOrch, session.ProtocolConfig{
		Salt:               c.cfg.Session.Salt,
		FundLamports:       c.cfg.Session.FundLamports,
		MinBalanceLamports: c.cfg.Session.MinBalanceLamports,
		TTL:                c.cfg.Session.TTL,
		Validator:          c.validator(),
	}, c.logger)
	return proto.Run(ctx)
}

// SessionRestore returns the persisted credential, or nil when none is
// usable.
func (c *Client) SessionRestore() (*session.Credential, error) {
	return c.store.Restore(c.wallet.PublicKey(), c.cfg.Session.Salt)
}

// SessionRevoke deletes the persisted credential. The on-chain account is
// left in place; a future setup with the same wallet reuses it.
func (c *Client) SessionRevoke() error {
	return c.store.Revoke(c.wallet.PublicKey(), c.cfg.Session.Salt)
}

// SessionBalance returns the session key's base-layer balance in lamports.
func (c *Client) SessionBalance(ctx context.Context, cred *session.Credential) (uint64, error) {
	return c.base.GetBalance(ctx, cred.PublicKey())
}

// ShardStatus checks the residency of each shard, querying in parallel.
// Per-shard failures are reported in the result, not returned.
func (c *Client) ShardStatus(ctx context.Context, cred *session.Credential, coords []canvas.ShardCoord) []ShardReport {
	machine := c.machine(cred)
	reports := make([]ShardReport, len(coords))

	g, gctx := errgroup.WithContext(ctx)
	for i, coord := range coords {
		i, coord := i, coord
		g.Go(func() error {
			status, err := machine.CheckResidency(gctx, coord)
			reports[i] = ShardReport{Coord: coord, Status: status, Err: err}
			return nil
		})
	}
	// The closures report per-shard failures through reports, never the
	// group error.
	_ = g.Wait()
	return reports
}

// ShardUnlock drives each shard to the delegated state, one at a time so
// the balance preflight stays accurate.
func (c *Client) ShardUnlock(ctx context.Context, cred *session.Credential, coords []canvas.ShardCoord, onPhase func(canvas.ShardCoord, delegate.Phase)) error {
	machine := c.machine(cred)
	for _, coord := range coords {
		coord := coord
		report := func(p delegate.Phase) {
			if onPhase != nil {
				onPhase(coord, p)
			}
		}
		if err := machine.EnsureDelegated(ctx, coord, report); err != nil {
			return fmt.Errorf("unlock shard %s: %w", coord, err)
		}
	}
	return nil
}

// Paint places a pixel through the fast layer.
func (c *Client) Paint(ctx context.Context, cred *session.Credential, px, py uint32, color uint8) (solana.Signature, error) {
	return c.painter(cred).Place(ctx, px, py, color)
}

// Erase clears a pixel through the fast layer.
func (c *Client) Erase(ctx context.Context, cred *session.Credential, px, py uint32) (solana.Signature, error) {
	return c.painter(cred).Erase(ctx, px, py)
}

// Commit schedules a shard's fast-layer state to be written back to the
// base ledger.
func (c *Client) Commit(ctx context.Context, cred *session.Credential, coord canvas.ShardCoord) (solana.Signature, error) {
	return c.painter(cred).Commit(ctx, coord)
}

func (c *Client) machine(cred *session.Credential) *delegate.Machine {
	costs := delegate.Costs{
		RentLamports:        c.cfg.Delegate.RentLamports,
		TxFeeLamports:       c.cfg.Delegate.TxFeeLamports,
		DelegateFeeLamports: c.cfg.Delegate.DelegateFeeLamports,
	}
	timing := delegate.Timing{
		SettleDelay:  c.cfg.Delegate.SettleDelay,
		PollInterval: c.cfg.Delegate.PollInterval,
		PollAttempts: c.cfg.Delegate.PollAttempts,
		RetryStep:    c.cfg.Delegate.RetryStep,
		MaxAttempts:  c.cfg.Delegate.MaxAttempts,
	}
	return delegate.NewMachine(c.base, c.fast, c.baseOrch, cred.Key, c.validator(), costs, timing, c.logger)
}

func (c *Client) painter(cred *session.Credential) *paint.Painter {
	return paint.New(c.base, c.fast, c.fastOrch, cred.Key, c.wallet.PublicKey(), c.logger)
}

func (c *Client) validator() *solana.PublicKey {
	if c.cfg.RPC.ValidatorHint == "" {
		return nil
	}
	pub, err := solana.PublicKeyFromBase58(c.cfg.RPC.ValidatorHint)
	if err != nil {
		c.logger.Warn("invalid validator hint, ignoring", zap.String("hint", c.cfg.RPC.ValidatorHint))
		return nil
	}
	return &pub
}

func (c *Client) startMetricsServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			c.logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	c.closers = append(c.closers, srv.Close)
	c.logger.Info("metrics exposed", zap.String("addr", addr))
}

func walletPath(cfg *config.Config) string {
	if cfg.Session.WalletPath != "" {
		return cfg.Session.WalletPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "id.json"
	}
	return filepath.Join(home, ".config", "solana", "id.json")
}

func storePath(cfg *config.Config) string {
	if cfg.Session.StorePath != "" {
		return cfg.Session.StorePath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".magicplace-sessions"
	}
	return filepath.Join(home, ".magicplace", "sessions")
}

func parseVersion(s string) (submit.Version, error) {
	switch s {
	case "", "legacy":
		return submit.Legacy, nil
	case "v0":
		return submit.V0, nil
	default:
		return submit.Legacy, fmt.Errorf("unknown message version: %s (use 'legacy' or 'v0')", s)
	}
}
