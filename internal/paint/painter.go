// Package paint places and erases pixels through the fast layer, gated by
// the client-side cooldown estimate.
package paint

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/ankushKun/magicplace-go/internal/canvas"
	"github.com/ankushKun/magicplace-go/internal/cooldown"
	"github.com/ankushKun/magicplace-go/internal/gateway"
	"github.com/ankushKun/magicplace-go/internal/metrics"
	"github.com/ankushKun/magicplace-go/internal/program"
	"github.com/ankushKun/magicplace-go/internal/submit"
)

// CooldownActiveError reports a placement the server would reject right
// now, predicted locally without a round trip.
type CooldownActiveError struct {
	RefreshIn int64 // seconds until the window resets
}

func (e *CooldownActiveError) Error() string {
	return fmt.Sprintf("cooldown active: window resets in %ds", e.RefreshIn)
}

// Painter submits pixel operations with the session credential. The shard
// must already be delegated; see the delegate package.
type Painter struct {
	base    gateway.Ledger
	fast    gateway.Ledger
	orch    *submit.Orchestrator // submits against the fast layer
	session submit.KeypairSigner
	wallet  solana.PublicKey // main wallet identity, for the owner exemption
	limit   uint8
	period  int64
	logger  *zap.Logger
	now     func() int64
}

// New creates a Painter. orch must submit against the fast layer.
func New(base, fast gateway.Ledger, orch *submit.Orchestrator, sessionKey solana.PrivateKey, walletPub solana.PublicKey, logger *zap.Logger) *Painter {
	return &Painter{
		base:    base,
		fast:    fast,
		orch:    orch,
		session: submit.NewKeypairSigner(sessionKey),
		wallet:  walletPub,
		limit:   cooldown.DefaultLimit,
		period:  cooldown.DefaultPeriod,
		logger:  logger,
		now:     func() int64 { return time.Now().Unix() },
	}
}

// Place paints global pixel (px, py) with a palette color (1-255). The
// cooldown is consulted first; a predicted denial returns
// *CooldownActiveError without submitting anything.
func (p *Painter) Place(ctx context.Context, px, py uint32, color uint8) (solana.Signature, error) {
	if !canvas.ValidColor(color) {
		return solana.Signature{}, fmt.Errorf("invalid color %d: must be 1-%d", color, canvas.MaxColor)
	}
	coord, err := canvas.ShardForPixel(px, py)
	if err != nil {
		return solana.Signature{}, err
	}

	isOwner, err := p.shardOwnedByWallet(ctx, coord)
	if err != nil {
		return solana.Signature{}, err
	}
	acct, err := p.sessionAccount(ctx)
	if err != nil {
		return solana.Signature{}, err
	}

	verdict := cooldown.Evaluate(acct, p.now(), p.limit, p.period, isOwner)
	if !verdict.Allowed {
		metrics.CooldownDenials.Inc()
		return solana.Signature{}, &CooldownActiveError{RefreshIn: verdict.RefreshIn}
	}

	ix, err := program.PlacePixel(p.session.PublicKey(), coord.X, coord.Y, px, py, color)
	if err != nil {
		return solana.Signature{}, err
	}
	sig, err := p.orch.Submit(ctx, []solana.Instruction{ix}, p.session, submit.Options{})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("place pixel (%d,%d): %w", px, py, err)
	}
	metrics.PixelsPlaced.Inc()
	p.logger.Debug("pixel placed",
		zap.Uint32("px", px),
		zap.Uint32("py", py),
		zap.Uint8("color", color),
		zap.Uint8("remaining", verdict.Remaining-1),
	)
	return sig, nil
}

// Erase resets global pixel (px, py) to transparent. Erasing is not rate
// limited by the program.
func (p *Painter) Erase(ctx context.Context, px, py uint32) (solana.Signature, error) {
	coord, err := canvas.ShardForPixel(px, py)
	if err != nil {
		return solana.Signature{}, err
	}
	ix, err := program.ErasePixel(p.session.PublicKey(), coord.X, coord.Y, px, py)
	if err != nil {
		return solana.Signature{}, err
	}
	sig, err := p.orch.Submit(ctx, []solana.Instruction{ix}, p.session, submit.Options{})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("erase pixel (%d,%d): %w", px, py, err)
	}
	return sig, nil
}

// Commit schedules the shard's fast-layer state to be committed back to
// the base ledger.
func (p *Painter) Commit(ctx context.Context, coord canvas.ShardCoord) (solana.Signature, error) {
	ix, err := program.CommitShard(p.session.PublicKey(), coord.X, coord.Y)
	if err != nil {
		return solana.Signature{}, err
	}
	sig, err := p.orch.Submit(ctx, []solana.Instruction{ix}, p.session, submit.Options{})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("commit shard %s: %w", coord, err)
	}
	return sig, nil
}

// shardOwnedByWallet reports whether the acting wallet created the shard,
// which exempts it from the cooldown. The fast layer is asked first.
func (p *Painter) shardOwnedByWallet(ctx context.Context, coord canvas.ShardCoord) (bool, error) {
	addr, err := program.ShardPDA(coord.X, coord.Y)
	if err != nil {
		return false, err
	}
	acct := gateway.FetchOptional(ctx, p.fast, addr, p.logger)
	if acct == nil {
		if acct, err = p.base.GetAccount(ctx, addr); err != nil {
			return false, fmt.Errorf("fetch shard %s: %w", coord, err)
		}
	}
	if acct == nil || len(acct.Data) == 0 {
		return false, fmt.Errorf("shard %s is not initialized; unlock it first", coord)
	}
	shard, err := program.DecodePixelShard(acct.Data)
	if err != nil {
		return false, err
	}
	return shard.Creator.Equals(p.wallet), nil
}

// sessionAccount fetches the latest rate-limit state for this credential,
// preferring the fast layer where placements are counted.
func (p *Painter) sessionAccount(ctx context.Context) (*program.SessionAccount, error) {
	addr, err := program.SessionPDA(p.session.PublicKey())
	if err != nil {
		return nil, err
	}
	acct := gateway.FetchOptional(ctx, p.fast, addr, p.logger)
	if acct == nil {
		if acct, err = p.base.GetAccount(ctx, addr); err != nil {
			return nil, fmt.Errorf("fetch session account: %w", err)
		}
	}
	if acct == nil || len(acct.Data) == 0 {
		return nil, nil // no session account yet: fresh window
	}
	return program.DecodeSessionAccount(acct.Data)
}
