package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ankushKun/magicplace-go/internal/canvas"
	"github.com/ankushKun/magicplace-go/internal/client"
	"github.com/ankushKun/magicplace-go/internal/config"
	"github.com/ankushKun/magicplace-go/internal/delegate"
	"github.com/ankushKun/magicplace-go/internal/paint"
	"github.com/ankushKun/magicplace-go/internal/session"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "magicplace",
		Short: "magicplace — shared pixel canvas client for Solana ephemeral rollups",
	}
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to config file (default: configs/config.yaml)")

	sessionCmd := &cobra.Command{Use: "session", Short: "Manage the session credential"}
	sessionCmd.AddCommand(
		&cobra.Command{Use: "setup", Short: "Derive, authorize, and fund a session credential", RunE: runSessionSetup},
		&cobra.Command{Use: "status", Short: "Show the persisted session credential", RunE: runSessionStatus},
		&cobra.Command{Use: "revoke", Short: "Delete the persisted session credential", RunE: runSessionRevoke},
	)

	shardCmd := &cobra.Command{Use: "shard", Short: "Inspect and delegate canvas shards"}
	shardCmd.AddCommand(
		&cobra.Command{
			Use:   "status x,y [x,y ...]",
			Short: "Report where each shard currently lives",
			Args:  cobra.MinimumNArgs(1),
			RunE:  runShardStatus,
		},
		&cobra.Command{
			Use:   "unlock x,y [x,y ...]",
			Short: "Initialize and delegate shards to the fast layer",
			Args:  cobra.MinimumNArgs(1),
			RunE:  runShardUnlock,
		},
	)

	rootCmd.AddCommand(
		sessionCmd,
		shardCmd,
		&cobra.Command{
			Use:   "paint <px> <py> <color>",
			Short: "Place a pixel (color 1-255)",
			Args:  cobra.ExactArgs(3),
			RunE:  runPaint,
		},
		&cobra.Command{
			Use:   "erase <px> <py>",
			Short: "Reset a pixel to transparent",
			Args:  cobra.ExactArgs(2),
			RunE:  runErase,
		},
		&cobra.Command{
			Use:   "commit x,y",
			Short: "Write a shard's fast-layer state back to the base ledger",
			Args:  cobra.ExactArgs(1),
			RunE:  runCommit,
		},
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup builds the wired client. The caller must call Close on it.
func setup() (*client.Client, *zap.Logger, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, nil, fmt.Errorf("logger init: %w", err)
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("config load: %w", err)
	}

	cl, err := client.New(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return cl, logger, nil
}

func runSessionSetup(cmd *cobra.Command, args []string) error {
	cl, logger, err := setup()
	if err != nil {
		return err
	}
	defer cl.Close()
	defer logger.Sync()

	cred, err := cl.SessionSetup(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("session ready: %s\n", cred.PublicKey())
	return nil
}

func runSessionStatus(cmd *cobra.Command, args []string) error {
	cl, logger, err := setup()
	if err != nil {
		return err
	}
	defer cl.Close()
	defer logger.Sync()

	cred, err := cl.SessionRestore()
	if err != nil {
		return err
	}
	if cred == nil {
		fmt.Println("no session credential; run 'magicplace session setup'")
		return nil
	}

	fmt.Printf("session key: %s\n", cred.PublicKey())
	fmt.Printf("created:     %s\n", time.Unix(cred.CreatedAt, 0).Format(time.RFC3339))
	if cred.ExpiresAt != 0 {
		fmt.Printf("expires:     %s\n", time.Unix(cred.ExpiresAt, 0).Format(time.RFC3339))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if balance, err := cl.SessionBalance(ctx, cred); err == nil {
		fmt.Printf("balance:     %.9f SOL\n", float64(balance)/1e9)
	}
	return nil
}

func runSessionRevoke(cmd *cobra.Command, args []string) error {
	cl, logger, err := setup()
	if err != nil {
		return err
	}
	defer cl.Close()
	defer logger.Sync()

	if err := cl.SessionRevoke(); err != nil {
		return err
	}
	fmt.Println("session credential revoked")
	return nil
}

func runShardStatus(cmd *cobra.Command, args []string) error {
	coords, err := parseCoords(args)
	if err != nil {
		return err
	}

	cl, logger, err := setup()
	if err != nil {
		return err
	}
	defer cl.Close()
	defer logger.Sync()

	cred, err := requireSession(cl)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, report := range cl.ShardStatus(ctx, cred, coords) {
		if report.Err != nil {
			fmt.Printf("%s  error: %v\n", report.Coord, report.Err)
			continue
		}
		fmt.Printf("%s  %s\n", report.Coord, report.Status)
	}
	return nil
}

func runShardUnlock(cmd *cobra.Command, args []string) error {
	coords, err := parseCoords(args)
	if err != nil {
		return err
	}

	cl, logger, err := setup()
	if err != nil {
		return err
	}
	defer cl.Close()
	defer logger.Sync()

	cred, err := requireSession(cl)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	onPhase := func(coord canvas.ShardCoord, phase delegate.Phase) {
		fmt.Printf("%s  %s\n", coord, phase)
	}
	if err := cl.ShardUnlock(ctx, cred, coords, onPhase); err != nil {
		var insufficient *delegate.InsufficientBalanceError
		if errors.As(err, &insufficient) {
			return fmt.Errorf("%w; fund the session key or rerun 'magicplace session setup'", insufficient)
		}
		return err
	}
	fmt.Println("all shards delegated")
	return nil
}

func runPaint(cmd *cobra.Command, args []string) error {
	px, py, err := parsePixel(args[0], args[1])
	if err != nil {
		return err
	}
	color, err := strconv.ParseUint(args[2], 10, 8)
	if err != nil {
		return fmt.Errorf("invalid color %q: %w", args[2], err)
	}

	cl, logger, err := setup()
	if err != nil {
		return err
	}
	defer cl.Close()
	defer logger.Sync()

	cred, err := requireSession(cl)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	sig, err := cl.Paint(ctx, cred, px, py, uint8(color))
	if err != nil {
		var denied *paint.CooldownActiveError
		if errors.As(err, &denied) {
			return fmt.Errorf("rate limited: try again in %ds", denied.RefreshIn)
		}
		return err
	}
	fmt.Printf("pixel placed: %s\n", sig)
	return nil
}

func runErase(cmd *cobra.Command, args []string) error {
	px, py, err := parsePixel(args[0], args[1])
	if err != nil {
		return err
	}

	cl, logger, err := setup()
	if err != nil {
		return err
	}
	defer cl.Close()
	defer logger.Sync()

	cred, err := requireSession(cl)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	sig, err := cl.Erase(ctx, cred, px, py)
	if err != nil {
		return err
	}
	fmt.Printf("pixel erased: %s\n", sig)
	return nil
}

func runCommit(cmd *cobra.Command, args []string) error {
	coords, err := parseCoords(args)
	if err != nil {
		return err
	}

	cl, logger, err := setup()
	if err != nil {
		return err
	}
	defer cl.Close()
	defer logger.Sync()

	cred, err := requireSession(cl)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	sig, err := cl.Commit(ctx, cred, coords[0])
	if err != nil {
		return err
	}
	fmt.Printf("shard commit scheduled: %s\n", sig)
	return nil
}

func requireSession(cl *client.Client) (*session.Credential, error) {
	cred, err := cl.SessionRestore()
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, errors.New("no session credential; run 'magicplace session setup' first")
	}
	return cred, nil
}

// parseCoords parses "x,y" shard coordinate arguments.
func parseCoords(args []string) ([]canvas.ShardCoord, error) {
	coords := make([]canvas.ShardCoord, 0, len(args))
	for _, arg := range args {
		parts := strings.Split(arg, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid shard coordinate %q: expected x,y", arg)
		}
		x, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid shard coordinate %q: %w", arg, err)
		}
		y, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid shard coordinate %q: %w", arg, err)
		}
		coord, err := canvas.NewShardCoord(uint16(x), uint16(y))
		if err != nil {
			return nil, err
		}
		coords = append(coords, coord)
	}
	return coords, nil
}

func parsePixel(xs, ys string) (uint32, uint32, error) {
	px, err := strconv.ParseUint(xs, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid pixel x %q: %w", xs, err)
	}
	py, err := strconv.ParseUint(ys, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid pixel y %q: %w", ys, err)
	}
	return uint32(px), uint32(py), nil
}
