// Command slotsound compares raw contract storage slots between two EVM
// JSON-RPC endpoints and reports byte-for-byte equality.
// Exit code 0 = all slots match. Exit code 1 = input or connection error.
// Exit code 2 = mismatch detected.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/chests-genuine/zk-slot-soundness/internal/audit"
	"github.com/chests-genuine/zk-slot-soundness/internal/config"
	"github.com/chests-genuine/zk-slot-soundness/internal/connectors/evmrpc"
	"github.com/chests-genuine/zk-slot-soundness/internal/observability"
	"github.com/chests-genuine/zk-slot-soundness/internal/report"
	"github.com/chests-genuine/zk-slot-soundness/internal/slotspec"
)

const version = "0.3.0"

// errMismatch is returned by the action once the report is fully printed;
// main maps it to exit code 2 without printing anything further.
var errMismatch = errors.New("storage state mismatch")

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	observability.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if cfg.OTelEnabled {
		shutdown, err := observability.InitTracer(ctx, "slotsound")
		if err != nil {
			slog.Error("otel init failed", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	if err := newApp(cfg, stdout, stderr).RunContext(ctx, args); err != nil {
		if errors.Is(err, errMismatch) {
			return 2
		}
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

func newApp(cfg config.Config, stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:            "slotsound",
		Usage:           "compare raw EVM storage slot values across blocks and chains",
		Version:         version,
		Writer:          stdout,
		ErrWriter:       stderr,
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "address",
				Usage:    "contract address to inspect",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "rpc-a",
				Usage: "primary RPC URL (default env RPC_URL_A or RPC_URL)",
				Value: cfg.DefaultRPCA,
			},
			&cli.StringFlag{
				Name:  "rpc-b",
				Usage: "secondary RPC URL (default env RPC_URL_B)",
				Value: cfg.DefaultRPCB,
			},
			&cli.StringFlag{
				Name:  "block-a",
				Usage: "block tag or height for RPC A",
				Value: "latest",
			},
			&cli.StringFlag{
				Name:  "block-b",
				Usage: "block tag or height for RPC B",
				Value: "latest",
			},
			&cli.StringSliceFlag{
				Name:  "slot",
				Usage: "storage slot to read, 0xSLOT or label:0xSLOT (repeatable)",
			},
			&cli.PathFlag{
				Name:  "manifest",
				Usage: "path to JSON file with slots: list [\"0x..\"] or map {\"label\":\"0x..\"}",
			},
			&cli.IntFlag{
				Name:  "timeout",
				Usage: "RPC timeout in seconds",
				Value: 30,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "emit machine-readable JSON after the summary",
			},
			&cli.PathFlag{
				Name:  "output",
				Usage: "also write the JSON report to this file",
			},
		},
		Action: func(c *cli.Context) error {
			return runCompare(c, cfg, stdout)
		},
		ExitErrHandler: func(*cli.Context, error) {
			// Run returns the error; main maps it to an exit code.
		},
	}
}

func runCompare(c *cli.Context, cfg config.Config, stdout io.Writer) error {
	addr, err := evmrpc.ParseAddress(c.String("address"))
	if err != nil {
		return err
	}

	rpcA, rpcB := c.String("rpc-a"), c.String("rpc-b")
	if err := evmrpc.ValidateURL(rpcA); err != nil {
		return err
	}
	if err := evmrpc.ValidateURL(rpcB); err != nil {
		return err
	}

	blockA, err := evmrpc.ParseBlockTag(c.String("block-a"))
	if err != nil {
		return err
	}
	blockB, err := evmrpc.ParseBlockTag(c.String("block-b"))
	if err != nil {
		return err
	}

	specs, err := slotspec.Collect(c.StringSlice("slot"), c.Path("manifest"))
	if err != nil {
		return err
	}

	if c.Int("timeout") <= 0 {
		return fmt.Errorf("timeout must be positive, got %d", c.Int("timeout"))
	}

	ctx := c.Context
	sess, err := audit.Open(ctx, audit.Params{
		Address: addr,
		RPCA:    rpcA,
		RPCB:    rpcB,
		BlockA:  blockA,
		BlockB:  blockB,
		Specs:   specs,
		Timeout: time.Duration(c.Int("timeout")) * time.Second,
		Traced:  cfg.OTelEnabled,
	})
	if err != nil {
		return err
	}
	defer sess.Close()

	report.WriteHeader(stdout, sess)
	res := sess.Run(ctx)
	report.WriteComparison(stdout, specs, res)
	report.WriteSummary(stdout, len(res.Mismatches), len(specs))

	rep := report.Build(sess, res)
	if c.Bool("json") {
		if err := report.WriteJSON(stdout, rep); err != nil {
			return err
		}
	}
	if path := c.Path("output"); path != "" {
		if err := report.WriteFile(path, rep); err != nil {
			return err
		}
	}

	if !res.OK {
		return errMismatch
	}
	return nil
}
