// Package audit orchestrates one soundness run: connect to both endpoints,
// read every slot from each, and diff the two result maps.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/chests-genuine/zk-slot-soundness/internal/compare"
	"github.com/chests-genuine/zk-slot-soundness/internal/connectors/evmrpc"
	"github.com/chests-genuine/zk-slot-soundness/internal/observability"
	"github.com/chests-genuine/zk-slot-soundness/internal/slotspec"
)

// Params identifies one comparison run. All fields are pre-validated by the
// caller; Open does no input checking of its own.
type Params struct {
	Address common.Address
	RPCA    string
	RPCB    string
	BlockA  evmrpc.BlockTag
	BlockB  evmrpc.BlockTag
	Specs   []slotspec.Spec
	Timeout time.Duration
	Traced  bool
}

// Session holds two live endpoint connections plus best-effort metadata for
// the report header.
type Session struct {
	Params    Params
	ClientA   *evmrpc.Client
	ClientB   *evmrpc.Client
	ChainIDA  *big.Int // nil when the endpoint did not answer eth_chainId
	ChainIDB  *big.Int
	StartedAt time.Time

	metrics *observability.Metrics
}

// Result is the outcome of one run.
type Result struct {
	ValuesA    map[string]string
	ValuesB    map[string]string
	Mismatches []compare.Mismatch
	OK         bool
}

// Open dials both endpoints and probes connectivity on each before any
// storage is read. A failed probe reports which side failed.
func Open(ctx context.Context, p Params) (*Session, error) {
	metrics, err := observability.NewMetrics()
	if err != nil {
		return nil, fmt.Errorf("audit: metrics: %w", err)
	}

	opts := evmrpc.Options{Timeout: p.Timeout, Traced: p.Traced}

	clientA, err := evmrpc.Dial(ctx, p.RPCA, opts)
	if err != nil {
		return nil, fmt.Errorf("audit: connection failed for RPC A: %w", err)
	}
	if _, err := clientA.ClientVersion(ctx); err != nil {
		clientA.Close()
		return nil, fmt.Errorf("audit: connection failed for RPC A: %w", err)
	}

	clientB, err := evmrpc.Dial(ctx, p.RPCB, opts)
	if err != nil {
		clientA.Close()
		return nil, fmt.Errorf("audit: connection failed for RPC B: %w", err)
	}
	if _, err := clientB.ClientVersion(ctx); err != nil {
		clientA.Close()
		clientB.Close()
		return nil, fmt.Errorf("audit: connection failed for RPC B: %w", err)
	}

	s := &Session{
		Params:    p,
		ClientA:   clientA,
		ClientB:   clientB,
		StartedAt: time.Now().UTC(),
		metrics:   metrics,
	}

	// Chain IDs are display metadata only; an endpoint that refuses the
	// call still gets compared.
	if id, err := clientA.ChainID(ctx); err == nil {
		s.ChainIDA = id
	} else {
		slog.Debug("chain id lookup failed", "side", "a", "error", err)
	}
	if id, err := clientB.ChainID(ctx); err == nil {
		s.ChainIDB = id
	} else {
		slog.Debug("chain id lookup failed", "side", "b", "error", err)
	}

	return s, nil
}

// Close releases both endpoint connections.
func (s *Session) Close() {
	s.ClientA.Close()
	s.ClientB.Close()
}

// Run reads every slot from A, then every slot from B, and diffs the maps.
// Reads are strictly sequential.
func (s *Session) Run(ctx context.Context) *Result {
	p := s.Params

	slog.Info("reading slots", "side", "a", "endpoint", p.RPCA, "block", string(p.BlockA), "slots", len(p.Specs))
	valuesA := compare.ReadAll(ctx, s.ClientA, p.Address, p.BlockA, p.Specs)
	s.metrics.RecordReads(ctx, "a", len(p.Specs), compare.ErrorCount(valuesA))

	slog.Info("reading slots", "side", "b", "endpoint", p.RPCB, "block", string(p.BlockB), "slots", len(p.Specs))
	valuesB := compare.ReadAll(ctx, s.ClientB, p.Address, p.BlockB, p.Specs)
	s.metrics.RecordReads(ctx, "b", len(p.Specs), compare.ErrorCount(valuesB))

	mismatches, ok := compare.Compare(valuesA, valuesB)
	s.metrics.RecordMismatches(ctx, len(mismatches))
	if !ok {
		slog.Warn("storage mismatch detected", "mismatches", len(mismatches), "slots", len(p.Specs))
	}

	return &Result{
		ValuesA:    valuesA,
		ValuesB:    valuesB,
		Mismatches: mismatches,
		OK:         ok,
	}
}
