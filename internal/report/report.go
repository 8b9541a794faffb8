// Package report renders the outcome of a comparison run for humans and
// machines.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	"github.com/chests-genuine/zk-slot-soundness/internal/audit"
	"github.com/chests-genuine/zk-slot-soundness/internal/compare"
	"github.com/chests-genuine/zk-slot-soundness/internal/slotspec"
)

// SlotRef is one requested slot in the machine-readable report. Index is
// minimal lowercase hex ("0x0", "0x1f").
type SlotRef struct {
	Label string `json:"label"`
	Index string `json:"index"`
}

// Report is the machine-readable result of one comparison run.
type Report struct {
	Address    string            `json:"address"`
	RPCA       string            `json:"rpc_a"`
	RPCB       string            `json:"rpc_b"`
	BlockA     string            `json:"block_a"`
	BlockB     string            `json:"block_b"`
	Slots      []SlotRef         `json:"slots"`
	ValuesA    map[string]string `json:"values_a"`
	ValuesB    map[string]string `json:"values_b"`
	Mismatches int               `json:"mismatches"`
	OK         bool              `json:"ok"`
}

// Build assembles the machine-readable report from a finished run.
func Build(s *audit.Session, res *audit.Result) *Report {
	p := s.Params
	slots := make([]SlotRef, len(p.Specs))
	for i, spec := range p.Specs {
		slots[i] = SlotRef{Label: spec.Label, Index: spec.Index.Hex()}
	}
	return &Report{
		Address:    p.Address.Hex(),
		RPCA:       p.RPCA,
		RPCB:       p.RPCB,
		BlockA:     string(p.BlockA),
		BlockB:     string(p.BlockB),
		Slots:      slots,
		ValuesA:    res.ValuesA,
		ValuesB:    res.ValuesB,
		Mismatches: len(res.Mismatches),
		OK:         res.OK,
	}
}

// WriteHeader prints the run banner. Chain ID lines appear only for
// endpoints that answered the lookup.
func WriteHeader(w io.Writer, s *audit.Session) {
	p := s.Params
	fmt.Fprintln(w, "zk-slot-soundness")
	if s.ChainIDA != nil {
		fmt.Fprintf(w, "Chain A ID: %s\n", s.ChainIDA)
	}
	if s.ChainIDB != nil {
		fmt.Fprintf(w, "Chain B ID: %s\n", s.ChainIDB)
	}
	fmt.Fprintf(w, "RPC A: %s\n", p.RPCA)
	fmt.Fprintf(w, "RPC B: %s\n", p.RPCB)
	fmt.Fprintf(w, "Address: %s\n", p.Address.Hex())
	fmt.Fprintf(w, "Block A: %s | Block B: %s\n", p.BlockA, p.BlockB)
	fmt.Fprintf(w, "Slots: %s\n", strings.Join(slotspec.Labels(p.Specs), ", "))
	fmt.Fprintf(w, "Comparison Timestamp: %s\n", s.StartedAt.Format(time.RFC3339))
}

// WriteComparison prints one line per requested slot in input order.
func WriteComparison(w io.Writer, specs []slotspec.Spec, res *audit.Result) {
	fmt.Fprintln(w, "\nComparison:")
	for _, s := range specs {
		va, ok := res.ValuesA[s.Label]
		if !ok {
			va = compare.Missing
		}
		vb, ok := res.ValuesB[s.Label]
		if !ok {
			vb = compare.Missing
		}
		status := "MATCH"
		if va != vb {
			status = "DIFF"
		}
		fmt.Fprintf(w, "  %-20s A:%s | B:%s  %s\n", s.Label, va, vb, status)
	}
}

// WriteSummary prints the verdict line.
func WriteSummary(w io.Writer, mismatches, total int) {
	if mismatches == 0 {
		fmt.Fprintln(w, "\nStorage soundness verified for all slots.")
		return
	}
	fmt.Fprintf(w, "\nStorage soundness mismatch in %d/%d slot(s).\n", mismatches, total)
}

// WriteJSON prints the report with two-space indentation.
func WriteJSON(w io.Writer, r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("report: marshal: %w", err)
	}
	if _, err := fmt.Fprintln(w, string(data)); err != nil {
		return fmt.Errorf("report: write: %w", err)
	}
	return nil
}

// WriteFile atomically writes the report JSON to path.
func WriteFile(path string, r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("report: marshal: %w", err)
	}
	data = append(data, '\n')
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	return nil
}
