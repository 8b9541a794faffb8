// Package compare reads storage slots from an endpoint into label-keyed
// value maps and diffs a pair of them.
package compare

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/chests-genuine/zk-slot-soundness/internal/connectors/evmrpc"
	"github.com/chests-genuine/zk-slot-soundness/internal/slotspec"
)

// Missing is the value recorded for a label absent on one side.
const Missing = "MISSING"

// errorPrefix marks values whose read failed; the rest is the error text.
const errorPrefix = "ERROR:"

// StorageReader is the single read operation the comparator needs.
type StorageReader interface {
	StorageAt(ctx context.Context, addr common.Address, slot *uint256.Int, block evmrpc.BlockTag) (string, error)
}

// Mismatch records one diverging label with both sides' values.
type Mismatch struct {
	Label string
	A     string
	B     string
}

// ReadAll reads every slot in order from one endpoint into a label-to-value
// map. A failed read does not abort the pass; the slot's value becomes an
// ERROR: marker and surfaces through the comparison instead.
func ReadAll(ctx context.Context, r StorageReader, addr common.Address, block evmrpc.BlockTag, specs []slotspec.Spec) map[string]string {
	values := make(map[string]string, len(specs))
	for _, s := range specs {
		v, err := r.StorageAt(ctx, addr, s.Index, block)
		if err != nil {
			slog.Warn("storage read failed", "label", s.Label, "slot", s.Index.Hex(), "block", string(block), "error", err)
			values[s.Label] = errorPrefix + err.Error()
			continue
		}
		slog.Debug("storage read", "label", s.Label, "slot", s.Index.Hex(), "block", string(block), "value", v)
		values[s.Label] = v
	}
	return values
}

// Compare diffs two label-to-value maps over the sorted union of their
// labels. A label absent on one side compares as the MISSING sentinel, so
// error markers and missing entries count as mismatches like any other
// inequality. Returns the mismatch list and true when it is empty.
func Compare(a, b map[string]string) ([]Mismatch, bool) {
	labels := make([]string, 0, len(a)+len(b))
	for k := range a {
		labels = append(labels, k)
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			labels = append(labels, k)
		}
	}
	sort.Strings(labels)

	var mismatches []Mismatch
	for _, k := range labels {
		va, ok := a[k]
		if !ok {
			va = Missing
		}
		vb, ok := b[k]
		if !ok {
			vb = Missing
		}
		if va != vb {
			mismatches = append(mismatches, Mismatch{Label: k, A: va, B: vb})
		}
	}
	return mismatches, len(mismatches) == 0
}

// IsError reports whether a recorded value is a read-error marker.
func IsError(v string) bool {
	return strings.HasPrefix(v, errorPrefix)
}

// ErrorCount counts read-error markers in a value map.
func ErrorCount(values map[string]string) int {
	n := 0
	for _, v := range values {
		if IsError(v) {
			n++
		}
	}
	return n
}
