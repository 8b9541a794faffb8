// Package slotspec parses storage slot identifiers from CLI flags and
// manifest files.
package slotspec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// Spec identifies one storage slot to compare: a display label plus the
// 256-bit slot index. A bare hex argument uses the hex string itself as the
// label. Label uniqueness is not enforced; later duplicates overwrite
// earlier ones in the value maps.
type Spec struct {
	Label string
	Index *uint256.Int
}

// ParseHex parses a 0x-prefixed hex string into a 256-bit slot index.
// Surrounding whitespace and letter case are ignored; leading zeros in the
// payload are accepted.
func ParseHex(raw string) (*uint256.Int, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if !strings.HasPrefix(s, "0x") {
		return nil, fmt.Errorf("slotspec: slot must be 0x-prefixed hex: %s", raw)
	}
	digits := strings.TrimLeft(s[2:], "0")
	if digits == "" {
		if len(s) == 2 {
			return nil, fmt.Errorf("slotspec: invalid slot hex: %s", raw)
		}
		digits = "0"
	}
	idx, err := uint256.FromHex("0x" + digits)
	if err != nil {
		return nil, fmt.Errorf("slotspec: invalid slot hex: %s", raw)
	}
	return idx, nil
}

// ParseArg parses one --slot argument, either "label:0xHEX" or bare "0xHEX".
// The split is on the first colon, so labels themselves cannot contain one.
func ParseArg(arg string) (Spec, error) {
	label, raw := arg, arg
	if i := strings.Index(arg, ":"); i >= 0 {
		label, raw = arg[:i], arg[i+1:]
	}
	idx, err := ParseHex(raw)
	if err != nil {
		return Spec{}, err
	}
	return Spec{Label: label, Index: idx}, nil
}

// ParseArgs parses a repeated --slot flag list, preserving input order.
func ParseArgs(args []string) ([]Spec, error) {
	specs := make([]Spec, 0, len(args))
	for _, a := range args {
		s, err := ParseArg(a)
		if err != nil {
			return nil, err
		}
		specs = append(specs, s)
	}
	return specs, nil
}

// Collect resolves the slot list from the repeated --slot flags or, failing
// that, from a manifest file. Explicit --slot flags win over a manifest.
func Collect(slotArgs []string, manifestPath string) ([]Spec, error) {
	switch {
	case len(slotArgs) > 0:
		return ParseArgs(slotArgs)
	case manifestPath != "":
		return LoadManifest(manifestPath)
	default:
		return nil, errors.New("slotspec: no slots provided, use --slot (repeatable) or --manifest")
	}
}

// Labels returns the spec labels in input order.
func Labels(specs []Spec) []string {
	out := make([]string, len(specs))
	for i, s := range specs {
		out[i] = s.Label
	}
	return out
}
