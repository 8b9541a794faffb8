package tests

import (
	"bytes"
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/chests-genuine/zk-slot-soundness/internal/audit"
	"github.com/chests-genuine/zk-slot-soundness/internal/compare"
	"github.com/chests-genuine/zk-slot-soundness/internal/report"
	"github.com/chests-genuine/zk-slot-soundness/internal/slotspec"
	"github.com/chests-genuine/zk-slot-soundness/internal/testutil"
)

func goldenDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "golden")
}

// fixedSession pins every run-dependent field so renderings are reproducible.
func fixedSession() *audit.Session {
	return &audit.Session{
		Params: audit.Params{
			Address: common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"),
			RPCA:    "https://rpc-a.example",
			RPCB:    "https://rpc-b.example",
			BlockA:  "latest",
			BlockB:  "0x1234",
			Specs: []slotspec.Spec{
				{Label: "owner", Index: uint256.NewInt(0)},
				{Label: "totalSupply", Index: uint256.NewInt(2)},
			},
		},
		ChainIDA:  big.NewInt(1),
		ChainIDB:  big.NewInt(42161),
		StartedAt: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
	}
}

func fixedResult() *audit.Result {
	return &audit.Result{
		ValuesA: map[string]string{
			"owner":       testutil.Word("1"),
			"totalSupply": testutil.Word("64"),
		},
		ValuesB: map[string]string{
			"owner":       testutil.Word("1"),
			"totalSupply": testutil.Word("65"),
		},
		Mismatches: []compare.Mismatch{
			{Label: "totalSupply", A: testutil.Word("64"), B: testutil.Word("65")},
		},
		OK: false,
	}
}

// TestContractFixturesExist verifies the golden output fixtures exist.
func TestContractFixturesExist(t *testing.T) {
	t.Parallel()
	dir := goldenDir()
	expected := []string{
		"report_human.txt",
		"report.json",
	}
	for _, name := range expected {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); os.IsNotExist(err) {
				t.Errorf("missing golden fixture: %s", name)
			}
		})
	}
}

// TestContractFixturesValidJSON verifies each JSON fixture is valid JSON.
func TestContractFixturesValidJSON(t *testing.T) {
	t.Parallel()
	dir := goldenDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read golden dir: %v", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".json" {
			continue
		}
		t.Run(e.Name(), func(t *testing.T) {
			t.Parallel()
			data, err := os.ReadFile(filepath.Join(dir, e.Name()))
			if err != nil {
				t.Fatalf("read %s: %v", e.Name(), err)
			}
			if !json.Valid(data) {
				t.Errorf("%s is not valid JSON", e.Name())
			}
		})
	}
}

// TestContractHumanReport pins the human-readable output format. Scripts
// grep these lines; changing them is a breaking change.
func TestContractHumanReport(t *testing.T) {
	t.Parallel()
	s, res := fixedSession(), fixedResult()

	var buf bytes.Buffer
	report.WriteHeader(&buf, s)
	report.WriteComparison(&buf, s.Params.Specs, res)
	report.WriteSummary(&buf, len(res.Mismatches), len(s.Params.Specs))

	want, err := os.ReadFile(filepath.Join(goldenDir(), "report_human.txt"))
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	if buf.String() != string(want) {
		t.Errorf("human report drifted from golden\ngot:\n%s\nwant:\n%s", buf.String(), want)
	}
}

// TestContractJSONReport pins the machine-readable output byte for byte.
func TestContractJSONReport(t *testing.T) {
	t.Parallel()
	s, res := fixedSession(), fixedResult()
	rep := report.Build(s, res)

	var buf bytes.Buffer
	if err := report.WriteJSON(&buf, rep); err != nil {
		t.Fatalf("write json: %v", err)
	}

	want, err := os.ReadFile(filepath.Join(goldenDir(), "report.json"))
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	if buf.String() != string(want) {
		t.Errorf("json report drifted from golden\ngot:\n%s\nwant:\n%s", buf.String(), want)
	}
}

// TestContractJSONKeySet verifies the exact top-level key set downstream
// consumers bind to.
func TestContractJSONKeySet(t *testing.T) {
	t.Parallel()
	data, err := json.Marshal(report.Build(fixedSession(), fixedResult()))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	var keys []string
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	want := []string{
		"address", "block_a", "block_b", "mismatches", "ok",
		"rpc_a", "rpc_b", "slots", "values_a", "values_b",
	}
	if len(keys) != len(want) {
		t.Fatalf("key set changed: got %v, want %v", keys, want)
	}
	for i, k := range want {
		if keys[i] != k {
			t.Errorf("key[%d] = %q, want %q", i, keys[i], k)
		}
	}
}
