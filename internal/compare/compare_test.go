package compare

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chests-genuine/zk-slot-soundness/internal/connectors/evmrpc"
	"github.com/chests-genuine/zk-slot-soundness/internal/slotspec"
)

func TestCompare_AllMatch(t *testing.T) {
	a := map[string]string{"x": "0x1", "y": "0x2"}
	b := map[string]string{"x": "0x1", "y": "0x2"}

	mismatches, ok := Compare(a, b)
	assert.True(t, ok)
	assert.Empty(t, mismatches)
}

func TestCompare_SingleDivergence(t *testing.T) {
	a := map[string]string{"x": "0x1", "y": "0x2"}
	b := map[string]string{"x": "0x1", "y": "0x3"}

	mismatches, ok := Compare(a, b)
	assert.False(t, ok)
	assert.Equal(t, []Mismatch{{Label: "y", A: "0x2", B: "0x3"}}, mismatches)
}

func TestCompare_MissingOnOneSide(t *testing.T) {
	a := map[string]string{"x": "0x1"}
	b := map[string]string{}

	mismatches, ok := Compare(a, b)
	assert.False(t, ok)
	assert.Equal(t, []Mismatch{{Label: "x", A: "0x1", B: Missing}}, mismatches)
}

func TestCompare_SortedByLabel(t *testing.T) {
	a := map[string]string{"zed": "0x1", "abc": "0x1", "mid": "0x1"}
	b := map[string]string{"zed": "0x2", "abc": "0x2", "mid": "0x2"}

	mismatches, ok := Compare(a, b)
	assert.False(t, ok)
	require.Len(t, mismatches, 3)
	assert.Equal(t, "abc", mismatches[0].Label)
	assert.Equal(t, "mid", mismatches[1].Label)
	assert.Equal(t, "zed", mismatches[2].Label)
}

func TestCompare_BothEmpty(t *testing.T) {
	mismatches, ok := Compare(map[string]string{}, map[string]string{})
	assert.True(t, ok)
	assert.Empty(t, mismatches)
}

func TestCompare_ErrorMarkerDiverges(t *testing.T) {
	a := map[string]string{"x": "ERROR:connection reset"}
	b := map[string]string{"x": "0x1"}

	mismatches, ok := Compare(a, b)
	assert.False(t, ok)
	require.Len(t, mismatches, 1)
	assert.True(t, IsError(mismatches[0].A))
}

// stubReader serves canned values keyed by slot index hex.
type stubReader struct {
	values map[string]string
	errs   map[string]error
}

func (s *stubReader) StorageAt(_ context.Context, _ common.Address, slot *uint256.Int, _ evmrpc.BlockTag) (string, error) {
	if err := s.errs[slot.Hex()]; err != nil {
		return "", err
	}
	return s.values[slot.Hex()], nil
}

var readAddr = common.HexToAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")

func TestReadAll(t *testing.T) {
	r := &stubReader{values: map[string]string{"0x0": "0xaa", "0x1": "0xbb"}}
	specs := []slotspec.Spec{
		{Label: "admin", Index: uint256.NewInt(0)},
		{Label: "impl", Index: uint256.NewInt(1)},
	}

	values := ReadAll(context.Background(), r, readAddr, "latest", specs)
	assert.Equal(t, map[string]string{"admin": "0xaa", "impl": "0xbb"}, values)
}

func TestReadAll_CapturesErrors(t *testing.T) {
	r := &stubReader{
		values: map[string]string{"0x0": "0xaa"},
		errs:   map[string]error{"0x1": errors.New("boom")},
	}
	specs := []slotspec.Spec{
		{Label: "good", Index: uint256.NewInt(0)},
		{Label: "bad", Index: uint256.NewInt(1)},
	}

	values := ReadAll(context.Background(), r, readAddr, "latest", specs)
	assert.Equal(t, "0xaa", values["good"])
	assert.Equal(t, "ERROR:boom", values["bad"])
	assert.True(t, IsError(values["bad"]))
	assert.Equal(t, 1, ErrorCount(values))
}

func TestReadAll_DuplicateLabelOverwrites(t *testing.T) {
	r := &stubReader{values: map[string]string{"0x0": "0xaa", "0x1": "0xbb"}}
	specs := []slotspec.Spec{
		{Label: "same", Index: uint256.NewInt(0)},
		{Label: "same", Index: uint256.NewInt(1)},
	}

	values := ReadAll(context.Background(), r, readAddr, "latest", specs)
	assert.Equal(t, map[string]string{"same": "0xbb"}, values)
}

func TestIsError(t *testing.T) {
	assert.True(t, IsError("ERROR:timeout"))
	assert.False(t, IsError("0x0"))
	assert.False(t, IsError(Missing))
}
