package evmrpc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// BlockTag is a block identifier in wire form: a symbolic tag (latest,
// earliest, pending, safe, finalized) or a 0x-hex block height.
type BlockTag string

// ParseBlockTag normalizes a user-supplied block identifier. Decimal heights
// become 0x-hex; symbolic tags and canonical 0x-hex heights pass through.
func ParseBlockTag(raw string) (BlockTag, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "latest", "earliest", "pending", "safe", "finalized":
		return BlockTag(s), nil
	}
	if strings.HasPrefix(s, "0x") {
		if _, err := hexutil.DecodeUint64(s); err != nil {
			return "", fmt.Errorf("evmrpc: invalid block %q: %w", raw, err)
		}
		return BlockTag(s), nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return "", fmt.Errorf("evmrpc: invalid block %q (want a tag or block height)", raw)
	}
	return BlockTag(hexutil.EncodeUint64(n)), nil
}
