package evmrpc

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ParseAddress validates an account address and normalizes it to its
// mixed-case checksum form. All-lowercase and all-uppercase hex is accepted
// as written; mixed-case input must match its EIP-55 checksum.
func ParseAddress(raw string) (common.Address, error) {
	s := strings.TrimSpace(raw)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("evmrpc: invalid account address: %s", raw)
	}
	addr := common.HexToAddress(s)

	hex := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if hex != strings.ToLower(hex) && hex != strings.ToUpper(hex) {
		if hex != strings.TrimPrefix(addr.Hex(), "0x") {
			return common.Address{}, fmt.Errorf("evmrpc: address checksum mismatch: %s", raw)
		}
	}
	return addr, nil
}

// ValidateURL checks that an RPC endpoint URL uses http or https.
func ValidateURL(raw string) error {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return fmt.Errorf("evmrpc: invalid RPC URL (want http:// or https://): %s", raw)
	}
	return nil
}
