// Package mcpserver exposes storage slot comparison via MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/chests-genuine/zk-slot-soundness/internal/audit"
	"github.com/chests-genuine/zk-slot-soundness/internal/config"
	"github.com/chests-genuine/zk-slot-soundness/internal/connectors/evmrpc"
	"github.com/chests-genuine/zk-slot-soundness/internal/report"
	"github.com/chests-genuine/zk-slot-soundness/internal/slotspec"
)

const defaultTimeout = 30 * time.Second

// RegisterTools registers all slot soundness MCP tools on the given server.
func RegisterTools(server *mcp.Server, cfg config.Config) {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "compare_storage",
			Description: "Compare raw contract storage slots between two EVM JSON-RPC endpoints byte for byte",
		},
		compareStorageHandler(cfg),
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "read_slot",
			Description: "Read one raw contract storage slot from an EVM JSON-RPC endpoint",
		},
		readSlotHandler(cfg),
	)
}

type compareStorageInput struct {
	Address        string   `json:"address"`
	RPCA           string   `json:"rpc_a,omitempty"`
	RPCB           string   `json:"rpc_b,omitempty"`
	BlockA         string   `json:"block_a,omitempty"`
	BlockB         string   `json:"block_b,omitempty"`
	Slots          []string `json:"slots"`
	TimeoutSeconds int      `json:"timeout_seconds,omitempty"`
}

func compareStorageHandler(cfg config.Config) mcp.ToolHandlerFor[compareStorageInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input compareStorageInput) (*mcp.CallToolResult, any, error) {
		if input.Address == "" {
			return errorResult("address is required"), nil, nil
		}
		if len(input.Slots) == 0 {
			return errorResult("slots is required"), nil, nil
		}

		addr, err := evmrpc.ParseAddress(input.Address)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		rpcA := orDefault(input.RPCA, cfg.DefaultRPCA)
		rpcB := orDefault(input.RPCB, cfg.DefaultRPCB)
		if err := evmrpc.ValidateURL(rpcA); err != nil {
			return errorResult(err.Error()), nil, nil
		}
		if err := evmrpc.ValidateURL(rpcB); err != nil {
			return errorResult(err.Error()), nil, nil
		}
		blockA, err := evmrpc.ParseBlockTag(orDefault(input.BlockA, "latest"))
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		blockB, err := evmrpc.ParseBlockTag(orDefault(input.BlockB, "latest"))
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		specs, err := slotspec.ParseArgs(input.Slots)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}

		sess, err := audit.Open(ctx, audit.Params{
			Address: addr,
			RPCA:    rpcA,
			RPCB:    rpcB,
			BlockA:  blockA,
			BlockB:  blockB,
			Specs:   specs,
			Timeout: timeoutFrom(input.TimeoutSeconds),
			Traced:  cfg.OTelEnabled,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("compare_storage: %w", err)
		}
		defer sess.Close()

		res := sess.Run(ctx)
		return textResult(report.Build(sess, res))
	}
}

type readSlotInput struct {
	RPCURL         string `json:"rpc_url,omitempty"`
	Address        string `json:"address"`
	Slot           string `json:"slot"`
	Block          string `json:"block,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

func readSlotHandler(cfg config.Config) mcp.ToolHandlerFor[readSlotInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input readSlotInput) (*mcp.CallToolResult, any, error) {
		if input.Address == "" || input.Slot == "" {
			return errorResult("address and slot are required"), nil, nil
		}

		addr, err := evmrpc.ParseAddress(input.Address)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		url := orDefault(input.RPCURL, cfg.DefaultRPCA)
		if err := evmrpc.ValidateURL(url); err != nil {
			return errorResult(err.Error()), nil, nil
		}
		block, err := evmrpc.ParseBlockTag(orDefault(input.Block, "latest"))
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		spec, err := slotspec.ParseArg(input.Slot)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}

		client, err := evmrpc.Dial(ctx, url, evmrpc.Options{
			Timeout: timeoutFrom(input.TimeoutSeconds),
			Traced:  cfg.OTelEnabled,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("read_slot: %w", err)
		}
		defer client.Close()

		value, err := client.StorageAt(ctx, addr, spec.Index, block)
		if err != nil {
			return nil, nil, fmt.Errorf("read_slot: %w", err)
		}

		return textResult(map[string]string{
			"address": addr.Hex(),
			"label":   spec.Label,
			"index":   spec.Index.Hex(),
			"block":   string(block),
			"value":   value,
		})
	}
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func timeoutFrom(seconds int) time.Duration {
	if seconds <= 0 {
		return defaultTimeout
	}
	return time.Duration(seconds) * time.Second
}

func textResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("marshal result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil, nil
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}
