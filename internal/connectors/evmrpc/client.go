// Package evmrpc provides a JSON-RPC client for raw EVM storage reads,
// satisfying compare.StorageReader.
package evmrpc

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Client reads contract storage from one EVM JSON-RPC endpoint.
type Client struct {
	url string
	rpc *rpc.Client
	eth *ethclient.Client
}

// Options controls the HTTP client built by Dial.
type Options struct {
	// Timeout bounds each individual request. Zero means no limit.
	Timeout time.Duration
	// Traced wraps the transport with OTel HTTP client spans.
	Traced bool
}

// Dial connects to an EVM JSON-RPC endpoint over HTTP(S).
func Dial(ctx context.Context, url string, opts Options) (*Client, error) {
	if err := ValidateURL(url); err != nil {
		return nil, err
	}
	transport := http.DefaultTransport
	if opts.Traced {
		transport = otelhttp.NewTransport(http.DefaultTransport)
	}
	rc, err := rpc.DialOptions(ctx, url, rpc.WithHTTPClient(&http.Client{
		Timeout:   opts.Timeout,
		Transport: transport,
	}))
	if err != nil {
		return nil, fmt.Errorf("evmrpc: dial %s: %w", url, err)
	}
	return &Client{url: url, rpc: rc, eth: ethclient.NewClient(rc)}, nil
}

// URL returns the endpoint this client was dialed with.
func (c *Client) URL() string { return c.url }

// Close releases the underlying connection.
func (c *Client) Close() { c.rpc.Close() }

// ClientVersion asks the endpoint for its software version. It doubles as
// the connectivity probe issued before any storage reads.
func (c *Client) ClientVersion(ctx context.Context) (string, error) {
	var version string
	if err := c.rpc.CallContext(ctx, &version, "web3_clientVersion"); err != nil {
		return "", fmt.Errorf("evmrpc: client version %s: %w", c.url, err)
	}
	return version, nil
}

// ChainID returns the chain ID reported by the endpoint.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	id, err := c.eth.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("evmrpc: chain id %s: %w", c.url, err)
	}
	return id, nil
}

// StorageAt reads one raw storage slot of addr at the given block. The
// result is canonicalized to a 32-byte lowercase 0x-hex string regardless
// of how many bytes the endpoint returned.
func (c *Client) StorageAt(ctx context.Context, addr common.Address, slot *uint256.Int, block BlockTag) (string, error) {
	var value hexutil.Bytes
	if err := c.rpc.CallContext(ctx, &value, "eth_getStorageAt", addr, slot.Hex(), string(block)); err != nil {
		return "", fmt.Errorf("evmrpc: storage %s slot %s: %w", c.url, slot.Hex(), err)
	}
	return common.BytesToHash(value).Hex(), nil
}
