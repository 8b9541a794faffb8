// Package testutil provides a stub EVM JSON-RPC endpoint for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
)

// ZeroWord is the 32-byte zero storage value.
var ZeroWord = "0x" + strings.Repeat("0", 64)

// Word left-pads a hex quantity to a full 32-byte storage word.
func Word(quantity string) string {
	q := strings.TrimPrefix(strings.ToLower(quantity), "0x")
	return fmt.Sprintf("0x%064s", q)
}

// Call records one JSON-RPC request the stub served.
type Call struct {
	Method string
	Params []any
}

// StubRPC is a programmable in-process EVM JSON-RPC endpoint; serve it with
// httptest.NewServer. Storage is keyed by minimal slot index hex ("0x0",
// "0x1f"); unset slots read as the zero word.
type StubRPC struct {
	ChainID string            // eth_chainId result, hex quantity
	Version string            // web3_clientVersion result
	Storage map[string]string // slot index hex -> storage word
	Fail    map[string]bool   // methods answered with a JSON-RPC error

	mu    sync.Mutex
	calls []Call
}

// NewStubRPC returns a stub for chain ID 1 with empty storage.
func NewStubRPC() *StubRPC {
	return &StubRPC{
		ChainID: "0x1",
		Version: "stub/v0.1.0",
		Storage: make(map[string]string),
		Fail:    make(map[string]bool),
	}
}

// Calls returns the requests served so far.
func (s *StubRPC) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsTo returns the served requests for one method.
func (s *StubRPC) CallsTo(method string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  []any           `json:"params"`
}

func (s *StubRPC) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.calls = append(s.calls, Call{Method: req.Method, Params: req.Params})
	s.mu.Unlock()

	if s.Fail[req.Method] {
		writeRPCError(w, req.ID, fmt.Sprintf("stub: %s failed", req.Method))
		return
	}

	switch req.Method {
	case "web3_clientVersion":
		writeRPCResult(w, req.ID, s.Version)
	case "eth_chainId":
		writeRPCResult(w, req.ID, s.ChainID)
	case "eth_getStorageAt":
		if len(req.Params) < 3 {
			writeRPCError(w, req.ID, "stub: eth_getStorageAt wants address, slot, block")
			return
		}
		slot, _ := req.Params[1].(string)
		value, ok := s.Storage[slot]
		if !ok {
			value = ZeroWord
		}
		writeRPCResult(w, req.ID, value)
	default:
		writeRPCError(w, req.ID, fmt.Sprintf("stub: method %s not found", req.Method))
	}
}

func writeRPCResult(w http.ResponseWriter, id json.RawMessage, result any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  result,
	})
}

func writeRPCError(w http.ResponseWriter, id json.RawMessage, msg string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error":   map[string]any{"code": -32000, "message": msg},
	})
}
