// Package evm provides a JSON-RPC 2.0 HTTP client for EVM chains
// (Base, Avalanche): transfer-log queries, block timestamps, and ERC-20
// balance reads.
package evm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/big"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// TransferTopic is the keccak256 hash of Transfer(address,address,uint256).
const TransferTopic = "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"

// DefaultTimeout bounds each HTTP request.
const DefaultTimeout = 30 * time.Second

// Client is an EVM JSON-RPC HTTP client.
type Client struct {
	endpoint  string
	client    *http.Client
	requestID atomic.Uint64
}

// NewClient creates a new EVM RPC client.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		client:   &http.Client{Timeout: DefaultTimeout},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

func (c *Client) call(ctx context.Context, method string, params []any, result any) error {
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("unmarshal result: %w", err)
		}
	}
	return nil
}

// Log is one event log entry from eth_getLogs.
type Log struct {
	Address     string   `json:"address"`
	Topics      []string `json:"topics"`
	Data        string   `json:"data"`
	BlockNumber string   `json:"blockNumber"` // hex
	TxHash      string   `json:"transactionHash"`
	LogIndex    string   `json:"logIndex"` // hex
}

// TransferLogs retrieves ERC-20 Transfer logs where the wallet appears as
// sender or recipient within [fromBlock, "latest"].
func (c *Client) TransferLogs(ctx context.Context, wallet string, fromBlock int64) ([]Log, error) {
	paddedWallet := padTopicAddress(wallet)
	from := fmt.Sprintf("0x%x", fromBlock)

	var sent, received []Log

	// Wallet as sender (topic1).
	err := c.call(ctx, "eth_getLogs", []any{map[string]any{
		"fromBlock": from,
		"toBlock":   "latest",
		"topics":    []any{TransferTopic, paddedWallet},
	}}, &sent)
	if err != nil {
		return nil, fmt.Errorf("get sent transfer logs: %w", err)
	}

	// Wallet as recipient (topic2).
	err = c.call(ctx, "eth_getLogs", []any{map[string]any{
		"fromBlock": from,
		"toBlock":   "latest",
		"topics":    []any{TransferTopic, nil, paddedWallet},
	}}, &received)
	if err != nil {
		return nil, fmt.Errorf("get received transfer logs: %w", err)
	}

	return append(sent, received...), nil
}

// BlockTimestamp returns the Unix timestamp of a block.
func (c *Client) BlockTimestamp(ctx context.Context, blockNumberHex string) (int64, error) {
	var result struct {
		Timestamp string `json:"timestamp"`
	}
	if err := c.call(ctx, "eth_getBlockByNumber", []any{blockNumberHex, false}, &result); err != nil {
		return 0, err
	}
	return ParseHexInt(result.Timestamp)
}

// ERC20BalanceOf returns the wallet's token balance in UI units.
func (c *Client) ERC20BalanceOf(ctx context.Context, token, wallet string) (float64, error) {
	// balanceOf(address) selector is 0x70a08231.
	data := "0x70a08231" + strings.TrimPrefix(padTopicAddress(wallet), "0x")

	var raw string
	err := c.call(ctx, "eth_call", []any{
		map[string]any{"to": token, "data": data},
		"latest",
	}, &raw)
	if err != nil {
		return 0, fmt.Errorf("call balanceOf: %w", err)
	}

	decimals, err := c.TokenDecimals(ctx, token)
	if err != nil {
		return 0, err
	}
	return ParseHexAmount(raw, decimals)
}

// TokenDecimals reads the token's decimals() value.
func (c *Client) TokenDecimals(ctx context.Context, token string) (int, error) {
	// decimals() selector is 0x313ce567.
	var raw string
	err := c.call(ctx, "eth_call", []any{
		map[string]any{"to": token, "data": "0x313ce567"},
		"latest",
	}, &raw)
	if err != nil {
		return 0, fmt.Errorf("call decimals: %w", err)
	}
	d, err := ParseHexInt(raw)
	if err != nil {
		return 0, err
	}
	return int(d), nil
}

// ParseHexInt parses a 0x-prefixed hex quantity into an int64.
func ParseHexInt(s string) (int64, error) {
	trimmed := strings.TrimPrefix(s, "0x")
	if trimmed == "" {
		return 0, fmt.Errorf("empty hex quantity")
	}
	n, ok := new(big.Int).SetString(trimmed, 16)
	if !ok {
		return 0, fmt.Errorf("invalid hex quantity %q", s)
	}
	return n.Int64(), nil
}

// ParseHexAmount parses a 0x-prefixed hex amount into UI units using the
// token's decimals.
func ParseHexAmount(s string, decimals int) (float64, error) {
	trimmed := strings.TrimPrefix(s, "0x")
	if trimmed == "" {
		return 0, nil
	}
	n, ok := new(big.Int).SetString(trimmed, 16)
	if !ok {
		return 0, fmt.Errorf("invalid hex amount %q", s)
	}
	f, _ := new(big.Float).SetInt(n).Float64()
	return f / math.Pow10(decimals), nil
}

// padTopicAddress left-pads an address to a 32-byte topic value.
func padTopicAddress(addr string) string {
	trimmed := strings.ToLower(strings.TrimPrefix(addr, "0x"))
	return "0x" + strings.Repeat("0", 64-len(trimmed)) + trimmed
}

// TopicAddress extracts the 20-byte address from a 32-byte topic value.
func TopicAddress(topic string) string {
	trimmed := strings.TrimPrefix(topic, "0x")
	if len(trimmed) < 40 {
		return ""
	}
	return "0x" + strings.ToLower(trimmed[len(trimmed)-40:])
}
