package rewards

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/shopspring/decimal"
)

// LamportsPerSOL is the number of lamports in one SOL
const LamportsPerSOL = 1_000_000_000

// ErrMalformedBalance is returned when the RPC answer has no usable balance
var ErrMalformedBalance = errors.New("malformed balance response")

// Client reads the rewards pool size. The whole balance of the pool wallet is the pool.
type Client struct {
	RPCEndpoint string
	PoolWallet  string
	MockPool    decimal.Decimal // used instead of the RPC when MockAPI is set
	MockAPI     bool
	client      *http.Client
}

// NewClient creates a new rewards oracle client
func NewClient(rpcEndpoint, poolWallet string, mockAPI bool, mockPool decimal.Decimal) *Client {
	return &Client{
		RPCEndpoint: rpcEndpoint,
		PoolWallet:  poolWallet,
		MockPool:    mockPool,
		MockAPI:     mockAPI,
		client:      &http.Client{},
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type balanceResponse struct {
	Result *struct {
		Value *int64 `json:"value"`
	} `json:"result"`
	Error *rpcError `json:"error"`
}

// PoolSize returns the current pool in SOL
func (c *Client) PoolSize(ctx context.Context) (decimal.Decimal, error) {
	if c.MockAPI {
		return c.MockPool, nil
	}
	lamports, err := c.balanceLamports(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return LamportsToSOL(lamports), nil
}

func (c *Client) balanceLamports(ctx context.Context) (int64, error) {
	payload := rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "getBalance",
		Params: []interface{}{
			c.PoolWallet,
			map[string]string{"commitment": "confirmed"},
		},
	}
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.RPCEndpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return 0, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("rpc request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var response balanceResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedBalance, err)
	}
	if response.Error != nil {
		return 0, fmt.Errorf("rpc error %d: %s", response.Error.Code, response.Error.Message)
	}
	if response.Result == nil || response.Result.Value == nil {
		return 0, ErrMalformedBalance
	}
	if *response.Result.Value < 0 {
		return 0, fmt.Errorf("%w: negative balance", ErrMalformedBalance)
	}
	return *response.Result.Value, nil
}

// LamportsToSOL converts lamports to SOL
func LamportsToSOL(lamports int64) decimal.Decimal {
	return decimal.New(lamports, -9)
}

// SOLToLamports converts SOL to lamports, truncating below one lamport
func SOLToLamports(sol decimal.Decimal) int64 {
	return sol.Shift(9).Truncate(0).IntPart()
}
