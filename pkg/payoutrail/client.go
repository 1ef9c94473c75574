package payoutrail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrRejected means the signer refused the transfer before broadcasting it
	ErrRejected = errors.New("transfer rejected")
	// ErrInsufficientFunds means the pool wallet cannot cover the transfer
	ErrInsufficientFunds = errors.New("insufficient funds in pool wallet")
	// ErrMalformedResponse means the signer answered but the answer could not be understood
	ErrMalformedResponse = errors.New("malformed payout response")
	// ErrOutcomeUnknown means the transfer may or may not have been broadcast
	ErrOutcomeUnknown = errors.New("transfer outcome unknown")
)

// TransferRequest is a single value transfer from the pool wallet
type TransferRequest struct {
	Destination string `json:"destination"`
	Lamports    int64  `json:"lamports"`
	Reference   string `json:"reference"` // draw slot, lets the signer reject replays
}

// Client talks to the payout signer service, which holds the pool wallet key,
// signs the transfer and broadcasts it.
type Client struct {
	BaseURL string
	APIKey  string
	MockAPI bool
	client  *http.Client
}

// NewClient creates a new payout signer client
func NewClient(baseURL, apiKey string, mockAPI bool) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		MockAPI: mockAPI,
		// the caller bounds each transfer with its context deadline
		client: &http.Client{},
	}
}

type transferResponse struct {
	Signature string `json:"signature"`
	Error     string `json:"error"`
	Code      string `json:"code"`
}

// Transfer submits the transfer and returns the transaction signature
func (c *Client) Transfer(ctx context.Context, req TransferRequest) (string, error) {
	if req.Lamports <= 0 {
		return "", fmt.Errorf("%w: amount must be positive", ErrRejected)
	}
	if req.Destination == "" {
		return "", fmt.Errorf("%w: destination wallet is empty", ErrRejected)
	}
	if c.MockAPI {
		return c.mockTransfer(ctx, req)
	}

	jsonBody, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/transfers", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-Key", c.APIKey)
	httpReq.Header.Set("Idempotency-Key", req.Reference)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		// the request may have reached the signer before the failure
		return "", fmt.Errorf("%w: %w", ErrOutcomeUnknown, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response body: %w", ErrOutcomeUnknown, err)
	}

	var response transferResponse
	_ = json.Unmarshal(body, &response)

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		// accepted by the signer, so the transfer may already be on chain
		if response.Signature == "" {
			return "", fmt.Errorf("%w: %w: status %d without signature: %s", ErrOutcomeUnknown, ErrMalformedResponse, resp.StatusCode, truncate(body))
		}
		return response.Signature, nil
	case resp.StatusCode == http.StatusPaymentRequired || response.Code == "insufficient_funds":
		return "", fmt.Errorf("%w: %s", ErrInsufficientFunds, errorText(response, body))
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return "", fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, errorText(response, body))
	default:
		return "", fmt.Errorf("%w: status %d: %s", ErrOutcomeUnknown, resp.StatusCode, errorText(response, body))
	}
}

// mockTransfer simulates a signer for local runs
func (c *Client) mockTransfer(ctx context.Context, req TransferRequest) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %w", ErrOutcomeUnknown, ctx.Err())
	default:
	}
	return fmt.Sprintf("MOCK-%s-%d", req.Reference, time.Now().UnixNano()), nil
}

func errorText(response transferResponse, body []byte) string {
	if response.Error != "" {
		return response.Error
	}
	return truncate(body)
}

func truncate(body []byte) string {
	const max = 256
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
