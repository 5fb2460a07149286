package etherscan

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// endBlockLatest is the explorer's sentinel for "up to the latest block".
const endBlockLatest = "99999999"

// Client wraps the Etherscan account API.
type Client struct {
	http   *resty.Client
	apiKey string
}

// NewClient builds a client against the given API base URL.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		http:   resty.New().SetBaseURL(baseURL).SetTimeout(timeout),
		apiKey: apiKey,
	}
}

// FetchTransactions returns native transfers followed by token transfers
// for an address, both bounded below by startBlock (inclusive) and sorted
// descending by block number. startBlock 0 means genesis. An address with
// no activity yields an empty slice, not an error.
func (c *Client) FetchTransactions(ctx context.Context, address string, startBlock uint64) ([]Transaction, error) {
	native, err := c.list(ctx, "txlist", address, startBlock)
	if err != nil {
		return nil, err
	}
	tokens, err := c.list(ctx, "tokentx", address, startBlock)
	if err != nil {
		return nil, err
	}
	return append(native, tokens...), nil
}

func (c *Client) list(ctx context.Context, action, address string, startBlock uint64) ([]Transaction, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"module":     "account",
			"action":     action,
			"address":    address,
			"startblock": strconv.FormatUint(startBlock, 10),
			"endblock":   endBlockLatest,
			"sort":       "desc",
			"apikey":     c.apiKey,
		}).
		Get("")
	if err != nil {
		return nil, fmt.Errorf("fetch %s for %s: %w", action, address, err)
	}
	if resp.StatusCode() >= 400 {
		return nil, &APIError{Action: action, Message: fmt.Sprintf("http status %d", resp.StatusCode())}
	}

	var envelope struct {
		Status  string          `json:"status"`
		Message string          `json:"message"`
		Result  json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", action, err)
	}

	// Absent or null result means no transactions, not a failure.
	if len(envelope.Result) == 0 || string(envelope.Result) == "null" {
		return nil, nil
	}

	var txs []Transaction
	if err := json.Unmarshal(envelope.Result, &txs); err != nil {
		// The API reports rejections as a string result with status 0.
		var msg string
		if json.Unmarshal(envelope.Result, &msg) == nil {
			return nil, &APIError{Action: action, Message: msg}
		}
		return nil, fmt.Errorf("decode %s result: %w", action, err)
	}
	return txs, nil
}

// Ping checks API reachability and key validity via the proxy module.
func (c *Client) Ping(ctx context.Context) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"module": "proxy",
			"action": "eth_blockNumber",
			"apikey": c.apiKey,
		}).
		Get("")
	if err != nil {
		return "", fmt.Errorf("ping explorer: %w", err)
	}
	if resp.StatusCode() >= 400 {
		return "", &APIError{Action: "eth_blockNumber", Message: fmt.Sprintf("http status %d", resp.StatusCode())}
	}

	var body struct {
		Result string `json:"result"`
		Error  *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return "", fmt.Errorf("decode ping response: %w", err)
	}
	if body.Error != nil {
		return "", &APIError{Action: "eth_blockNumber", Message: body.Error.Message}
	}
	if body.Result == "" {
		return "", &APIError{Action: "eth_blockNumber", Message: "empty block number result"}
	}
	return body.Result, nil
}
