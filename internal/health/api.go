package health

import (
	"context"

	"github.com/chainsonar/chainsonar/internal/source/etherscan"
)

// APIChecker adapts the explorer client to a Checker ping.
type APIChecker struct {
	client *etherscan.Client
}

// NewAPIChecker creates a checker for the explorer API.
func NewAPIChecker(client *etherscan.Client) *APIChecker {
	return &APIChecker{client: client}
}

// Ping checks explorer reachability and key validity.
func (c *APIChecker) Ping(ctx context.Context) error {
	_, err := c.client.Ping(ctx)
	return err
}
