package etherscan

import (
	"fmt"
	"strconv"
)

// Transaction is a raw explorer record. The account actions txlist and
// tokentx share these fields; token-only fields stay empty on native
// transfers.
type Transaction struct {
	BlockNumber     string `json:"blockNumber"`
	TimeStamp       string `json:"timeStamp"`
	Hash            string `json:"hash"`
	From            string `json:"from"`
	To              string `json:"to"`
	Value           string `json:"value"`
	ContractAddress string `json:"contractAddress"`
	TokenSymbol     string `json:"tokenSymbol"`
	TokenDecimal    string `json:"tokenDecimal"`
}

// IsToken reports whether the record came from the token-transfer list.
func (t Transaction) IsToken() bool {
	return t.TokenSymbol != ""
}

// Block parses the record's block number.
func (t Transaction) Block() (uint64, error) {
	n, err := strconv.ParseUint(t.BlockNumber, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse block number %q: %w", t.BlockNumber, err)
	}
	return n, nil
}

// APIError is a rejection payload from the explorer API (bad key, rate
// limit, malformed query).
type APIError struct {
	Action  string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("etherscan %s: %s", e.Action, e.Message)
}
