// Package classify turns raw explorer records into human-scale amounts for
// the watched assets and decides which threshold applies to each.
package classify

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/chainsonar/chainsonar/internal/config"
	"github.com/chainsonar/chainsonar/internal/source/etherscan"
)

const (
	// NativeSymbol is the chain's base asset ticker.
	NativeSymbol = "ETH"
	// WrappedNativeSymbol tracks the native threshold rather than the
	// stablecoin one.
	WrappedNativeSymbol = "WETH"

	nativeDecimals = 18
)

// Asset is a watched asset with known decimal precision.
type Asset struct {
	Symbol   string
	Decimals int
}

// Classification is the interpreted form of a transfer record.
type Classification struct {
	Native bool
	Amount decimal.Decimal
	Symbol string
}

// Classifier resolves records against the token allow-list.
type Classifier struct {
	tokens map[common.Address]Asset
}

// New builds a classifier from the configured allow-list.
func New(tokens []config.Token) *Classifier {
	allow := make(map[common.Address]Asset, len(tokens))
	for _, t := range tokens {
		allow[common.HexToAddress(t.Contract)] = Asset{Symbol: t.Symbol, Decimals: t.Decimals}
	}
	return &Classifier{tokens: allow}
}

// Classify interprets a record. A record without a token symbol is a
// native transfer; a token record outside the allow-list is not
// classified (ok=false) and must be ignored by the caller. Values are
// scaled with exact decimal arithmetic, so 18-digit fractions survive.
func (c *Classifier) Classify(tx etherscan.Transaction) (*Classification, bool, error) {
	var symbol string
	decimals := nativeDecimals
	native := !tx.IsToken()

	if native {
		symbol = NativeSymbol
	} else {
		asset, watched := c.tokens[common.HexToAddress(tx.ContractAddress)]
		if !watched {
			return nil, false, nil
		}
		symbol = asset.Symbol
		decimals = asset.Decimals
	}

	raw, err := decimal.NewFromString(tx.Value)
	if err != nil {
		return nil, false, fmt.Errorf("parse value %q: %w", tx.Value, err)
	}
	amount := raw.Shift(int32(-decimals))

	return &Classification{Native: native, Amount: amount, Symbol: symbol}, true, nil
}

// Thresholds holds the alert floors per asset class.
type Thresholds struct {
	Eth    decimal.Decimal
	Stable decimal.Decimal
}

// NewThresholds builds thresholds from CLI-level floats.
func NewThresholds(eth, stable float64) Thresholds {
	return Thresholds{
		Eth:    decimal.NewFromFloat(eth),
		Stable: decimal.NewFromFloat(stable),
	}
}

// For returns the threshold for a symbol: native and wrapped-native share
// the ETH threshold, every other watched token uses the stable one.
func (t Thresholds) For(symbol string) decimal.Decimal {
	if symbol == NativeSymbol || symbol == WrappedNativeSymbol {
		return t.Eth
	}
	return t.Stable
}

// Qualifies reports whether an amount meets its symbol's threshold. The
// boundary is inclusive.
func (t Thresholds) Qualifies(amount decimal.Decimal, symbol string) bool {
	return amount.GreaterThanOrEqual(t.For(symbol))
}
