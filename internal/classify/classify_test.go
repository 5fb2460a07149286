package classify

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/chainsonar/chainsonar/internal/config"
	"github.com/chainsonar/chainsonar/internal/source/etherscan"
)

func newTestClassifier() *Classifier {
	return New(config.DefaultTokens())
}

func TestClassifyNative(t *testing.T) {
	c := newTestClassifier()

	cl, ok, err := c.Classify(etherscan.Transaction{Value: "15000000000000000000"})
	if err != nil || !ok {
		t.Fatalf("classify: ok=%v err=%v", ok, err)
	}
	if !cl.Native || cl.Symbol != "ETH" {
		t.Fatalf("expected native ETH, got %+v", cl)
	}
	if !cl.Amount.Equal(decimal.RequireFromString("15")) {
		t.Fatalf("amount = %s, want 15", cl.Amount)
	}
}

func TestClassifyWatchedToken(t *testing.T) {
	c := newTestClassifier()

	cl, ok, err := c.Classify(etherscan.Transaction{
		Value:           "25000000",
		ContractAddress: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", // USDC, mixed case on purpose
		TokenSymbol:     "USDC",
		TokenDecimal:    "6",
	})
	if err != nil || !ok {
		t.Fatalf("classify: ok=%v err=%v", ok, err)
	}
	if cl.Native || cl.Symbol != "USDC" {
		t.Fatalf("expected USDC token, got %+v", cl)
	}
	if !cl.Amount.Equal(decimal.RequireFromString("25")) {
		t.Fatalf("amount = %s, want 25", cl.Amount)
	}
}

func TestClassifyUnwatchedToken(t *testing.T) {
	c := newTestClassifier()

	_, ok, err := c.Classify(etherscan.Transaction{
		Value:           "999999999999999999999999",
		ContractAddress: "0x6b175474e89094c44da98b954eedeac495271d0f", // DAI, not allow-listed
		TokenSymbol:     "DAI",
	})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if ok {
		t.Fatal("unwatched token must not classify, regardless of amount")
	}
}

func TestClassifyPrecision(t *testing.T) {
	c := newTestClassifier()

	// 1 wei short of 2 ETH; float64 would round this away.
	cl, ok, err := c.Classify(etherscan.Transaction{Value: "1999999999999999999"})
	if err != nil || !ok {
		t.Fatalf("classify: ok=%v err=%v", ok, err)
	}
	if !cl.Amount.Equal(decimal.RequireFromString("1.999999999999999999")) {
		t.Fatalf("amount = %s, precision lost", cl.Amount)
	}
	if cl.Amount.GreaterThanOrEqual(decimal.NewFromInt(2)) {
		t.Fatal("1 wei below 2 ETH must stay below 2")
	}
}

func TestClassifyMalformedValue(t *testing.T) {
	c := newTestClassifier()
	if _, _, err := c.Classify(etherscan.Transaction{Value: "not-a-number"}); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestThresholdSelection(t *testing.T) {
	th := NewThresholds(10.0, 20000.0)

	if !th.For("ETH").Equal(decimal.NewFromInt(10)) {
		t.Fatalf("ETH threshold = %s", th.For("ETH"))
	}
	if !th.For("WETH").Equal(decimal.NewFromInt(10)) {
		t.Fatal("WETH must share the native threshold")
	}
	if !th.For("USDC").Equal(decimal.NewFromInt(20000)) {
		t.Fatalf("USDC threshold = %s", th.For("USDC"))
	}
	if !th.For("USDT").Equal(decimal.NewFromInt(20000)) {
		t.Fatalf("USDT threshold = %s", th.For("USDT"))
	}
}

func TestThresholdBoundaryInclusive(t *testing.T) {
	th := NewThresholds(10.0, 20000.0)

	if !th.Qualifies(decimal.NewFromInt(10), "ETH") {
		t.Fatal("amount equal to threshold must qualify")
	}
	if th.Qualifies(decimal.RequireFromString("9.999999999999999999"), "ETH") {
		t.Fatal("amount below threshold must not qualify")
	}
	if !th.Qualifies(decimal.NewFromInt(20000), "USDT") {
		t.Fatal("stable boundary must be inclusive too")
	}
}
