package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when --config is not given.
// The file is optional at the default path; defaults plus environment
// variables are enough to run.
const DefaultPath = "config.yaml"

// EnvAPIKey is the environment variable holding the Etherscan API key.
const EnvAPIKey = "ETHERSCAN_API_KEY"

// Config holds the YAML configuration.
type Config struct {
	Global GlobalConfig `yaml:"global"`
	API    APIConfig    `yaml:"api"`
	Scan   ScanConfig   `yaml:"scan"`
	Tokens []Token      `yaml:"tokens"`
}

type GlobalConfig struct {
	TargetsFile string `yaml:"targets_file"`
	DBPath      string `yaml:"db_path"`
}

type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	TxURL   string `yaml:"tx_url"`
	Key     string `yaml:"key"`
	Timeout string `yaml:"timeout"`
}

type ScanConfig struct {
	EthThreshold    float64 `yaml:"eth_threshold"`
	StableThreshold float64 `yaml:"stable_threshold"`
	TargetDelay     string  `yaml:"target_delay"`
	CycleDelay      string  `yaml:"cycle_delay"`
}

// Token is an allow-listed ERC-20 contract with known decimal precision.
type Token struct {
	Contract string `yaml:"contract"`
	Symbol   string `yaml:"symbol"`
	Decimals int    `yaml:"decimals"`
}

var envPattern = regexp.MustCompile(`\${([A-Za-z_][A-Za-z0-9_]*)}`)

// Load reads, interpolates env vars, parses YAML, applies defaults, and
// validates. A missing file at the default path is not an error; a missing
// file at an explicit path is.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	if err := loadDotEnv(path); err != nil {
		return nil, err
	}

	var cfg Config
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		interpolated, ierr := interpolateEnv(string(raw))
		if ierr != nil {
			return nil, ierr
		}
		if uerr := yaml.Unmarshal([]byte(interpolated), &cfg); uerr != nil {
			return nil, fmt.Errorf("parse config: %w", uerr)
		}
	case os.IsNotExist(err) && path == DefaultPath:
		// run on defaults + environment
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func loadDotEnv(configPath string) error {
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return fmt.Errorf("load .env: %w", err)
		}
	}
	return nil
}

func interpolateEnv(input string) (string, error) {
	missing := []string{}
	out := envPattern.ReplaceAllStringFunc(input, func(match string) string {
		name := envPattern.FindStringSubmatch(match)[1]
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		missing = append(missing, name)
		return match
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("missing environment variables: %s", strings.Join(dedup(missing), ", "))
	}
	return out, nil
}

// DefaultTokens is the built-in allow-list: wrapped ether plus the two
// major dollar stablecoins.
func DefaultTokens() []Token {
	return []Token{
		{Contract: "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2", Symbol: "WETH", Decimals: 18},
		{Contract: "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", Symbol: "USDC", Decimals: 6},
		{Contract: "0xdac17f958d2ee523a2206206994597c13d831ec7", Symbol: "USDT", Decimals: 6},
	}
}

func (c *Config) applyDefaults() {
	if c.Global.TargetsFile == "" {
		c.Global.TargetsFile = "whales.txt"
	}
	if c.Global.DBPath == "" {
		c.Global.DBPath = "chainsonar.db"
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = "https://api.etherscan.io/api"
	}
	if c.API.TxURL == "" {
		c.API.TxURL = "https://etherscan.io/tx/"
	}
	if c.API.Key == "" {
		c.API.Key = os.Getenv(EnvAPIKey)
	}
	if c.API.Timeout == "" {
		c.API.Timeout = "10s"
	}
	if c.Scan.EthThreshold == 0 {
		c.Scan.EthThreshold = 10.0
	}
	if c.Scan.StableThreshold == 0 {
		c.Scan.StableThreshold = 20000.0
	}
	if c.Scan.TargetDelay == "" {
		c.Scan.TargetDelay = "2s"
	}
	if c.Scan.CycleDelay == "" {
		c.Scan.CycleDelay = "15s"
	}
	if len(c.Tokens) == 0 {
		c.Tokens = DefaultTokens()
	}
}

// Validate performs small, direct schema checks.
func (c *Config) Validate() error {
	if c.API.Key == "" {
		return fmt.Errorf("etherscan api key is required (set %s or api.key)", EnvAPIKey)
	}
	if _, err := time.ParseDuration(c.API.Timeout); err != nil {
		return fmt.Errorf("api.timeout: %w", err)
	}
	if c.Scan.EthThreshold < 0 || c.Scan.StableThreshold < 0 {
		return errors.New("thresholds must not be negative")
	}
	if _, err := time.ParseDuration(c.Scan.TargetDelay); err != nil {
		return fmt.Errorf("scan.target_delay: %w", err)
	}
	if _, err := time.ParseDuration(c.Scan.CycleDelay); err != nil {
		return fmt.Errorf("scan.cycle_delay: %w", err)
	}

	contracts := map[string]struct{}{}
	for _, t := range c.Tokens {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("token %s: %w", t.Symbol, err)
		}
		key := strings.ToLower(t.Contract)
		if _, exists := contracts[key]; exists {
			return fmt.Errorf("duplicate token contract: %s", key)
		}
		contracts[key] = struct{}{}
	}
	return nil
}

func (t *Token) Validate() error {
	if t.Symbol == "" {
		return errors.New("symbol is required")
	}
	if !common.IsHexAddress(t.Contract) {
		return fmt.Errorf("invalid contract address: %q", t.Contract)
	}
	if t.Decimals < 0 || t.Decimals > 36 {
		return fmt.Errorf("decimals out of range: %d", t.Decimals)
	}
	return nil
}

// APITimeout returns the parsed HTTP timeout for explorer calls.
func (c *Config) APITimeout() time.Duration { return mustDuration(c.API.Timeout) }

// TargetDelay returns the pause between per-target scans.
func (c *Config) TargetDelay() time.Duration { return mustDuration(c.Scan.TargetDelay) }

// CycleDelay returns the pause between full scan cycles.
func (c *Config) CycleDelay() time.Duration { return mustDuration(c.Scan.CycleDelay) }

// mustDuration is safe after Validate.
func mustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

func dedup(values []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
