package registry

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Target is a watched wallet with an in-memory scan watermark.
type Target struct {
	Address string // normalized lowercase
	Name    string

	lastSeenBlock uint64
	hasWatermark  bool
}

// Watermark returns the last-seen block and whether one is set.
func (t *Target) Watermark() (uint64, bool) {
	return t.lastSeenBlock, t.hasWatermark
}

// Advance moves the watermark forward. A block at or below the current
// watermark leaves it unchanged, so the watermark never decreases.
func (t *Target) Advance(block uint64) bool {
	if t.hasWatermark && block <= t.lastSeenBlock {
		return false
	}
	t.lastSeenBlock = block
	t.hasWatermark = true
	return true
}

// IsIncoming reports whether a transfer to the given address lands on this
// target, comparing case-insensitively.
func (t *Target) IsIncoming(to string) bool {
	return to != "" && strings.EqualFold(to, t.Address)
}

// Registry holds watched targets in file order with address lookup.
type Registry struct {
	targets []*Target
	index   map[string]*Target
}

// Load reads the targets file. A missing file is a configuration error.
func Load(path string, log *slog.Logger) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open targets file %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f, log)
}

// Parse reads `address[, name]` lines. Blank lines and #-comments are
// skipped. Addresses are lowercased; a missing name defaults to a
// truncated form of the address. Duplicate addresses: last occurrence
// wins and is logged. Zero targets is a configuration error.
func Parse(r io.Reader, log *slog.Logger) (*Registry, error) {
	reg := &Registry{index: map[string]*Target{}}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		address := strings.ToLower(strings.TrimSpace(parts[0]))
		name := ShortAddr(address)
		if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
			name = strings.TrimSpace(parts[1])
		}

		if log != nil && !common.IsHexAddress(address) {
			log.Warn("target address is not a hex address", "address", address)
		}

		if existing, ok := reg.index[address]; ok {
			if log != nil {
				log.Warn("duplicate target address, last entry wins", "address", address, "name", name)
			}
			existing.Name = name
			continue
		}

		t := &Target{Address: address, Name: name}
		reg.targets = append(reg.targets, t)
		reg.index[address] = t
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read targets: %w", err)
	}

	if len(reg.targets) == 0 {
		return nil, fmt.Errorf("targets file has no addresses")
	}
	return reg, nil
}

// Targets returns watched targets in file order.
func (r *Registry) Targets() []*Target { return r.targets }

// Len returns the number of watched targets.
func (r *Registry) Len() int { return len(r.targets) }

// Lookup finds a target by address, case-insensitively.
func (r *Registry) Lookup(address string) (*Target, bool) {
	t, ok := r.index[strings.ToLower(address)]
	return t, ok
}

// ShortAddr truncates an address to its familiar 0x1234...abcd form.
func ShortAddr(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}
