// Package engine drives the polling cycle: fetch per target, advance the
// watermark, classify, threshold-check, alert.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/chainsonar/chainsonar/internal/classify"
	"github.com/chainsonar/chainsonar/internal/metrics"
	"github.com/chainsonar/chainsonar/internal/notify"
	"github.com/chainsonar/chainsonar/internal/registry"
	"github.com/chainsonar/chainsonar/internal/source/etherscan"
	"github.com/chainsonar/chainsonar/internal/storage"
)

// Source yields transfer records for an address, bounded below by a
// start block.
type Source interface {
	FetchTransactions(ctx context.Context, address string, startBlock uint64) ([]etherscan.Transaction, error)
}

// Journal records emitted alerts. Optional.
type Journal interface {
	InsertAlert(ctx context.Context, a storage.Alert) error
}

// Options wires a Scanner.
type Options struct {
	Registry   *registry.Registry
	Source     Source
	Classifier *classify.Classifier
	Thresholds classify.Thresholds
	Notifier   notify.Notifier
	Journal    Journal
	Log        *slog.Logger
	Metrics    *metrics.Metrics
	DryRun     bool

	// TargetDelay paces consecutive per-target fetches; CycleDelay paces
	// full passes over the registry.
	TargetDelay time.Duration
	CycleDelay  time.Duration
}

// Scanner polls each watched target sequentially and alerts on qualifying
// incoming transfers. It owns all watermark mutation; there are no
// concurrent writers.
type Scanner struct {
	opts Options
}

// New builds a scanner.
func New(opts Options) *Scanner {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	return &Scanner{opts: opts}
}

// Run polls until ctx is cancelled. Cancellation is a clean shutdown, not
// an error.
func (s *Scanner) Run(ctx context.Context) error {
	log := s.opts.Log
	log.Info("📡 ChainSonar activated",
		"targets", s.opts.Registry.Len(),
		"eth_threshold", s.opts.Thresholds.Eth.String(),
		"stable_threshold", s.opts.Thresholds.Stable.String(),
	)

	for {
		if err := s.RunOnce(ctx); err != nil {
			log.Info("📡 ChainSonar deactivated")
			return nil
		}
		if err := sleepCtx(ctx, s.opts.CycleDelay); err != nil {
			log.Info("📡 ChainSonar deactivated")
			return nil
		}
	}
}

// RunOnce performs one full pass over all targets. It returns an error
// only when ctx is cancelled; per-target failures are logged and skipped
// so one bad address never halts the others.
func (s *Scanner) RunOnce(ctx context.Context) error {
	for _, tgt := range s.opts.Registry.Targets() {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := s.scanTarget(ctx, tgt); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.opts.Metrics.FetchError()
			s.opts.Log.Error("target scan failed, skipping this cycle",
				"target", tgt.Name, "address", tgt.Address, "error", err)
		}
		s.opts.Metrics.TargetScanned()

		if err := sleepCtx(ctx, s.opts.TargetDelay); err != nil {
			return err
		}
	}
	s.opts.Metrics.CycleCompleted()
	return nil
}

func (s *Scanner) scanTarget(ctx context.Context, tgt *registry.Target) error {
	start, _ := tgt.Watermark()
	txs, err := s.opts.Source.FetchTransactions(ctx, tgt.Address, start)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		return nil
	}

	// The first record is the most recent (both lists sort descending).
	// Advance even when nothing qualifies, so seen blocks are not
	// refetched forever; the watermark itself refuses to move backwards.
	if block, err := txs[0].Block(); err == nil {
		tgt.Advance(block)
	} else {
		s.opts.Log.Warn("unparseable block number on newest record",
			"target", tgt.Name, "error", err)
	}

	for _, tx := range txs {
		if !tgt.IsIncoming(tx.To) {
			continue
		}

		cl, ok, err := s.opts.Classifier.Classify(tx)
		if err != nil {
			s.opts.Log.Warn("skipping malformed record",
				"target", tgt.Name, "tx", tx.Hash, "error", err)
			continue
		}
		if !ok {
			continue
		}
		if !s.opts.Thresholds.Qualifies(cl.Amount, cl.Symbol) {
			continue
		}

		s.emit(ctx, tgt, tx.Hash, cl)
	}
	return nil
}

func (s *Scanner) emit(ctx context.Context, tgt *registry.Target, txHash string, cl *classify.Classification) {
	ev := notify.Event{
		TargetName:    tgt.Name,
		TargetAddress: tgt.Address,
		Amount:        cl.Amount,
		Symbol:        cl.Symbol,
		TxHash:        txHash,
	}

	if s.opts.DryRun {
		s.opts.Log.Info("qualifying transfer (dry-run, alert suppressed)",
			"target", tgt.Name, "amount", cl.Amount.StringFixed(2), "symbol", cl.Symbol, "tx", txHash)
		return
	}

	s.opts.Metrics.AlertSent()
	if err := s.opts.Notifier.Alert(ctx, ev); err != nil {
		s.opts.Log.Warn("notifier failed", "tx", txHash, "error", err)
	}

	if s.opts.Journal != nil {
		rec := storage.Alert{
			TxHash:        txHash,
			TargetAddress: tgt.Address,
			TargetName:    tgt.Name,
			Symbol:        cl.Symbol,
			Amount:        cl.Amount.StringFixed(2),
		}
		if err := s.opts.Journal.InsertAlert(ctx, rec); err != nil {
			s.opts.Log.Warn("alert journal write failed", "tx", txHash, "error", err)
		}
	}
}

// sleepCtx pauses for d or until ctx is cancelled, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
