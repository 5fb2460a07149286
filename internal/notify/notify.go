// Package notify emits alerts for qualifying transfers: a signal log line
// on stdout plus a best-effort desktop notification.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gen2brain/beeep"
	"github.com/shopspring/decimal"

	"github.com/chainsonar/chainsonar/internal/metrics"
	"github.com/chainsonar/chainsonar/internal/registry"
)

// SignalMarker prefixes every alert log line.
const SignalMarker = "🚨 SIGNAL DETECTED"

const appName = "ChainSonar"

// Event describes a qualifying transfer.
type Event struct {
	TargetName    string
	TargetAddress string
	Amount        decimal.Decimal
	Symbol        string
	TxHash        string
}

// Notifier delivers alerts for qualifying transfers.
type Notifier interface {
	Alert(ctx context.Context, ev Event) error
}

// AlertNotifier logs the signal and raises a desktop notification.
// Desktop delivery failures are logged as warnings and never returned;
// the log line is the delivery that matters.
type AlertNotifier struct {
	log     *slog.Logger
	txURL   string
	desktop bool
	mtr     *metrics.Metrics

	// swapped out in tests
	notifyFn func(title, message string) error
}

// New builds the standard notifier. txURL is the explorer transaction URL
// prefix the hash is appended to.
func New(log *slog.Logger, txURL string, desktop bool, mtr *metrics.Metrics) *AlertNotifier {
	return &AlertNotifier{
		log:     log,
		txURL:   txURL,
		desktop: desktop,
		mtr:     mtr,
		notifyFn: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
	}
}

// Alert emits the signal log line and, when enabled, a desktop
// notification.
func (n *AlertNotifier) Alert(ctx context.Context, ev Event) error {
	amount := ev.Amount.StringFixed(2)
	n.log.Info(SignalMarker,
		"target", ev.TargetName,
		"address", registry.ShortAddr(ev.TargetAddress),
		"amount", amount,
		"symbol", ev.Symbol,
		"tx", n.txURL+ev.TxHash,
	)

	if !n.desktop {
		return nil
	}

	title := fmt.Sprintf("📡 %s: signal from %s", appName, ev.TargetName)
	message := fmt.Sprintf("Incoming transfer of %s %s.", amount, ev.Symbol)
	if err := n.notifyFn(title, message); err != nil {
		n.log.Warn("desktop notification failed", "error", err)
		n.mtr.NotifyFailure()
	}
	return nil
}
