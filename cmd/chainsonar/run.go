package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/chainsonar/chainsonar/internal/classify"
	"github.com/chainsonar/chainsonar/internal/config"
	"github.com/chainsonar/chainsonar/internal/engine"
	"github.com/chainsonar/chainsonar/internal/health"
	"github.com/chainsonar/chainsonar/internal/logging"
	"github.com/chainsonar/chainsonar/internal/metrics"
	"github.com/chainsonar/chainsonar/internal/notify"
	"github.com/chainsonar/chainsonar/internal/registry"
	"github.com/chainsonar/chainsonar/internal/source/etherscan"
	"github.com/chainsonar/chainsonar/internal/storage"
	"github.com/spf13/cobra"
)

var (
	flagEthThreshold    float64
	flagStableThreshold float64
	flagOnce            bool
	flagDryRun          bool
	flagHealth          string
	flagMetrics         string
)

func init() {
	runCmd.Flags().Float64Var(&flagEthThreshold, "eth-threshold", 10.0, "Alert threshold for ETH/WETH transfers")
	runCmd.Flags().Float64Var(&flagStableThreshold, "stable-threshold", 20000.0, "Alert threshold for stablecoin transfers")
	runCmd.Flags().BoolVar(&flagOnce, "once", false, "Process one scan cycle and exit")
	runCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Do not notify or journal, log qualifying transfers only")
	runCmd.Flags().StringVar(&flagHealth, "health", "", "Health check HTTP address (e.g., :8080)")
	runCmd.Flags().StringVar(&flagMetrics, "metrics", "", "Metrics HTTP address (e.g., :9090)")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the whale scanner",
	RunE: func(cmd *cobra.Command, args []string) error {
		logLevel := os.Getenv("LOG_LEVEL")
		if logLevel == "" {
			logLevel = "info"
		}
		log := logging.NewWithLevel(logLevel)
		ctx := cmd.Context()

		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		// explicit flags beat the config file
		if cmd.Flags().Changed("eth-threshold") {
			cfg.Scan.EthThreshold = flagEthThreshold
		}
		if cmd.Flags().Changed("stable-threshold") {
			cfg.Scan.StableThreshold = flagStableThreshold
		}

		reg, err := registry.Load(cfg.Global.TargetsFile, log)
		if err != nil {
			return fmt.Errorf("load targets: %w", err)
		}
		log.Info("targets loaded", "count", reg.Len(), "file", cfg.Global.TargetsFile)

		client := etherscan.NewClient(cfg.API.BaseURL, cfg.API.Key, cfg.APITimeout())

		var store *storage.Store
		var journal engine.Journal
		if !flagDryRun {
			store, err = storage.Open(cfg.Global.DBPath)
			if err != nil {
				return fmt.Errorf("open alert journal: %w", err)
			}
			defer store.Close()
			journal = store
		}

		var mtr *metrics.Metrics
		if flagMetrics != "" {
			mtr = metrics.Init()
			log.Info("metrics enabled", "addr", flagMetrics)
			go func() {
				mux := http.NewServeMux()
				mux.Handle("/metrics", metrics.Handler())
				srv := &http.Server{Addr: flagMetrics, Handler: mux}
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("metrics server error", "error", err)
				}
			}()
		}

		if flagHealth != "" {
			checker := health.Checker{
				APIPing: health.NewAPIChecker(client).Ping,
			}
			if store != nil {
				checker.DBPing = store.Ping
			}
			healthSrv := health.Serve(flagHealth, checker)
			log.Info("health check enabled", "addr", flagHealth)
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = health.Shutdown(shutdownCtx, healthSrv)
			}()
		}

		scanner := engine.New(engine.Options{
			Registry:    reg,
			Source:      client,
			Classifier:  classify.New(cfg.Tokens),
			Thresholds:  classify.NewThresholds(cfg.Scan.EthThreshold, cfg.Scan.StableThreshold),
			Notifier:    notify.New(log, cfg.API.TxURL, !flagDryRun, mtr),
			Journal:     journal,
			Log:         log,
			Metrics:     mtr,
			DryRun:      flagDryRun,
			TargetDelay: cfg.TargetDelay(),
			CycleDelay:  cfg.CycleDelay(),
		})

		if flagOnce {
			if err := scanner.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			log.Info("single cycle complete", "dry_run", flagDryRun)
			return nil
		}
		return scanner.Run(ctx)
	},
}
