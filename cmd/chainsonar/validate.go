package main

import (
	"fmt"

	"github.com/chainsonar/chainsonar/internal/config"
	"github.com/chainsonar/chainsonar/internal/registry"
	"github.com/chainsonar/chainsonar/internal/source/etherscan"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate config, targets file, and explorer API access",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("config invalid: %w", err)
		}
		fmt.Fprintf(out, "config OK (%d watched tokens)\n", len(cfg.Tokens))

		reg, err := registry.Load(cfg.Global.TargetsFile, nil)
		if err != nil {
			return fmt.Errorf("targets invalid: %w", err)
		}
		fmt.Fprintf(out, "targets OK (%d addresses in %s)\n", reg.Len(), cfg.Global.TargetsFile)

		client := etherscan.NewClient(cfg.API.BaseURL, cfg.API.Key, cfg.APITimeout())
		block, err := client.Ping(cmd.Context())
		if err != nil {
			return fmt.Errorf("explorer API: %w", err)
		}
		fmt.Fprintf(out, "explorer API OK (latest block %s)\n", block)

		fmt.Fprintln(out, "validate: success")
		return nil
	},
}
