package main

import (
	"context"
	"fmt"
	"os"

	"github.com/chainsonar/chainsonar/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfgPath string
	rootCmd = &cobra.Command{
		Use:   "chainsonar",
		Short: "Whale-wallet activity scanner & alerts for Ethereum",
	}
)

func init() {
	cobra.EnableCommandSorting = false

	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", config.DefaultPath, "Path to config file")

	rootCmd.AddCommand(
		versionCmd,
		validateCmd,
		runCmd,
		historyCmd,
	)
}

// Execute runs the root command tree.
func Execute(ctx context.Context) error {
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}
