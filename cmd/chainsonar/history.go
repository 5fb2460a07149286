package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/chainsonar/chainsonar/internal/config"
	"github.com/chainsonar/chainsonar/internal/registry"
	"github.com/chainsonar/chainsonar/internal/storage"
	"github.com/spf13/cobra"
)

var flagHistoryLimit int

func init() {
	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 20, "Maximum number of alerts to show")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent alerts from the journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		store, err := storage.Open(cfg.Global.DBPath)
		if err != nil {
			return fmt.Errorf("open alert journal: %w", err)
		}
		defer store.Close()

		alerts, err := store.RecentAlerts(cmd.Context(), flagHistoryLimit)
		if err != nil {
			return err
		}
		if len(alerts) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no alerts journaled yet")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tTARGET\tAMOUNT\tTX")
		for _, a := range alerts {
			fmt.Fprintf(w, "%s\t%s (%s)\t%s %s\t%s\n",
				a.CreatedAt.Format("2006-01-02 15:04:05"),
				a.TargetName,
				registry.ShortAddr(a.TargetAddress),
				a.Amount,
				a.Symbol,
				a.TxHash,
			)
		}
		return w.Flush()
	},
}
