package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var summary bool

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Load the catalog and show what it contains",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(h *sessionHandle) error {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader("Catalog", colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderStatusLine("Backend", statusInfo, h.cfg.Catalog.Backend, colorize))

				start := time.Now()
				if err := h.Refresh(cmd.Context()); err != nil {
					fmt.Fprintln(out, renderStatusLine("Load", statusError, err.Error(), colorize))
					return fmt.Errorf("load catalog: %w", err)
				}
				stats := h.Catalog().Stats()
				fmt.Fprintln(out, renderStatusLine("Load", statusOK,
					fmt.Sprintf("%d MODELS READY in %s", stats.View, time.Since(start).Round(time.Millisecond)), colorize))
				if dropped := stats.Authoritative - stats.View; dropped > 0 {
					fmt.Fprintln(out, renderStatusLine("Duplicates", statusWarn, fmt.Sprintf("%d collapsed", dropped), colorize))
				}
				aiKind := statusWarn
				if h.AIAvailable() {
					aiKind = statusOK
				}
				fmt.Fprintln(out, renderStatusLine("AI", aiKind, onOff(h.AIAvailable()), colorize))
				if summary {
					return nil
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderRecords(h.Results(), limit))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 25, "Maximum rows to print (0 for all)")
	cmd.Flags().BoolVar(&summary, "summary", false, "Print counts only")
	return cmd
}
