package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var withAI bool
	var limit int

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the catalog by model name",
		Long: "Search the catalog by model name. Punctuation, spacing, and case are ignored,\n" +
			"so \"cdp 227\" matches \"SONY CDP-227ESD\". With no query every model is listed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return ctx.withSession(func(h *sessionHandle) error {
				out := cmd.OutOrStdout()
				if err := h.Refresh(cmd.Context()); err != nil {
					printNotice(out, h)
					return fmt.Errorf("load catalog: %w", err)
				}
				h.SetQuery(query)
				results := h.Results()
				if len(results) == 0 && withAI {
					if !h.CanSearchWithAI() {
						return errors.New("no matches and AI search is unavailable (set [ai] api_key)")
					}
					fmt.Fprintf(out, "No catalog match for %q; asking the AI provider...\n", query)
					_, err := h.SearchWithAI(cmd.Context())
					printNotice(out, h)
					if err != nil {
						return err
					}
					results = h.Results()
				}
				if len(results) == 0 {
					fmt.Fprintf(out, "No models match %q.\n", query)
					if h.CanSearchWithAI() {
						fmt.Fprintln(out, "Re-run with --ai to search with AI.")
					}
					return nil
				}
				fmt.Fprintln(out, renderRecords(results, limit))
				if limit > 0 && len(results) > limit {
					fmt.Fprintf(out, "%d of %d models shown\n", limit, len(results))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&withAI, "ai", false, "Ask the AI provider when nothing matches")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum rows to print (0 for all)")
	return cmd
}
