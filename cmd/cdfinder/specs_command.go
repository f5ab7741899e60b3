package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cdfinder/internal/catalog"
)

func newSpecsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "specs <model>",
		Short: "Ask the AI provider for a model's DAC and laser",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			label := strings.TrimSpace(strings.Join(args, " "))
			return ctx.withSession(func(h *sessionHandle) error {
				out := cmd.OutOrStdout()
				rec, err := h.Escalate(cmd.Context(), label)
				printNotice(out, h)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, renderRecords([]catalog.Record{rec}, 0))
				return nil
			})
		},
	}
}
