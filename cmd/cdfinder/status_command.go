package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"cdfinder/internal/catalog/source"
	"cdfinder/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check directories, catalog backend, AI, and camera readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, closer, err := source.Open(cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("Status", colorize) {
				fmt.Fprintln(out, line)
			}
			results := preflight.RunAll(cmd.Context(), cfg, store)
			for _, r := range results {
				kind := statusOK
				switch {
				case r.Skipped:
					kind = statusInfo
				case !r.Passed:
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}
			if preflight.Failed(results) {
				return errors.New("one or more checks failed")
			}
			return nil
		},
	}
}
