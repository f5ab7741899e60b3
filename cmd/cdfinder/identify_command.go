package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"cdfinder/internal/capture"
	"cdfinder/internal/session"
)

func newIdentifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "identify <image>",
		Short: "Identify a CD player from a photo and look up its specs",
		Long: "Identify a CD player from a photo (a file path or a data:image URL). When the\n" +
			"identified model is not in the catalog and AI is available, its DAC and laser\n" +
			"are looked up and added to the session.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := capture.Load(args[0])
			if err != nil {
				return err
			}
			return ctx.withSession(func(h *sessionHandle) error {
				return runIdentification(cmd.Context(), cmd.OutOrStdout(), h, func(c context.Context) (session.Outcome, error) {
					return h.ProcessImage(c, img)
				})
			})
		},
	}
}

func newCaptureCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "capture",
		Short: "Capture a photo with the configured camera command and identify it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(h *sessionHandle) error {
				camera := h.camera()
				if camera == nil {
					return fmt.Errorf("%w: set [capture] command in the config", capture.ErrDeviceAccess)
				}
				return runIdentification(cmd.Context(), cmd.OutOrStdout(), h, func(c context.Context) (session.Outcome, error) {
					return h.Capture(c, camera)
				})
			})
		},
	}
}

func runIdentification(ctx context.Context, out io.Writer, h *sessionHandle, process func(context.Context) (session.Outcome, error)) error {
	colorize := shouldColorize(out)
	if err := h.Refresh(ctx); err != nil {
		fmt.Fprintln(out, renderStatusLine("Catalog", statusWarn, "unavailable; continuing without it", colorize))
	}
	fmt.Fprintln(out, renderStatusLine("AI", statusInfo, onOff(h.AIAvailable()), colorize))

	outcome, err := process(ctx)
	if outcome.Label != "" {
		fmt.Fprintln(out, renderStatusLine("Identified", statusOK, outcome.Label, colorize))
		switch {
		case outcome.Matched:
			fmt.Fprintln(out, renderStatusLine("Catalog", statusOK, "model found", colorize))
		case !outcome.Escalated:
			fmt.Fprintln(out, renderStatusLine("Catalog", statusWarn, "model not found; AI lookup unavailable", colorize))
		}
	}
	printNotice(out, h)
	if err != nil {
		return err
	}
	if results := h.Results(); len(results) > 0 {
		fmt.Fprintln(out, renderRecords(results, 0))
	}
	return nil
}
