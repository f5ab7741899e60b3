package main

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"cdfinder/internal/logging"
	"cdfinder/internal/session"
	"cdfinder/internal/tui"
)

func newSessionCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Start an interactive lookup session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			lock, err := session.AcquireLock(cfg.SessionLockPath())
			if err != nil {
				if errors.Is(err, session.ErrSessionActive) {
					return fmt.Errorf("%w (lock %s)", err, cfg.SessionLockPath())
				}
				return err
			}
			defer lock.Release()

			// Logs go to the file only so they do not draw over the UI.
			ctx.fileLogsOnly = true
			return ctx.withSession(func(h *sessionHandle) error {
				h.logger.Info("interactive session started")
				model := tui.New(cmd.Context(), h.Orchestrator, h.camera())
				if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
					logging.ErrorWithContext(h.logger, "interactive session failed", "session_failed",
						logging.Error(err),
						logging.String(logging.FieldErrorHint, "run from an interactive terminal"))
					return err
				}
				h.logger.Info("interactive session ended")
				return nil
			})
		},
	}
}
