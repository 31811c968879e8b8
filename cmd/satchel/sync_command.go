package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"satchel/internal/logging"
	"satchel/internal/notifications"
	"satchel/internal/sync"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var progressOnly bool
	var skipFileCheck bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync pass against every saved server",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.openEnvironment()
			if err != nil {
				return err
			}
			defer env.Close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			opts := sync.Options{
				CheckFileExistence:    env.cfg.Sync.CheckFileExistence && !skipFileCheck,
				ProgressOnly:          progressOnly,
				MaxNewDownloads:       env.cfg.Sync.MaxNewDownloads,
				ProgressOnlyThreshold: env.cfg.Sync.ProgressOnlyThreshold,
			}

			mediaSync := sync.NewMediaSync(env.assets, env.logger)
			serverSync := sync.NewServerSync(env.conn, mediaSync, env.logger)
			runner := sync.NewMultiServerSync(serverSync, env.logger)
			notifier := notifications.NewService(env.cfg)

			total := len(env.conn.SavedServers())
			started := time.Now()
			synced, err := runner.Sync(runCtx, opts)
			elapsed := time.Since(started)
			if err != nil {
				if notifyErr := notifier.NotifyError(runCtx, err, "sync"); notifyErr != nil {
					env.logger.Warn("failed to send error notification", logging.Error(notifyErr))
				}
				return err
			}

			if notifyErr := notifier.NotifySyncCompleted(runCtx, synced, total, elapsed); notifyErr != nil {
				env.logger.Warn("failed to send sync notification", logging.Error(notifyErr))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Synced %d of %d servers in %s\n", synced, total, elapsed.Round(time.Second))
			if synced < total {
				return fmt.Errorf("%d of %d servers failed to sync", total-synced, total)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&progressOnly, "progress-only", false, "Report transfer progress without starting new downloads when several are in flight")
	cmd.Flags().BoolVar(&skipFileCheck, "skip-file-check", false, "Skip verifying that completed downloads still exist on disk")
	return cmd
}
