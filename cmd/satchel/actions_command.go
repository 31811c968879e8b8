package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newActionsCommand(ctx *commandContext) *cobra.Command {
	actionsCmd := &cobra.Command{
		Use:   "actions",
		Short: "Inspect playback actions recorded while offline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listActions(cmd, ctx)
		},
	}

	actionsCmd.AddCommand(newActionsClearCommand(ctx))
	return actionsCmd
}

func listActions(cmd *cobra.Command, ctx *commandContext) error {
	env, err := ctx.openEnvironment()
	if err != nil {
		return err
	}
	defer env.Close()

	out := cmd.OutOrStdout()
	headers := []string{"Server", "Item", "Type", "Recorded", "Position"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight}

	var rows [][]string
	for _, server := range env.cfg.Servers {
		actions, err := env.store.ActionsForServer(cmd.Context(), server.ID)
		if err != nil {
			return fmt.Errorf("read actions for %s: %w", server.ID, err)
		}
		label := formatServerLabel(server.ID, server.Name)
		for _, action := range actions {
			recorded := time.UnixMilli(action.Date).Format(time.RFC3339)
			position := time.Duration(action.PositionTicks/10_000) * time.Millisecond
			rows = append(rows, []string{
				label,
				action.ItemID,
				action.Type,
				recorded,
				position.Round(time.Second).String(),
			})
		}
	}

	if len(rows) == 0 {
		fmt.Fprintln(out, "No pending actions. Offline playback events upload on the next sync.")
		return nil
	}
	fmt.Fprintln(out, renderTable(headers, rows, aligns))
	return nil
}

func newActionsClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <server-id>",
		Short: "Discard pending actions for a server without uploading them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.openEnvironment()
			if err != nil {
				return err
			}
			defer env.Close()

			serverID := args[0]
			if env.cfg.ServerByID(serverID) == nil {
				return fmt.Errorf("unknown server %s", serverID)
			}

			cleared, err := env.store.ClearActions(cmd.Context(), serverID)
			if err != nil {
				return fmt.Errorf("clear actions: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d pending actions for %s\n", cleared, serverID)
			return nil
		},
	}
}
