package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"satchel/internal/store"
)

const (
	ansiReset = "\x1b[0m"
	ansiGreen = "\x1b[32m"
	ansiRed   = "\x1b[31m"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var showItems bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show per-server download state",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.openEnvironment()
			if err != nil {
				return err
			}
			defer env.Close()

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			headers := []string{"Server", "Queued", "Transferring", "Synced", "Errors", "Pending Actions"}
			aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight}
			rows := make([][]string, 0, len(env.cfg.Servers))
			for _, server := range env.cfg.Servers {
				stats, err := env.store.ItemStats(cmd.Context(), server.ID)
				if err != nil {
					return fmt.Errorf("read item stats for %s: %w", server.ID, err)
				}
				actions, err := env.store.ActionsForServer(cmd.Context(), server.ID)
				if err != nil {
					return fmt.Errorf("read pending actions for %s: %w", server.ID, err)
				}

				rows = append(rows, []string{
					formatServerLabel(server.ID, server.Name),
					strconv.Itoa(stats[store.StatusQueued]),
					strconv.Itoa(stats[store.StatusTransferring]),
					colorCount(stats[store.StatusSynced], ansiGreen, colorize),
					colorCount(stats[store.StatusError], ansiRed, colorize),
					strconv.Itoa(len(actions)),
				})
			}

			if len(rows) == 0 {
				fmt.Fprintln(out, "No servers configured. Add a [[server]] entry to the config file.")
				return nil
			}
			fmt.Fprintln(out, renderTable(headers, rows, aligns))

			if showItems {
				return renderItems(cmd, env)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showItems, "items", false, "List every stored item")
	return cmd
}

func renderItems(cmd *cobra.Command, env *environment) error {
	out := cmd.OutOrStdout()
	headers := []string{"Server", "Item", "Type", "Status", "Path"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft}

	var rows [][]string
	for _, server := range env.cfg.Servers {
		items, err := env.store.ItemsForServer(cmd.Context(), server.ID)
		if err != nil {
			return fmt.Errorf("read items for %s: %w", server.ID, err)
		}
		for _, item := range items {
			name := item.Item.Name
			if name == "" {
				name = item.ItemID
			}
			rows = append(rows, []string{
				server.ID,
				name,
				item.Item.Type,
				string(item.Status),
				item.LocalPath,
			})
		}
	}

	if len(rows) == 0 {
		fmt.Fprintln(out, "No items stored yet. Run `satchel sync` to pull assigned downloads.")
		return nil
	}
	fmt.Fprintln(out, renderTable(headers, rows, aligns))
	return nil
}

func colorCount(count int, color string, colorize bool) string {
	value := strconv.Itoa(count)
	if !colorize || count == 0 {
		return value
	}
	return color + value + ansiReset
}

func formatServerLabel(server string, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return server
	}
	return fmt.Sprintf("%s (%s)", name, server)
}
