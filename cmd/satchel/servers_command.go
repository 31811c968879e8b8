package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"satchel/internal/connection"
)

func newServersCommand(ctx *commandContext) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "servers",
		Short: "List saved servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.openEnvironment()
			if err != nil {
				return err
			}
			defer env.Close()

			out := cmd.OutOrStdout()
			headers := []string{"ID", "Name", "Address", "Session"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft}

			rows := make([][]string, 0, len(env.cfg.Servers))
			for _, server := range env.conn.SavedServers() {
				session := "saved"
				if server.AccessToken == "" {
					session = "signed out"
				} else if check {
					result, err := env.conn.Connect(cmd.Context(), server, connection.Options{})
					if err != nil {
						return fmt.Errorf("connect to %s: %w", server.ID, err)
					}
					session = sessionLabel(result.State)
				}
				rows = append(rows, []string{server.ID, server.Name, server.Address, session})
			}

			if len(rows) == 0 {
				fmt.Fprintln(out, "No servers configured. Add a [[server]] entry to the config file.")
				return nil
			}
			fmt.Fprintln(out, renderTable(headers, rows, aligns))
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Probe each saved session against the server")
	return cmd
}

func sessionLabel(state connection.State) string {
	switch state {
	case connection.StateSignedIn:
		return "signed in"
	case connection.StateSignedOut:
		return "signed out"
	case connection.StateUnavailable:
		return "unreachable"
	default:
		return string(state)
	}
}
