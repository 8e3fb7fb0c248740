package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRestartCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Rebuild the watch set from the registry",
		Long:  "Forces a full monitoring reconciliation, e.g. after system resume.",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			monitoring, err := client.RestartMonitoring(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Monitoring restarted; watching %d folders\n", len(monitoring.WatchedRoots))
			for root, reason := range monitoring.DegradedRoots {
				fmt.Fprintf(cmd.OutOrStdout(), "Degraded: %s (%s)\n", root, reason)
			}
			return nil
		},
	}
}
