package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"scout/internal/api"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, status)
			}
			renderStatus(cmd, status)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of text")
	return cmd
}

func renderStatus(cmd *cobra.Command, status *api.DaemonStatus) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	runningKind := statusError
	if status.Running {
		runningKind = statusOK
	}
	fmt.Fprintln(out, renderStatusLine("Daemon", runningKind, fmt.Sprintf("pid %d", status.PID), colorize))

	permissionKind := statusWarn
	permissionText := "per-directory authorization"
	if status.Permission.Granted {
		permissionKind = statusOK
		permissionText = "blanket grant active"
	}
	fmt.Fprintln(out, renderStatusLine("Permission", permissionKind, permissionText, colorize))

	watchText := fmt.Sprintf("%d folders", len(status.Monitoring.WatchedRoots))
	fmt.Fprintln(out, renderStatusLine("Watching", statusInfo, watchText, colorize))
	for root, reason := range status.Monitoring.DegradedRoots {
		fmt.Fprintln(out, renderStatusLine("Degraded", statusError, root+": "+reason, colorize))
	}

	queueText := fmt.Sprintf("%d pending", status.Queue.QueueLength)
	if status.Queue.Processing {
		queueText += ", applying"
	}
	queueKind := statusInfo
	if status.Queue.LastError != "" {
		queueKind = statusWarn
		queueText += "; last error: " + status.Queue.LastError
	}
	fmt.Fprintln(out, renderStatusLine("Change queue", queueKind, queueText, colorize))

	dbKind := statusOK
	dbText := status.RegistryDBPath
	if !status.Database.Healthy {
		dbKind = statusError
		if detail := strings.TrimSpace(status.Database.Detail); detail != "" {
			dbText += ": " + detail
		}
	}
	fmt.Fprintln(out, renderStatusLine("Registry", dbKind, dbText, colorize))
}
