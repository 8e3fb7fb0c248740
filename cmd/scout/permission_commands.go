package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPermissionCommand(ctx *commandContext) *cobra.Command {
	permissionCmd := &cobra.Command{
		Use:   "permission",
		Short: "Inspect and request the blanket OS permission",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			status, err := client.Permission(cmd.Context())
			if err != nil {
				return err
			}
			if status.Granted {
				fmt.Fprintln(cmd.OutOrStdout(), "Blanket permission: granted")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Blanket permission: not granted (per-directory authorization in effect)")
			}
			return nil
		},
	}

	permissionCmd.AddCommand(&cobra.Command{
		Use:   "request",
		Short: "Trigger the OS consent flow",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			status, err := client.RequestPermission(cmd.Context())
			if err != nil {
				return err
			}
			if status.Granted {
				fmt.Fprintln(cmd.OutOrStdout(), "Blanket permission already granted")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Consent flow triggered; the daemon will pick up the grant automatically")
			return nil
		},
	})

	permissionCmd.AddCommand(&cobra.Command{
		Use:   "refresh",
		Short: "Re-probe the OS grant",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			status, err := client.RefreshPermission(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Blanket permission granted: %s\n", yesNo(status.Granted))
			return nil
		},
	})

	return permissionCmd
}
