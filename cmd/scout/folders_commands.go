package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scout/internal/api"
)

func newFoldersCommand(ctx *commandContext) *cobra.Command {
	foldersCmd := &cobra.Command{
		Use:   "folders",
		Short: "Inspect and manage monitored folders",
	}

	foldersCmd.AddCommand(newFoldersListCommand(ctx))
	foldersCmd.AddCommand(newFoldersAddCommand(ctx))
	foldersCmd.AddCommand(newFoldersBlacklistCommand(ctx))
	foldersCmd.AddCommand(newFoldersRemoveCommand(ctx))
	foldersCmd.AddCommand(newFoldersToggleCommand(ctx))

	return foldersCmd
}

func newFoldersListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered folders and their blacklist entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			hierarchy, err := client.Folders(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, hierarchy)
			}
			if len(hierarchy.Folders) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No folders registered")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Path", "Alias", "Type", "Auth", "Common"},
				buildFolderRows(hierarchy),
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a table")
	return cmd
}

func buildFolderRows(hierarchy *api.HierarchyResponse) [][]string {
	var rows [][]string
	appendRow := func(folder api.Folder, indent string) {
		kind := "whitelist"
		if folder.IsBlacklist {
			kind = "blacklist"
		}
		rows = append(rows, []string{
			shortID(folder.ID),
			indent + folder.Path,
			folder.Alias,
			kind,
			folder.AuthStatus,
			yesNo(folder.IsCommonFolder),
		})
	}
	for _, group := range hierarchy.Folders {
		appendRow(group.Folder, "")
		for _, child := range group.Blacklist {
			appendRow(child, "  ")
		}
	}
	return rows
}

// shortID keeps tables readable; full ids are available via --json.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func newFoldersAddCommand(ctx *commandContext) *cobra.Command {
	var alias string

	cmd := &cobra.Command{
		Use:   "add <path>",
		Short: "Register a folder for monitoring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			result, err := client.AddFolder(cmd.Context(), args[0], alias)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (%s)\n", result.Folder.Path, result.Folder.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&alias, "alias", "", "Display alias for the folder")
	return cmd
}

func newFoldersBlacklistCommand(ctx *commandContext) *cobra.Command {
	var alias string

	cmd := &cobra.Command{
		Use:   "blacklist <parent-id> <path>",
		Short: "Exclude a subfolder of a registered folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			result, err := client.AddBlacklist(cmd.Context(), args[0], args[1], alias)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Blacklisted %s (%s)\n", result.Folder.Path, result.Folder.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&alias, "alias", "", "Display alias for the blacklist entry")
	return cmd
}

func newFoldersRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a folder and its blacklist entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			result, err := client.RemoveFolder(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, folder := range result.Removed {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", folder.Path)
			}
			return nil
		},
	}
}

func newFoldersToggleCommand(ctx *commandContext) *cobra.Command {
	var toBlacklist bool
	var toWhitelist bool

	cmd := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip a top-level folder between whitelist and blacklist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if toBlacklist == toWhitelist {
				return fmt.Errorf("specify exactly one of --blacklist or --whitelist")
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			result, err := client.ToggleFolder(cmd.Context(), args[0], toBlacklist)
			if err != nil {
				return err
			}
			state := "whitelisted"
			if result.Folder.IsBlacklist {
				state = "blacklisted"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", result.Folder.Path, state)
			return nil
		},
	}

	cmd.Flags().BoolVar(&toBlacklist, "blacklist", false, "Exclude the folder from monitoring")
	cmd.Flags().BoolVar(&toWhitelist, "whitelist", false, "Include the folder in monitoring")
	return cmd
}
