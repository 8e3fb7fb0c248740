package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lineCount int
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent daemon log lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}

			chunk, err := client.Logs(cmd.Context(), -1, lineCount, 0)
			if err != nil {
				return err
			}
			for _, line := range chunk.Lines {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			if !follow {
				return nil
			}

			offset := chunk.Offset
			for {
				chunk, err := client.Logs(cmd.Context(), offset, 0, 10*time.Second)
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				}
				for _, line := range chunk.Lines {
					fmt.Fprintln(cmd.OutOrStdout(), line)
				}
				offset = chunk.Offset
			}
		},
	}

	cmd.Flags().IntVarP(&lineCount, "lines", "n", 100, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep streaming new lines until interrupted")
	return cmd
}
