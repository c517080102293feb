package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nixd-sub000",
		Short: "A language server for the Nix expression language",
	}
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newParseCmd())
	cmd.AddCommand(newMetricsCmd())
	return cmd
}
