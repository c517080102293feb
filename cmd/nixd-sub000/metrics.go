package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nix-community/nixd-sub000/internal/diag"
	"github.com/nix-community/nixd-sub000/internal/metrics"
	"github.com/nix-community/nixd-sub000/internal/parser"
)

// newMetricsCmd parses a file the same way `parse` does, records the
// result through a scratch metrics.Metrics instance, and prints the
// Prometheus text-exposition snapshot — a debug aid for checking what a
// single parse/analysis pass would contribute to the counters `serve`
// accumulates over a session, without needing a running editor.
func newMetricsCmd() *cobra.Command {
	var stdin bool

	cmd := &cobra.Command{
		Use:   "metrics [file]",
		Short: "Parse a file and print the Prometheus metrics it would record",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, uri, err := readParseInput(cmd.InOrStdin(), stdin, args)
			if err != nil {
				return err
			}

			m := metrics.New()
			_, diags := parser.Parse(uri, 0, src)
			m.SetDocumentsOpen(1)
			m.RecordDiagnostics(diags)

			snapshot, err := m.Gather()
			if err != nil {
				return fmt.Errorf("gather metrics: %w", err)
			}
			if _, err := io.WriteString(cmd.OutOrStdout(), snapshot); err != nil {
				return err
			}

			for _, d := range diags {
				if d.Severity() == diag.SeverityError || d.Severity() == diag.SeverityFatal {
					return errors.New("parse completed with errors")
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&stdin, "stdin", false, "read input from stdin")
	return cmd
}
