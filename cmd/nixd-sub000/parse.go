package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nix-community/nixd-sub000/internal/cst"
	"github.com/nix-community/nixd-sub000/internal/diag"
	"github.com/nix-community/nixd-sub000/internal/parser"
)

func newParseCmd() *cobra.Command {
	var (
		debugTokens bool
		debugCST    bool
		stdin       bool
	)

	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse a Nix expression file and print its diagnostics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, uri, err := readParseInput(cmd.InOrStdin(), stdin, args)
			if err != nil {
				return err
			}

			tree, diags := parser.Parse(uri, 0, src)

			out := cmd.OutOrStdout()
			if debugTokens {
				dumpTokens(out, tree)
			}
			if debugCST {
				dumpCST(out, tree)
			}
			dumpDiagnostics(out, tree, diags)

			for _, d := range diags {
				if d.Severity() == diag.SeverityError || d.Severity() == diag.SeverityFatal {
					return errors.New("parse completed with errors")
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&debugTokens, "debug-tokens", false, "dump lexer tokens")
	cmd.Flags().BoolVar(&debugCST, "debug-cst", false, "dump CST nodes")
	cmd.Flags().BoolVar(&stdin, "stdin", false, "read input from stdin")
	return cmd
}

func readParseInput(stdin io.Reader, useStdin bool, args []string) ([]byte, string, error) {
	if useStdin {
		src, err := io.ReadAll(stdin)
		if err != nil {
			return nil, "", fmt.Errorf("read stdin: %w", err)
		}
		return src, "stdin.nix", nil
	}
	if len(args) != 1 {
		return nil, "", errors.New("exactly one input file path is required (or use --stdin)")
	}
	//nolint:gosec // CLI intentionally reads user-provided file paths.
	src, err := os.ReadFile(args[0])
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", args[0], err)
	}
	return src, args[0], nil
}

func dumpTokens(w io.Writer, tree *cst.Tree) {
	if tree == nil {
		return
	}
	fmt.Fprintln(w, "TOKENS")
	for i, tok := range tree.Tokens {
		fmt.Fprintf(w, "[%d] kind=%s span=%s text=%q\n", i, tok.Kind, tok.Span, tok.Bytes(tree.Source))
	}
}

func dumpCST(w io.Writer, tree *cst.Tree) {
	if tree == nil {
		return
	}
	fmt.Fprintf(w, "CST root=%d\n", tree.Root)
	for i := 1; i < len(tree.Nodes); i++ {
		n := tree.Nodes[i]
		fmt.Fprintf(w, "[%d] kind=%s span=%s children=%d\n", n.ID, n.Kind, n.Span, len(n.Children))
	}
}

func dumpDiagnostics(w io.Writer, tree *cst.Tree, diags []diag.Diagnostic) {
	uri := ""
	if tree != nil {
		uri = tree.URI
	}
	for _, d := range diags {
		fmt.Fprintf(w, "%s:%s: %s: %s\n", uri, d.Span, d.Severity(), d.Message())
	}
}
