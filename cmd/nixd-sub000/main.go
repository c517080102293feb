// Package main provides the nixd-sub000 CLI entry point.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "nixd-sub000:", err)
		os.Exit(1)
	}
}
