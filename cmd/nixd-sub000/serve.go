package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nix-community/nixd-sub000/internal/lsp"
	"github.com/nix-community/nixd-sub000/internal/metrics"
	"github.com/nix-community/nixd-sub000/internal/provider"
)

func newServeCmd() *cobra.Command {
	var (
		poolCapacity int
		providerPath string
		logLevel     string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the LSP server over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(logLevel)}))

			prov, stopProvider, err := resolveProvider(providerPath, log)
			if err != nil {
				return fmt.Errorf("nixd-sub000 serve: %w", err)
			}
			if stopProvider != nil {
				defer stopProvider()
			}

			srv := lsp.NewServer(lsp.Config{
				Provider:     prov,
				Metrics:      metrics.New(),
				Logger:       log,
				PoolCapacity: poolCapacity,
			})
			return srv.Run(context.Background(), os.Stdin, os.Stdout)
		},
	}

	cmd.Flags().IntVar(&poolCapacity, "pool-capacity", 0, "bounded pool size for read-only queries (default GOMAXPROCS)")
	cmd.Flags().StringVar(&providerPath, "provider-plugin", "", "path to a package-metadata provider plugin binary")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	return cmd
}

func resolveProvider(path string, log *slog.Logger) (provider.Provider, func(), error) {
	if path == "" {
		return provider.NullProvider{}, nil, nil
	}
	prov, stop, err := provider.Launch(path)
	if err != nil {
		return nil, nil, fmt.Errorf("launch provider plugin %s: %w", path, err)
	}
	log.Info("package-metadata provider plugin launched", "path", path)
	return prov, stop, nil
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
