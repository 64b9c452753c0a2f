// Command promptmcp runs the prompt-engineering MCP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	mcp "github.com/promptforge/promptmcp"
	"github.com/promptforge/promptmcp/config"
	"github.com/promptforge/promptmcp/middleware"
	"github.com/promptforge/promptmcp/prompts"
	"github.com/promptforge/promptmcp/storage"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "promptmcp",
		Short:        "MCP server for prompt engineering tools",
		Long:         "promptmcp serves prompt construction, character, and persistence tools over the MCP protocol.\nConfiguration is read from MCP_* environment variables.",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the server on the configured transport",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	// Diagnostics go to stderr; stdout may carry protocol frames.
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "promptmcp",
	})

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		logger.Error("failed to open storage", "backend", cfg.Storage, "error", err)
		return err
	}
	if closer, ok := store.(io.Closer); ok {
		defer closer.Close()
	}

	srv := mcp.NewServer(mcp.ServerInfo{
		Name:        cfg.Name,
		Version:     cfg.Version,
		Description: cfg.Description,
	})
	if err := prompts.Register(srv, store); err != nil {
		return fmt.Errorf("register tools: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting",
		"transport", cfg.Transport,
		"storage", cfg.Storage,
		"auth", cfg.Auth.Type,
	)

	err = mcp.Serve(ctx, cfg, srv, mcp.WithLogger(middleware.NewCharmLogger(logger)))
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server stopped", "error", err)
		return err
	}

	logger.Info("shutdown complete")
	return nil
}

// openStore builds the prompt store named by the configuration.
func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage {
	case "memory":
		return storage.NewMemory(), nil
	case "dir":
		return storage.NewDir(cfg.StoragePath)
	case "sqlite":
		dsn := cfg.StoragePath
		if dsn == "" {
			dsn = "promptmcp.db"
		}
		return storage.OpenSQLite(dsn)
	}
	return nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage)
}
