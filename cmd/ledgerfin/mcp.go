package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pario-ai/ledgerfin/pkg/mcp"
)

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the ledger views as MCP tools over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openLedger()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a.log.WithField("db_path", a.cfg.Ledger.DBPath).Info("mcp server listening on stdio")
			return mcp.New(store, a.cfg, a.log, version).Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
