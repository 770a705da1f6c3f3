package main

import (
	"github.com/dvloznov/copilot-ledger/internal/mcp"
	"github.com/spf13/cobra"
)

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the query tools to an MCP client over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.db.IsAvailable() {
				a.log.Warn().Str("db_path", a.db.Path()).Msg("Database not found; tool calls will report it unavailable")
			}
			return mcp.NewServer(a.tools, a.log, version).Run(cmd.Context())
		},
	}
}
