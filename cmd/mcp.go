package cmd

import (
	"github.com/coursekit/coursekit/internal/iocache"
	"github.com/coursekit/coursekit/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Coursekit MCP server",
	Long: `Launch an MCP server on stdio that lets AI agents compute grade thresholds
and compare CSV columns through standard tools.`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Logs go to stderr; stdout is used for the protocol.
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(cmd.Context(), cfg, iocache.Manager)
	},
}
