package cmd

import (
	"github.com/huangsam/monthrank/internal/iocache"
	"github.com/huangsam/monthrank/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Monthrank MCP server",
	Long:  `Launch an MCP server over stdio that allows AI agents to rank records via standard tools.`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		// Tool calls name their own input; stdout is the protocol channel.
		return sharedSetup(rootCtx, cmd, nil)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, iocache.Manager, logger)
	},
}
