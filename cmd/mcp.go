package cmd

import (
	"github.com/spf13/cobra"

	"github.com/joescharf/shiplog/internal/logging"
	"github.com/joescharf/shiplog/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server",
	Long: `Start an MCP (Model Context Protocol) server on stdio so an assistant can
read the board. Configure it in an MCP client with:

  {
    "mcpServers": {
      "shiplog": { "command": "shiplog", "args": ["mcp"] }
    }
  }

Available tools: shiplog_list_issues, shiplog_departments, shiplog_get_issue`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// stdout carries the protocol, so logs go to stderr as JSON.
		log := logging.New(ui.ErrOut, cfg.LogLevel, "json")
		boards, err := newBoardService(cfg, log)
		if err != nil {
			return err
		}
		return mcp.NewServer(boards, cfg.CutoffYear, buildVersion).ServeStdio(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
