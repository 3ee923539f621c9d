package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/freestyler/internal/freestyle"
	mcpserver "github.com/ziadkadry99/freestyler/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing drop_bars, cut_bars and list_personas tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// Stdout carries the protocol; logs must stay on stderr.
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		var recorder freestyle.Recorder
		if database, store, err := openHistory(cfg); err != nil {
			// Tools still work without history.
			warnf("history disabled: %v", err)
		} else {
			defer database.Close()
			recorder = store
		}

		svc, err := buildService(cfg, recorder, logger)
		if err != nil {
			return err
		}

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "freestyler MCP server started on stdio (provider=%s, personas=%d)\n",
			svc.ProviderName(), len(svc.Catalog().All()))

		return mcpserver.NewServer(svc).Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
