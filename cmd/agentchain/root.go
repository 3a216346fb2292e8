package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "agentchain",
	Short: "Multi-agent orchestration server",
	Long: `AgentChain runs chains of specialised agents against a shared
session context. Each agent processes the user's request, hands off to
the next agent by name, and the orchestrator merges successful results
into the session so follow-up questions build on earlier answers.

The server exposes chat, CSV upload, session inspection and execution
history over HTTP.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config file (default: XDG config paths)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
