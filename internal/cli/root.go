package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tracks",
	Short: "Organizational learning from agent tool activity",
	Long:  "Tracks observes agent tool calls, mines them for workflow patterns and an entity graph, and serves the results over a local HTTP API. Single Go binary.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(hookCmd)
	rootCmd.AddCommand(insightsCmd)
	rootCmd.AddCommand(patternsCmd)
}
