package cli

import (
	"os"

	"github.com/lazypower/tracks/internal/hooks"
	"github.com/spf13/cobra"
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Handle agent hook events",
}

var hookToolCmd = &cobra.Command{
	Use:   "tool",
	Short: "Handle PostToolUse hook",
	Run: func(cmd *cobra.Command, args []string) {
		hooks.Handle("tool", os.Stdin)
	},
}

var hookStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Handle Stop hook",
	Run: func(cmd *cobra.Command, args []string) {
		hooks.Handle("stop", os.Stdin)
	},
}

var hookEndCmd = &cobra.Command{
	Use:   "end",
	Short: "Handle SessionEnd hook",
	Run: func(cmd *cobra.Command, args []string) {
		hooks.Handle("end", os.Stdin)
	},
}

func init() {
	hookCmd.AddCommand(hookToolCmd)
	hookCmd.AddCommand(hookStopCmd)
	hookCmd.AddCommand(hookEndCmd)
}
