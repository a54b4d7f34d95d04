package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/habibuoy/pairchat/cli/internal/ui"
	"github.com/habibuoy/pairchat/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the pairchat version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(ui.Output, "pairchat", version.Version)
	},
}
