package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "dcoracle version %s\n", version.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
