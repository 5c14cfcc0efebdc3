// Package cmd implements the dcoracle command line.
package cmd

import (
	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "dcoracle",
	Short: "Fallback USD price oracle for the DC token",
	Long: `dcoracle resolves a trustworthy DC/USD price from an on-chain liquidity
pool and two DEX aggregators, falling back to a bounded cache when every
source is down.

Sources are tried in priority order; the first plausible reading wins.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config/config.yaml", "path to configuration file")
}
