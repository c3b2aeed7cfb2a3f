// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "promo-warden",
	Short: "promo-warden distributes single-use promo codes to guild members",
	Long: `promo-warden manages guild-scoped groups of single-use promotional
codes and hands each recipient at most one code per group, with no code
ever assigned twice.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
