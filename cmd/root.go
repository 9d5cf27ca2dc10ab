package cmd

import (
	"github.com/spf13/cobra"

	"voicebank/config"
)

func Root(config *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{}
	rootCmd.AddCommand(server(config))
	rootCmd.AddCommand(generateTokens(config))
	return rootCmd
}
