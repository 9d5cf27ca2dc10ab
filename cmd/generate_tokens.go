package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"voicebank/config"
	"voicebank/repository"
	"voicebank/service"
)

// generateTokens issues upload tokens against an existing recording from
// the command line, for seeding campaigns without going through the API.
func generateTokens(cfg *config.Config) *cobra.Command {
	var parent string
	var count int

	cmd := &cobra.Command{
		Use:   "generate-tokens",
		Short: "issue upload tokens for a parent recording",
		RunE: func(cmd *cobra.Command, args []string) error {
			parentID, err := uuid.Parse(parent)
			if err != nil {
				return fmt.Errorf("parse --parent: %w", err)
			}

			tokens := service.NewTokenManager(repository.NewRepo(cfg.DB))
			for i := 0; i < count; i++ {
				token, err := tokens.Issue(cmd.Context(), parentID)
				if err != nil {
					return err
				}
				fmt.Println(token.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&parent, "parent", "", "parent recording id")
	cmd.Flags().IntVar(&count, "count", 1, "number of tokens to issue")
	cmd.MarkFlagRequired("parent")

	return cmd
}
