package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reembedCmd = &cobra.Command{
	Use:   "reembed",
	Short: "Embed approved entries that have no vector",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		n, err := knowledgeService.Reembed(cmd.Context())
		if err != nil {
			return fmt.Errorf("reembed failed after %d entries: %w", n, err)
		}
		cmd.Printf("Embedded %d entries.\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reembedCmd)
}
