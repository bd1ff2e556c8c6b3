package main

import (
	"fmt"

	"github.com/shuoxuer/shuoxuer-website/internal/repository/jsonfile"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate-docs",
	Short: "Copy documentation entries into the knowledge base",
	Long: `Turns every documentation entry into an approved knowledge entry
with the same id. Ids already in the knowledge base are skipped.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	docs, err := jsonfile.NewDocumentationRepository(db).List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read documentation: %w", err)
	}
	if len(docs) == 0 {
		cmd.Println("No documentation found.")
		return nil
	}

	n, err := knowledgeService.MigrateDocs(cmd.Context(), docs)
	if err != nil {
		return fmt.Errorf("migration failed after %d entries: %w", n, err)
	}

	cmd.Printf("Migration complete. Added %d new entries.\n", n)
	return nil
}
