package main

import (
	"encoding/json"
	"fmt"

	"github.com/shuoxuer/shuoxuer-website/internal/domain"
	"github.com/spf13/cobra"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Rank approved entries against a query",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 3, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	hits, err := knowledgeService.Search(cmd.Context(), args[0], searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		data, err := json.MarshalIndent(hits, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	printHits(cmd, hits)
	return nil
}

func printHits(cmd *cobra.Command, hits []domain.SearchHit) {
	if len(hits) == 0 {
		cmd.Println("No results found.")
		return
	}

	for i, h := range hits {
		cmd.Printf("  [%d] %s (%.3f)\n", i+1, h.ID, h.Score)
		cmd.Printf("      %s\n", h.Content)
	}
}
