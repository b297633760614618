package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"docfind/internal/app"
	"docfind/internal/usecase"
)

var (
	queryText     string
	queryTopK     int
	queryJSON     bool
	queryOpen     bool
	queryNoRerank bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Search the indexed documents",
	Long: `Search indexed documents with a natural-language query. Results
combine semantic similarity with literal filename and content matches.

Examples:
  docfind query -q "insurance contract 2024"
  docfind query -q "meeting notes" --top-k 5 --json
  docfind query -q "tax return" --open`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.Flags().BoolVar(&queryOpen, "open", false, "open the top result with the default application")
	queryCmd.Flags().BoolVar(&queryNoRerank, "no-rerank", false, "disable vector reranking")
	queryCmd.MarkFlagRequired("query")
}

func runQuery(cmd *cobra.Command, args []string) error {
	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	topK := cfg.Search.TopK
	if queryTopK > 0 {
		topK = queryTopK
	}

	results, err := a.Engine().Search(cmd.Context(), queryText, usecase.SearchOptions{
		TopK:   topK,
		Rerank: cfg.Search.Rerank && !queryNoRerank,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if queryJSON {
		out, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	} else {
		if len(results) == 0 {
			fmt.Println("No results found.")
			return nil
		}
		fmt.Printf("Found %d results for: %s\n\n", len(results), queryText)
		for i, r := range results {
			fmt.Printf("%2d. %s (score: %.2f, match: %s)\n", i+1, r.Path, r.Score, r.Match)
			if r.Preview != "" {
				fmt.Printf("    %s\n", r.Preview)
			}
			fmt.Println()
		}
	}

	if queryOpen && len(results) > 0 {
		if err := a.Opener.Open(results[0].Path); err != nil {
			return fmt.Errorf("open top result: %w", err)
		}
	}
	return nil
}
