package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"docfind/internal/app"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index statistics",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := a.Stats()
	if err != nil {
		return fmt.Errorf("read index stats: %w", err)
	}

	fmt.Printf("Index:     %s\n", stats.Path)
	fmt.Printf("Model:     %s\n", stats.Model)
	fmt.Printf("Documents: %d\n", stats.Documents)
	fmt.Printf("Chunks:    %d\n", stats.Vectors)
	return nil
}
