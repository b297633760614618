package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"docfind/internal/app"
)

var clearYes bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete everything from the index",
	RunE:  runClear,
}

func init() {
	rootCmd.AddCommand(clearCmd)
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "skip the confirmation prompt")
}

func runClear(cmd *cobra.Command, args []string) error {
	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	count, err := a.Index.Count()
	if err != nil {
		return err
	}
	if count == 0 {
		fmt.Println("Index is already empty.")
		return nil
	}

	if !clearYes {
		fmt.Printf("Delete %d indexed chunks? [y/N] ", count)
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if answer := strings.ToLower(strings.TrimSpace(line)); answer != "y" && answer != "yes" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := a.Index.Clear(); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}
	a.Cache.Invalidate()
	fmt.Println("Index cleared.")
	return nil
}
