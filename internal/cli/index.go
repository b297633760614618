package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"docfind/internal/app"
	"docfind/internal/domain"
	"docfind/internal/usecase"
)

var indexCmd = &cobra.Command{
	Use:   "index <folder>",
	Short: "Index the documents in a folder",
	Long: `Scan a folder for supported documents (.txt, .pdf, .docx), extract
their text and add them to the search index. Unchanged files are
skipped, so re-running after edits only processes what changed.

Examples:
  docfind index ~/Documents
  docfind index /data/reports`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

// checker is implemented by embedding backends that can verify their
// model is available before work starts.
type checker interface {
	Check(ctx context.Context) error
}

func runIndex(cmd *cobra.Command, args []string) error {
	root, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if c, ok := a.Embedder.(checker); ok {
		if err := c.Check(ctx); err != nil {
			return err
		}
	}

	fmt.Printf("Scanning %s...\n", root)

	// extraction counts files, embedding counts chunks; each phase gets
	// its own bar so neither total overruns the other
	var (
		bar     *progressbar.ProgressBar
		barMu   sync.Mutex
		phase   string
		started time.Time
	)
	progress := func(done, total int, filename string) {
		barMu.Lock()
		defer barMu.Unlock()

		label := "Extracting"
		if filename == usecase.EmbedPhase {
			label = "Embedding"
		}
		if bar == nil || label != phase {
			if bar != nil {
				bar.Finish()
			}
			phase = label
			started = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription(label),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}
		bar.Set(done)

		if done > 0 && done < total {
			rate := float64(done) / time.Since(started).Seconds()
			if rate > 0 {
				eta := time.Duration(float64(total-done)/rate) * time.Second
				bar.Describe(fmt.Sprintf("%s (ETA %s)", phase, eta.Round(time.Second)))
			}
		}
	}

	result, err := a.Pipeline().Index(ctx, root, progress)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrFolderNotFound):
			return fmt.Errorf("folder not found: %s", root)
		case errors.Is(err, domain.ErrDeniedFolder):
			return fmt.Errorf("refusing to index system folder: %s", root)
		case errors.Is(err, context.Canceled):
			fmt.Println("\nIndexing interrupted; progress so far is saved.")
			return nil
		}
		return fmt.Errorf("indexing failed: %w", err)
	}
	a.Cache.Invalidate()

	fmt.Printf("\nIndexing complete:\n")
	fmt.Printf("  Files indexed: %d\n", result.FilesIndexed)
	fmt.Printf("  Files skipped: %d (unchanged)\n", result.FilesSkipped)
	fmt.Printf("  Files failed:  %d\n", result.FilesFailed)
	fmt.Printf("  Chunks stored: %d\n", result.ChunksIndexed)

	if len(result.Warnings) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, w := range result.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	fmt.Printf("\nIndex stored at: %s\n", cfg.IndexDBPath())
	return nil
}
