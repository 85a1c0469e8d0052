package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/deepsight/internal/batch"
	"github.com/MeKo-Tech/deepsight/internal/progress"
)

var batchRecursive bool

var batchCmd = &cobra.Command{
	Use:   "batch <folder>",
	Short: "Process every image in a folder as a resumable batch",
	Long: `Processes all supported images in a folder sequentially. Progress is
persisted to <folder>/<folder>_progress.yaml after every few images, so an
interrupted batch resumes where it stopped when rerun.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().BoolVar(&batchRecursive, "recursive", false, "include images in subfolders")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	folder := args[0]

	orch, ext, _ := buildPipeline(cfg)
	defer func() { _ = ext.Close() }()

	registry := batch.NewRegistry(cfg.Batch.MaxHistory)
	coord := batch.NewCoordinator(registry, progress.NewStore(), orch, cfg.Batch)

	batchID, err := coord.Start(cmd.Context(), folder, batchRecursive)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "batch %s started over %s\n", batchID, folder)

	rec := pollUntilFinished(coord, batchID, out)

	fmt.Fprintf(out, "batch %s: %s (%d completed, %d failed of %d)\n",
		batchID, rec.Status, rec.CompletedImages, rec.FailedImages, rec.TotalImages)
	if rec.Status == batch.StatusFailed {
		return fmt.Errorf("batch failed: %s", rec.Error)
	}
	return nil
}

// pollUntilFinished reports progress once per second until the batch reaches
// a terminal status.
func pollUntilFinished(coord *batch.Coordinator, batchID string, out io.Writer) batch.Record {
	var last batch.Record
	for {
		rec, ok := coord.Status(batchID)
		if !ok {
			return last
		}
		last = rec
		if rec.Finished() {
			return rec
		}
		if rec.CurrentImage != "" {
			fmt.Fprintf(out, "  [%3.0f%%] %s\n", rec.ProgressPercent(), rec.CurrentImage)
		}
		time.Sleep(time.Second)
	}
}

// printJSON renders any value as indented JSON.
func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to render result: %w", err)
	}
	return nil
}
