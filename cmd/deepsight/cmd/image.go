package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var imageJSON bool

var imageCmd = &cobra.Command{
	Use:   "image <path>",
	Short: "Process a single image through the full pipeline",
	Args:  cobra.ExactArgs(1),
	RunE:  runImage,
}

func init() {
	imageCmd.Flags().BoolVar(&imageJSON, "json", false, "print the result as JSON instead of YAML")
	rootCmd.AddCommand(imageCmd)
}

func runImage(cmd *cobra.Command, args []string) error {
	imagePath := args[0]
	if _, err := os.Stat(imagePath); err != nil {
		return fmt.Errorf("image not found: %s", imagePath)
	}

	orch, ext, _ := buildPipeline(cfg)
	defer func() { _ = ext.Close() }()

	result, err := orch.Process(cmd.Context(), imagePath, cfg.Batch.SaveToStorage)
	if err != nil {
		// Partial results are still printed; the error summarizes what failed.
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	if imageJSON {
		return printJSON(cmd.OutOrStdout(), result)
	}

	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to render result: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}
