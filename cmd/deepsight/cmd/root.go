package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/deepsight/internal/config"
	"github.com/MeKo-Tech/deepsight/internal/extractor"
	"github.com/MeKo-Tech/deepsight/internal/llm"
	"github.com/MeKo-Tech/deepsight/internal/pipeline"
	"github.com/MeKo-Tech/deepsight/internal/storage"
	"github.com/MeKo-Tech/deepsight/internal/version"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "deepsight",
	Short: "Image understanding pipeline: OCR, description, translation",
	Long: `DeepSight processes images through a three-stage pipeline: text
extraction with a tiered OCR cascade, vision-LLM description, and LLM
translation into configured target languages. Folders are processed as
resumable batches with progress persisted alongside the images.`,
	Version:           fmt.Sprintf("%s (commit %s, built %s)", version.Version, version.Commit, version.Date),
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches ./deepsight.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable verbose logging (same as --log-level debug)")
	rootCmd.PersistentFlags().String("data-dir", "data", "application data directory")
}

// setup loads configuration and configures logging before any command runs.
func setup(cmd *cobra.Command, _ []string) error {
	loader := config.NewLoader()
	if cfgFile != "" {
		loader.SetConfigFile(cfgFile)
	}

	flags := cmd.Root().PersistentFlags()
	bindings := map[string]string{
		"log_level": "log-level",
		"verbose":   "verbose",
		"data_dir":  "data-dir",
	}
	for key, name := range bindings {
		if err := loader.BindFlag(key, flags.Lookup(name)); err != nil {
			return err
		}
	}

	loaded, err := loader.Load()
	if err != nil {
		return err
	}
	cfg = loaded

	configureLogging(cfg)
	return nil
}

func configureLogging(cfg *config.Config) {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if cfg.Verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// buildPipeline wires the full per-image pipeline from configuration.
// The returned extractor must be closed by the caller.
func buildPipeline(cfg *config.Config) (*pipeline.Orchestrator, *extractor.Extractor, *llm.Client) {
	ext := extractor.New(cfg.OCR)
	client := llm.NewClient(cfg.LLM)
	store := storage.NewStore(cfg.DataDir)
	targets := llm.NormalizeTargets(cfg.LLM.TargetLanguages)

	orch := pipeline.NewOrchestrator(ext, client, store, cfg.Image, targets)
	return orch, ext, client
}
