package extractor

import (
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// cliEngine shells out to a tesseract binary found on PATH. It exists for
// hosts where the library binding is unavailable but the CLI tool is
// installed.
type cliEngine struct {
	binary   string
	language string
}

// newCLIEngine checks that a tesseract binary is resolvable on PATH.
func newCLIEngine(language string) (*cliEngine, error) {
	binary, err := exec.LookPath("tesseract")
	if err != nil {
		return nil, fmt.Errorf("tesseract binary not found on PATH: %w", err)
	}
	return &cliEngine{binary: binary, language: language}, nil
}

func (e *cliEngine) Name() Tier { return TierTesseractCLI }

func (e *cliEngine) ExtractText(img image.Image) (string, error) {
	dir, err := os.MkdirTemp("", "deepsight-ocr-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	inputPath := filepath.Join(dir, "region.png")
	if err := imaging.Save(img, inputPath); err != nil {
		return "", fmt.Errorf("failed to write temp image: %w", err)
	}

	// "stdout" makes tesseract print recognized text instead of writing a file.
	args := []string{inputPath, "stdout"}
	if e.language != "" {
		args = append(args, "-l", e.language)
	}

	out, err := exec.Command(e.binary, args...).Output()
	if err != nil {
		return "", fmt.Errorf("tesseract CLI failed: %w", err)
	}
	return string(out), nil
}

func (e *cliEngine) Close() error { return nil }
