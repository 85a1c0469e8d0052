package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MeKo-Tech/deepsight/internal/config"
	"github.com/MeKo-Tech/deepsight/internal/extractor"
	"github.com/MeKo-Tech/deepsight/internal/llm"
	"github.com/MeKo-Tech/deepsight/internal/utils"
)

// TextExtractor extracts text from an image file. Extraction is fail-soft
// and never errors; an empty Text means nothing was extracted.
type TextExtractor interface {
	ExtractWithDetails(path string) extractor.Details
}

// Describer is the vision and translation collaborator.
type Describer interface {
	Describe(ctx context.Context, imagePath string) (*llm.Description, error)
	TranslateWithContext(ctx context.Context, text, language, contextHint string) (string, error)
}

// ImageStore durably stores processed source images.
type ImageStore interface {
	SaveImage(path string) (string, error)
}

// Orchestrator runs the per-image sequence: extract text at original
// resolution, resize a working copy for the vision model, describe,
// translate, assemble the result, optionally store the source image.
//
// Process always returns a usable (possibly partial) ImageResult. The error
// reports which steps failed so batch bookkeeping can count the image as
// failed while the record still captures whatever succeeded.
type Orchestrator struct {
	extractor TextExtractor
	llm       Describer
	store     ImageStore
	imageCfg  config.ImageConfig
	targets   []string
}

// NewOrchestrator wires the orchestrator's collaborators. store may be nil
// when durable image storage is disabled. Target languages should already be
// normalized (llm.NormalizeTargets).
func NewOrchestrator(ext TextExtractor, describer Describer, store ImageStore, imageCfg config.ImageConfig, targets []string) *Orchestrator {
	return &Orchestrator{
		extractor: ext,
		llm:       describer,
		store:     store,
		imageCfg:  imageCfg,
		targets:   targets,
	}
}

// Process runs the full pipeline for one image. saveToStorage controls the
// final durable copy step.
func (o *Orchestrator) Process(ctx context.Context, imagePath string, saveToStorage bool) (*ImageResult, error) {
	start := time.Now()
	var stepErrs []error

	result := &ImageResult{
		ImageName:    filepath.Base(imagePath),
		Translations: make(map[string]string),
		Metadata: ImageMetadata{
			Timestamp:    start.UTC().Format(time.RFC3339),
			OriginalPath: imagePath,
		},
	}

	// Text extraction runs against the original resolution.
	details := o.extractor.ExtractWithDetails(imagePath)
	result.ExtractedText = details.Text
	result.OCRTier = string(details.Tier)

	describePath, cleanup := o.prepareWorkingCopy(imagePath, result)
	defer cleanup()

	desc, err := o.llm.Describe(ctx, describePath)
	if err != nil {
		slog.Warn("description failed", "image", result.ImageName, "error", err)
		stepErrs = append(stepErrs, fmt.Errorf("describe: %w", err))
	} else {
		result.Description = desc.Description
		result.Scene = desc.Scene
		result.Context = desc.Context
		result.VisibleText = desc.Text
		result.Metadata.ModelName = desc.Model
	}

	contextHint := buildContextHint(result.Scene, result.Context)
	for _, lang := range o.targets {
		translated, err := o.llm.TranslateWithContext(ctx, result.ExtractedText, lang, contextHint)
		if err != nil {
			slog.Warn("translation failed", "image", result.ImageName, "language", lang, "error", err)
			stepErrs = append(stepErrs, fmt.Errorf("translate %s: %w", lang, err))
			continue
		}
		result.Translations[lang] = translated
	}

	if saveToStorage && o.store != nil {
		if _, err := o.store.SaveImage(imagePath); err != nil {
			slog.Warn("storage save failed", "image", result.ImageName, "error", err)
			stepErrs = append(stepErrs, fmt.Errorf("store: %w", err))
		}
	}

	result.Metadata.ProcessingTimeSec = time.Since(start).Seconds()
	return result, errors.Join(stepErrs...)
}

// prepareWorkingCopy resizes the image to the configured vision-model bounds
// and writes it as a temporary JPEG, recording the resolved dimensions. The
// returned cleanup removes the temporary file. On any failure the original
// path is used instead.
func (o *Orchestrator) prepareWorkingCopy(imagePath string, result *ImageResult) (string, func()) {
	noop := func() {}

	img, meta, err := utils.LoadImage(imagePath)
	if err != nil {
		slog.Warn("working copy skipped, image unreadable", "image", result.ImageName, "error", err)
		return imagePath, noop
	}
	result.Metadata.ImageWidth = meta.Width
	result.Metadata.ImageHeight = meta.Height

	resized := utils.ResizeToFit(img, o.imageCfg.MaxWidth, o.imageCfg.MaxHeight)
	if resized == img {
		return imagePath, noop
	}

	tmpPath := filepath.Join(os.TempDir(), fmt.Sprintf("deepsight-work-%d-%s.jpg", time.Now().UnixNano(), result.ImageName))
	w, h, err := utils.SaveWorkingCopy(resized, tmpPath, o.imageCfg.Quality)
	if err != nil {
		slog.Warn("working copy save failed, describing original", "image", result.ImageName, "error", err)
		return imagePath, noop
	}
	result.Metadata.ImageWidth = w
	result.Metadata.ImageHeight = h
	return tmpPath, func() { _ = os.Remove(tmpPath) }
}

// buildContextHint condenses scene and context fields into prompt material
// for translation.
func buildContextHint(scene, context string) string {
	parts := make([]string, 0, 2)
	if strings.TrimSpace(scene) != "" {
		parts = append(parts, strings.TrimSpace(scene))
	}
	if strings.TrimSpace(context) != "" {
		parts = append(parts, strings.TrimSpace(context))
	}
	return strings.Join(parts, "; ")
}
