package extractor

import (
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/MeKo-Tech/deepsight/internal/config"
	"github.com/MeKo-Tech/deepsight/internal/detector"
	"github.com/MeKo-Tech/deepsight/internal/recognizer"
	"github.com/MeKo-Tech/deepsight/internal/utils"
)

// primaryEngine runs the detector + recognizer pair: detect regions, crop
// each region from the source image, recognize independently in detection
// order, join the results with single spaces.
type primaryEngine struct {
	det           *detector.Detector
	rec           *recognizer.Recognizer
	minConfidence float64
}

// newPrimaryEngine initializes both ONNX sessions. Any failure makes the
// whole tier unavailable.
func newPrimaryEngine(cfg config.OCRConfig) (*primaryEngine, error) {
	detCfg := detector.DefaultConfig()
	detCfg.ModelPath = cfg.DetectorModelPath
	detCfg.MaxImageSize = cfg.MaxImageSize
	detCfg.MinConfidence = cfg.MinConfidence
	detCfg.NumThreads = cfg.NumThreads

	det, err := detector.NewDetector(detCfg)
	if err != nil {
		return nil, fmt.Errorf("primary tier detector unavailable: %w", err)
	}

	recCfg := recognizer.DefaultConfig()
	recCfg.ModelPath = cfg.RecognizerModelPath
	recCfg.DictPath = cfg.DictPath
	recCfg.NumThreads = cfg.NumThreads

	rec, err := recognizer.NewRecognizer(recCfg)
	if err != nil {
		_ = det.Close()
		return nil, fmt.Errorf("primary tier recognizer unavailable: %w", err)
	}

	return &primaryEngine{det: det, rec: rec, minConfidence: cfg.MinConfidence}, nil
}

func (e *primaryEngine) Name() Tier { return TierPrimary }

func (e *primaryEngine) ExtractText(img image.Image) (string, error) {
	regions, err := e.det.Detect(img)
	if err != nil {
		return "", fmt.Errorf("detection failed: %w", err)
	}

	var parts []string
	for _, region := range regions {
		crop, err := utils.CropRegion(img, region.Box)
		if err != nil {
			slog.Debug("skipping unusable region", "box", region.Box, "error", err)
			continue
		}

		text, confidence, err := e.rec.Recognize(crop)
		if err != nil {
			slog.Debug("recognition failed for region", "box", region.Box, "error", err)
			continue
		}
		if confidence < e.minConfidence {
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		parts = append(parts, strings.TrimSpace(text))
	}

	return strings.Join(parts, " "), nil
}

func (e *primaryEngine) Close() error {
	var firstErr error
	if err := e.det.Close(); err != nil {
		firstErr = err
	}
	if err := e.rec.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
