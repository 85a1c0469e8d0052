package extractor

import (
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/MeKo-Tech/deepsight/internal/config"
	"github.com/MeKo-Tech/deepsight/internal/utils"
)

// factory builds one cascade tier. Construction failure means the tier is
// unavailable on this host.
type factory struct {
	tier  Tier
	build func() (Engine, error)
}

// Extractor resolves the best available OCR engine once at construction and
// uses it for every extraction. Resolution walks the cascade in order:
// primary (ONNX pair), tesseract binding, tesseract CLI, none. There is no
// mid-call fallback: a failure of the active engine yields empty text for
// that image only.
type Extractor struct {
	config config.OCRConfig
	engine Engine
	mu     sync.Mutex
}

// Details reports what an extraction produced and which tier produced it.
type Details struct {
	Text      string `json:"text" yaml:"text"`
	CharCount int    `json:"char_count" yaml:"char_count"`
	WordCount int    `json:"word_count" yaml:"word_count"`
	Tier      Tier   `json:"tier" yaml:"tier"`
}

// New creates an extractor with the standard cascade.
func New(cfg config.OCRConfig) *Extractor {
	return newWithFactories(cfg, []factory{
		{TierPrimary, func() (Engine, error) { return newPrimaryEngine(cfg) }},
		{TierTesseract, func() (Engine, error) { return newTesseractEngine(cfg.TesseractLanguage) }},
		{TierTesseractCLI, func() (Engine, error) { return newCLIEngine(cfg.TesseractLanguage) }},
	})
}

// newWithFactories resolves the cascade against the given tier factories.
// Tests inject failing factories to exercise degradation without the real
// backends.
func newWithFactories(cfg config.OCRConfig, factories []factory) *Extractor {
	for _, f := range factories {
		engine, err := f.build()
		if err != nil {
			slog.Warn("OCR tier unavailable", "tier", f.tier, "error", err)
			continue
		}
		slog.Info("OCR engine selected", "tier", f.tier)
		return &Extractor{config: cfg, engine: engine}
	}

	slog.Warn("no OCR engine available, text extraction disabled")
	return &Extractor{config: cfg, engine: noneEngine{}}
}

// ActiveTier returns the tier resolved at construction.
func (e *Extractor) ActiveTier() Tier {
	return e.engine.Name()
}

// Extract returns all text found in the image at path. It never returns an
// error: unreadable images and engine failures yield "".
func (e *Extractor) Extract(path string) string {
	return e.ExtractWithDetails(path).Text
}

// ExtractWithDetails extracts text and reports character count, word count,
// and the tier that produced it.
func (e *Extractor) ExtractWithDetails(path string) Details {
	details := Details{Tier: e.engine.Name()}

	if e.engine.Name() == TierNone {
		return details
	}

	img, _, err := utils.LoadImage(path)
	if err != nil {
		slog.Warn("extraction skipped, image unreadable", "path", path, "error", err)
		return details
	}

	prepared := utils.BoundLongestSide(img, e.config.MaxImageSize)

	e.mu.Lock()
	text, err := e.engine.ExtractText(prepared)
	e.mu.Unlock()
	if err != nil {
		slog.Warn("extraction failed", "path", path, "tier", e.engine.Name(), "error", err)
		return details
	}

	text = strings.TrimSpace(text)
	details.Text = text
	details.CharCount = utf8.RuneCountInString(text)
	details.WordCount = len(strings.Fields(text))
	return details
}

// Close releases the active engine's resources.
func (e *Extractor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.engine.Close()
}
