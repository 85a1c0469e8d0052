package extractor

import "image"

// Tier identifies which level of the extraction cascade is active.
type Tier string

const (
	// TierPrimary is the ONNX detector + recognizer pair.
	TierPrimary Tier = "primary"
	// TierTesseract is the in-process libtesseract binding.
	TierTesseract Tier = "tesseract"
	// TierTesseractCLI shells out to the tesseract binary.
	TierTesseractCLI Tier = "tesseract-cli"
	// TierNone performs no extraction.
	TierNone Tier = "none"
)

// Engine extracts text from a decoded image. Implementations correspond to
// cascade tiers and are selected once at construction.
type Engine interface {
	// Name identifies the engine's tier.
	Name() Tier
	// ExtractText returns all text found in the image.
	ExtractText(img image.Image) (string, error)
	// Close releases engine resources.
	Close() error
}

// noneEngine is the terminal tier; it extracts nothing.
type noneEngine struct{}

func (noneEngine) Name() Tier                              { return TierNone }
func (noneEngine) ExtractText(image.Image) (string, error) { return "", nil }
func (noneEngine) Close() error                            { return nil }
