package extractor

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"
)

// tesseractEngine wraps the libtesseract binding. A single client is reused
// across calls; the extractor serializes access.
type tesseractEngine struct {
	client   *gosseract.Client
	language string
}

// newTesseractEngine creates the binding client and verifies libtesseract is
// actually usable by asking for its version.
func newTesseractEngine(language string) (*tesseractEngine, error) {
	client := gosseract.NewClient()
	if client.Version() == "" {
		_ = client.Close()
		return nil, fmt.Errorf("libtesseract not available")
	}
	if language != "" {
		if err := client.SetLanguage(language); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to set tesseract language %q: %w", language, err)
		}
	}
	return &tesseractEngine{client: client, language: language}, nil
}

func (e *tesseractEngine) Name() Tier { return TierTesseract }

func (e *tesseractEngine) ExtractText(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode image for tesseract: %w", err)
	}
	if err := e.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to set tesseract image: %w", err)
	}
	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract recognition failed: %w", err)
	}
	return text, nil
}

func (e *tesseractEngine) Close() error {
	return e.client.Close()
}
