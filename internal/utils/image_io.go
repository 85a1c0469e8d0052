package utils

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	// Register decoders for the supported image formats.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// SupportedImageExtensions lists the file extensions treated as images,
// lowercase with leading dot.
var SupportedImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".tiff", ".tif", ".webp"}

// IsSupportedImage reports whether the path has a supported image extension.
func IsSupportedImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, supported := range SupportedImageExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// ImageMetadata captures basic properties of a decoded image.
type ImageMetadata struct {
	Width  int
	Height int
	Format string
	Path   string
}

// LoadImage opens and decodes an image file, returning the image and its
// metadata.
func LoadImage(path string) (image.Image, ImageMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ImageMetadata{}, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, ImageMetadata{}, fmt.Errorf("failed to decode image %s: %w", path, err)
	}

	bounds := img.Bounds()
	meta := ImageMetadata{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Format: format,
		Path:   path,
	}
	return img, meta, nil
}
