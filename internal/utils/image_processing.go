package utils

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// ImageProcessingError represents an error during image manipulation.
type ImageProcessingError struct {
	Op   string
	Path string
	Err  error
}

func (e *ImageProcessingError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("image %s failed for %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("image %s failed: %v", e.Op, e.Err)
}

func (e *ImageProcessingError) Unwrap() error {
	return e.Err
}

// ResizeToFit scales img down so both dimensions fit within maxWidth x
// maxHeight, preserving aspect ratio. Images already within bounds are
// returned unchanged; it never upscales.
func ResizeToFit(img image.Image, maxWidth, maxHeight int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxWidth && h <= maxHeight {
		return img
	}
	return imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)
}

// BoundLongestSide scales img down so its longest side does not exceed
// maxSize, preserving aspect ratio. It never upscales.
func BoundLongestSide(img image.Image, maxSize int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxSize && h <= maxSize {
		return img
	}
	if w >= h {
		return imaging.Resize(img, maxSize, 0, imaging.Lanczos)
	}
	return imaging.Resize(img, 0, maxSize, imaging.Lanczos)
}

// SaveWorkingCopy writes img as a JPEG at the given quality, creating parent
// directories as needed. It returns the resolved dimensions of the saved image.
func SaveWorkingCopy(img image.Image, path string, quality int) (int, int, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return 0, 0, &ImageProcessingError{Op: "save", Path: path, Err: err}
	}
	if err := imaging.Save(img, path, imaging.JPEGQuality(quality)); err != nil {
		return 0, 0, &ImageProcessingError{Op: "save", Path: path, Err: err}
	}
	bounds := img.Bounds()
	return bounds.Dx(), bounds.Dy(), nil
}

// CropRegion extracts the given rectangle from img, clamped to the image
// bounds.
func CropRegion(img image.Image, rect image.Rectangle) (image.Image, error) {
	clamped := rect.Intersect(img.Bounds())
	if clamped.Empty() {
		return nil, &ImageProcessingError{Op: "crop", Err: fmt.Errorf("region %v outside image bounds %v", rect, img.Bounds())}
	}
	return imaging.Crop(img, clamped), nil
}

// NormalizeImage converts img to NCHW float32 data in [0,1], RGB channel
// order, for ONNX model input. The returned slice has length 3*height*width.
func NormalizeImage(img image.Image) ([]float32, int, int) {
	rgba := imaging.Clone(img)
	bounds := rgba.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	data := make([]float32, 3*w*h)
	plane := w * h
	for y := 0; y < h; y++ {
		row := y * rgba.Stride
		for x := 0; x < w; x++ {
			off := row + x*4
			idx := y*w + x
			data[idx] = float32(rgba.Pix[off]) / 255.0
			data[plane+idx] = float32(rgba.Pix[off+1]) / 255.0
			data[2*plane+idx] = float32(rgba.Pix[off+2]) / 255.0
		}
	}
	return data, w, h
}
