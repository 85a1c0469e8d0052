package detector

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildProbMap fills a w x h map with background, then paints the given
// rectangles at the given probability.
func buildProbMap(w, h int, prob float32, rects ...image.Rectangle) []float32 {
	m := make([]float32, w*h)
	for _, r := range rects {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				m[y*w+x] = prob
			}
		}
	}
	return m
}

func TestExtractRegionsSingleBlock(t *testing.T) {
	m := buildProbMap(32, 32, 0.9, image.Rect(4, 4, 12, 8))

	regions := extractRegions(m, 32, 32, 0.3, 0.3)
	require.Len(t, regions, 1)
	assert.Equal(t, image.Rect(4, 4, 12, 8), regions[0].Box)
	assert.InDelta(t, 0.9, regions[0].Confidence, 0.01)
}

func TestExtractRegionsSeparateBlocks(t *testing.T) {
	m := buildProbMap(32, 32, 0.8,
		image.Rect(2, 2, 10, 6),
		image.Rect(20, 20, 28, 24),
	)

	regions := extractRegions(m, 32, 32, 0.3, 0.3)
	require.Len(t, regions, 2)
}

func TestExtractRegionsBelowThreshold(t *testing.T) {
	m := buildProbMap(16, 16, 0.2, image.Rect(2, 2, 10, 10))

	regions := extractRegions(m, 16, 16, 0.3, 0.3)
	assert.Empty(t, regions)
}

func TestExtractRegionsLowConfidenceDropped(t *testing.T) {
	m := buildProbMap(16, 16, 0.4, image.Rect(2, 2, 10, 10))

	// Passes the binary threshold but not the confidence floor.
	regions := extractRegions(m, 16, 16, 0.3, 0.5)
	assert.Empty(t, regions)
}

func TestExtractRegionsSpeckleIgnored(t *testing.T) {
	m := make([]float32, 16*16)
	m[5*16+5] = 0.9

	regions := extractRegions(m, 16, 16, 0.3, 0.3)
	assert.Empty(t, regions)
}

func TestExtractRegionsEmptyInput(t *testing.T) {
	assert.Empty(t, extractRegions(nil, 0, 0, 0.3, 0.3))
	assert.Empty(t, extractRegions([]float32{0.9}, 4, 4, 0.3, 0.3))
}

func TestSortRegionsReadingOrder(t *testing.T) {
	regions := []Region{
		{Box: image.Rect(50, 40, 90, 50)},  // second line, right
		{Box: image.Rect(10, 42, 40, 52)},  // second line, left
		{Box: image.Rect(60, 10, 100, 20)}, // first line, right
		{Box: image.Rect(5, 12, 50, 22)},   // first line, left
	}

	sortRegions(regions)

	assert.Equal(t, image.Rect(5, 12, 50, 22), regions[0].Box)
	assert.Equal(t, image.Rect(60, 10, 100, 20), regions[1].Box)
	assert.Equal(t, image.Rect(10, 42, 40, 52), regions[2].Box)
	assert.Equal(t, image.Rect(50, 40, 90, 50), regions[3].Box)
}

func TestProbMapDims(t *testing.T) {
	h, w, err := probMapDims([]int64{1, 1, 100, 200})
	require.NoError(t, err)
	assert.Equal(t, 100, h)
	assert.Equal(t, 200, w)

	h, w, err = probMapDims([]int64{1, 60, 80})
	require.NoError(t, err)
	assert.Equal(t, 60, h)
	assert.Equal(t, 80, w)

	_, _, err = probMapDims([]int64{100, 200})
	assert.Error(t, err)
}

func TestRoundToMultiple(t *testing.T) {
	assert.Equal(t, 32, roundToMultiple(10, 32))
	assert.Equal(t, 32, roundToMultiple(32, 32))
	assert.Equal(t, 64, roundToMultiple(70, 32))
	assert.Equal(t, 96, roundToMultiple(100, 32))
}

func TestScaleRect(t *testing.T) {
	r := scaleRect(image.Rect(10, 10, 20, 20), 2.0, 3.0, 100, 100)
	assert.Equal(t, image.Rect(20, 30, 40, 60), r)

	// Clamped to image bounds.
	clamped := scaleRect(image.Rect(40, 40, 60, 60), 2.0, 2.0, 100, 100)
	assert.Equal(t, image.Rect(80, 80, 100, 100), clamped)
}
