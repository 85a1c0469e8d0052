package extractor

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/deepsight/internal/config"
)

type stubEngine struct {
	tier   Tier
	text   string
	err    error
	calls  int
	closed bool
}

func (s *stubEngine) Name() Tier { return s.tier }

func (s *stubEngine) ExtractText(image.Image) (string, error) {
	s.calls++
	return s.text, s.err
}

func (s *stubEngine) Close() error {
	s.closed = true
	return nil
}

func testOCRConfig() config.OCRConfig {
	return config.OCRConfig{MaxImageSize: 2048, MinConfidence: 0.3}
}

func writeTestImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.png")
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.White)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	require.NoError(t, png.Encode(f, img))
	return path
}

func available(e Engine) factory {
	return factory{e.Name(), func() (Engine, error) { return e, nil }}
}

func unavailable(tier Tier) factory {
	return factory{tier, func() (Engine, error) { return nil, errors.New("not available") }}
}

func TestCascadeSelectsFirstAvailable(t *testing.T) {
	primary := &stubEngine{tier: TierPrimary, text: "hello"}
	ext := newWithFactories(testOCRConfig(), []factory{
		available(primary),
		available(&stubEngine{tier: TierTesseract}),
	})

	assert.Equal(t, TierPrimary, ext.ActiveTier())
}

func TestCascadeDegradesInOrder(t *testing.T) {
	tess := &stubEngine{tier: TierTesseract, text: "fallback text"}
	ext := newWithFactories(testOCRConfig(), []factory{
		unavailable(TierPrimary),
		available(tess),
		available(&stubEngine{tier: TierTesseractCLI}),
	})

	assert.Equal(t, TierTesseract, ext.ActiveTier())
	assert.Equal(t, "fallback text", ext.Extract(writeTestImage(t)))
}

func TestCascadeSkipsToCLI(t *testing.T) {
	cli := &stubEngine{tier: TierTesseractCLI, text: "cli text"}
	ext := newWithFactories(testOCRConfig(), []factory{
		unavailable(TierPrimary),
		unavailable(TierTesseract),
		available(cli),
	})

	assert.Equal(t, TierTesseractCLI, ext.ActiveTier())
}

func TestCascadeExhaustedFallsToNone(t *testing.T) {
	ext := newWithFactories(testOCRConfig(), []factory{
		unavailable(TierPrimary),
		unavailable(TierTesseract),
		unavailable(TierTesseractCLI),
	})

	assert.Equal(t, TierNone, ext.ActiveTier())
	assert.Empty(t, ext.Extract(writeTestImage(t)))
}

func TestExtractUnreadableImageYieldsEmpty(t *testing.T) {
	engine := &stubEngine{tier: TierPrimary, text: "should not be reached"}
	ext := newWithFactories(testOCRConfig(), []factory{available(engine)})

	text := ext.Extract(filepath.Join(t.TempDir(), "missing.png"))
	assert.Empty(t, text)
	assert.Zero(t, engine.calls)
}

func TestExtractEngineFailureYieldsEmpty(t *testing.T) {
	engine := &stubEngine{tier: TierPrimary, err: errors.New("inference blew up")}
	ext := newWithFactories(testOCRConfig(), []factory{available(engine)})

	details := ext.ExtractWithDetails(writeTestImage(t))
	assert.Empty(t, details.Text)
	assert.Equal(t, TierPrimary, details.Tier)
	assert.Equal(t, 1, engine.calls)
}

func TestExtractWithDetailsCounts(t *testing.T) {
	engine := &stubEngine{tier: TierTesseract, text: "  hello wide world \n"}
	ext := newWithFactories(testOCRConfig(), []factory{available(engine)})

	details := ext.ExtractWithDetails(writeTestImage(t))
	assert.Equal(t, "hello wide world", details.Text)
	assert.Equal(t, 16, details.CharCount)
	assert.Equal(t, 3, details.WordCount)
	assert.Equal(t, TierTesseract, details.Tier)
}

func TestExtractNoMidCallCascade(t *testing.T) {
	failing := &stubEngine{tier: TierPrimary, err: errors.New("transient failure")}
	ext := newWithFactories(testOCRConfig(), []factory{available(failing)})

	path := writeTestImage(t)
	assert.Empty(t, ext.Extract(path))
	// Tier stays resolved; the failure does not demote the engine.
	assert.Equal(t, TierPrimary, ext.ActiveTier())
	assert.Empty(t, ext.Extract(path))
	assert.Equal(t, 2, failing.calls)
}

func TestCloseReleasesEngine(t *testing.T) {
	engine := &stubEngine{tier: TierTesseract}
	ext := newWithFactories(testOCRConfig(), []factory{available(engine)})

	require.NoError(t, ext.Close())
	assert.True(t, engine.closed)
}
