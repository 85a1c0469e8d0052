package detector

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"

	"github.com/disintegration/imaging"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/MeKo-Tech/deepsight/internal/utils"
)

// Config holds text detector settings.
type Config struct {
	ModelPath    string
	MaxImageSize int
	// BinaryThreshold binarizes the probability map.
	BinaryThreshold float64
	// MinConfidence drops low-confidence regions.
	MinConfidence float64
	NumThreads    int
}

// DefaultConfig returns sensible detector defaults.
func DefaultConfig() Config {
	return Config{
		ModelPath:       "models/detector.onnx",
		MaxImageSize:    2048,
		BinaryThreshold: 0.3,
		MinConfidence:   0.3,
		NumThreads:      0,
	}
}

// Detector finds text regions in images using a DB-style ONNX segmentation
// model.
type Detector struct {
	config      Config
	session     *ort.DynamicAdvancedSession
	sessionOpts *ort.SessionOptions
	inputName   string
	outputName  string
	mu          sync.Mutex
}

// initRuntime initializes the shared ONNX runtime environment if needed.
func initRuntime() error {
	if ort.IsInitialized() {
		return nil
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX runtime: %w", err)
	}
	return nil
}

// NewDetector loads the detection model and creates an inference session.
func NewDetector(config Config) (*Detector, error) {
	if _, err := os.Stat(config.ModelPath); err != nil {
		return nil, fmt.Errorf("detector model not found at %s: %w", config.ModelPath, err)
	}

	if err := initRuntime(); err != nil {
		return nil, err
	}

	inputs, outputs, err := ort.GetInputOutputInfo(config.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read detector model info: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, fmt.Errorf("detector model has no inputs or outputs")
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	if config.NumThreads > 0 {
		if err := opts.SetIntraOpNumThreads(config.NumThreads); err != nil {
			_ = opts.Destroy()
			return nil, fmt.Errorf("failed to set detector thread count: %w", err)
		}
	}

	session, err := ort.NewDynamicAdvancedSession(
		config.ModelPath,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		opts,
	)
	if err != nil {
		_ = opts.Destroy()
		return nil, fmt.Errorf("failed to create detector session: %w", err)
	}

	slog.Debug("detector session created",
		"model", config.ModelPath,
		"input", inputs[0].Name,
		"output", outputs[0].Name)

	return &Detector{
		config:      config,
		session:     session,
		sessionOpts: opts,
		inputName:   inputs[0].Name,
		outputName:  outputs[0].Name,
	}, nil
}

// Detect runs text detection and returns regions in original image
// coordinates, sorted top-to-bottom then left-to-right.
func (d *Detector) Detect(img image.Image) ([]Region, error) {
	bounds := img.Bounds()
	origW, origH := bounds.Dx(), bounds.Dy()
	if origW == 0 || origH == 0 {
		return nil, fmt.Errorf("empty image")
	}

	prepared := utils.BoundLongestSide(img, d.config.MaxImageSize)

	// DB models require dimensions divisible by 32.
	pw := roundToMultiple(prepared.Bounds().Dx(), 32)
	ph := roundToMultiple(prepared.Bounds().Dy(), 32)
	resized := imaging.Resize(prepared, pw, ph, imaging.Lanczos)

	data, w, h := utils.NormalizeImage(resized)

	inputTensor, err := ort.NewTensor(ort.NewShape(1, 3, int64(h), int64(w)), data)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer func() { _ = inputTensor.Destroy() }()

	outputs := []ort.Value{nil}

	d.mu.Lock()
	err = d.session.Run([]ort.Value{inputTensor}, outputs)
	d.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("detector inference failed: %w", err)
	}
	defer func() { _ = outputs[0].Destroy() }()

	outTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected detector output type")
	}

	probMap := outTensor.GetData()
	shape := outTensor.GetShape()
	mapH, mapW, err := probMapDims(shape)
	if err != nil {
		return nil, err
	}

	scaleX := float64(origW) / float64(mapW)
	scaleY := float64(origH) / float64(mapH)

	regions := extractRegions(probMap, mapW, mapH, d.config.BinaryThreshold, d.config.MinConfidence)
	for i := range regions {
		regions[i].Box = scaleRect(regions[i].Box, scaleX, scaleY, origW, origH)
	}
	sortRegions(regions)
	return regions, nil
}

// Close releases the inference session.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.session != nil {
		if err := d.session.Destroy(); err != nil {
			return fmt.Errorf("failed to destroy detector session: %w", err)
		}
		d.session = nil
	}
	if d.sessionOpts != nil {
		_ = d.sessionOpts.Destroy()
		d.sessionOpts = nil
	}
	return nil
}

// probMapDims extracts H and W from a [1,1,H,W] or [1,H,W] output shape.
func probMapDims(shape []int64) (int, int, error) {
	switch len(shape) {
	case 4:
		return int(shape[2]), int(shape[3]), nil
	case 3:
		return int(shape[1]), int(shape[2]), nil
	default:
		return 0, 0, fmt.Errorf("unexpected detector output shape %v", shape)
	}
}

func roundToMultiple(v, m int) int {
	if v < m {
		return m
	}
	rounded := (v / m) * m
	if rounded == 0 {
		rounded = m
	}
	return rounded
}

func scaleRect(r image.Rectangle, sx, sy float64, maxW, maxH int) image.Rectangle {
	scaled := image.Rect(
		int(float64(r.Min.X)*sx),
		int(float64(r.Min.Y)*sy),
		int(float64(r.Max.X)*sx),
		int(float64(r.Max.Y)*sy),
	)
	return scaled.Intersect(image.Rect(0, 0, maxW, maxH))
}
