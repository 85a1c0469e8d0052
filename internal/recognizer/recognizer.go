package recognizer

import (
	"bufio"
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"

	"github.com/disintegration/imaging"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/MeKo-Tech/deepsight/internal/utils"
)

// Config holds text recognizer settings.
type Config struct {
	ModelPath string
	DictPath  string
	// ImageHeight is the fixed input height the model expects.
	ImageHeight int
	// MaxWidth caps the scaled input width.
	MaxWidth   int
	NumThreads int
}

// DefaultConfig returns sensible recognizer defaults.
func DefaultConfig() Config {
	return Config{
		ModelPath:   "models/recognizer.onnx",
		DictPath:    "models/dict.txt",
		ImageHeight: 48,
		MaxWidth:    1024,
		NumThreads:  0,
	}
}

// Recognizer transcribes text from cropped region images using an ONNX
// CTC model.
type Recognizer struct {
	config      Config
	session     *ort.DynamicAdvancedSession
	sessionOpts *ort.SessionOptions
	inputName   string
	outputName  string
	dict        []string
	mu          sync.Mutex
}

// NewRecognizer loads the recognition model and its character dictionary.
func NewRecognizer(config Config) (*Recognizer, error) {
	if _, err := os.Stat(config.ModelPath); err != nil {
		return nil, fmt.Errorf("recognizer model not found at %s: %w", config.ModelPath, err)
	}

	dict, err := loadDictionary(config.DictPath)
	if err != nil {
		return nil, err
	}

	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
		}
	}

	inputs, outputs, err := ort.GetInputOutputInfo(config.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read recognizer model info: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, fmt.Errorf("recognizer model has no inputs or outputs")
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	if config.NumThreads > 0 {
		if err := opts.SetIntraOpNumThreads(config.NumThreads); err != nil {
			_ = opts.Destroy()
			return nil, fmt.Errorf("failed to set recognizer thread count: %w", err)
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
		return nil, fmt.Errorf("failed to create recognizer session: %w", err)
	}

	slog.Debug("recognizer session created",
		"model", config.ModelPath,
		"dict_size", len(dict))

	return &Recognizer{
		config:      config,
		session:     session,
		sessionOpts: opts,
		inputName:   inputs[0].Name,
		outputName:  outputs[0].Name,
		dict:        dict,
	}, nil
}

// loadDictionary reads a character dictionary, one character per line.
// Index 0 of the model's output distribution is reserved for the CTC blank,
// so dictionary entry i maps to class index i+1.
func loadDictionary(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dictionary %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var dict []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		dict = append(dict, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dictionary %s: %w", path, err)
	}
	if len(dict) == 0 {
		return nil, fmt.Errorf("dictionary %s is empty", path)
	}
	return dict, nil
}

// Recognize transcribes a single cropped text region.
func (r *Recognizer) Recognize(img image.Image) (string, float64, error) {
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return "", 0, fmt.Errorf("empty region")
	}

	// Scale to fixed model height preserving aspect ratio.
	scaledW := bounds.Dx() * r.config.ImageHeight / bounds.Dy()
	if scaledW < 8 {
		scaledW = 8
	}
	if scaledW > r.config.MaxWidth {
		scaledW = r.config.MaxWidth
	}
	resized := imaging.Resize(img, scaledW, r.config.ImageHeight, imaging.Lanczos)

	data, w, h := utils.NormalizeImage(resized)

	inputTensor, err := ort.NewTensor(ort.NewShape(1, 3, int64(h), int64(w)), data)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer func() { _ = inputTensor.Destroy() }()

	outputs := []ort.Value{nil}

	r.mu.Lock()
	err = r.session.Run([]ort.Value{inputTensor}, outputs)
	r.mu.Unlock()
	if err != nil {
		return "", 0, fmt.Errorf("recognizer inference failed: %w", err)
	}
	defer func() { _ = outputs[0].Destroy() }()

	outTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return "", 0, fmt.Errorf("unexpected recognizer output type")
	}

	logits := outTensor.GetData()
	shape := outTensor.GetShape()
	steps, classes, err := sequenceDims(shape)
	if err != nil {
		return "", 0, err
	}

	text, confidence := decodeGreedy(logits, steps, classes, r.dict)
	return text, confidence, nil
}

// Close releases the inference session.
func (r *Recognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session != nil {
		if err := r.session.Destroy(); err != nil {
			return fmt.Errorf("failed to destroy recognizer session: %w", err)
		}
		r.session = nil
	}
	if r.sessionOpts != nil {
		_ = r.sessionOpts.Destroy()
		r.sessionOpts = nil
	}
	return nil
}

// sequenceDims extracts (timesteps, classes) from a [1,T,C] or [T,C] shape.
func sequenceDims(shape []int64) (int, int, error) {
	switch len(shape) {
	case 3:
		return int(shape[1]), int(shape[2]), nil
	case 2:
		return int(shape[0]), int(shape[1]), nil
	default:
		return 0, 0, fmt.Errorf("unexpected recognizer output shape %v", shape)
	}
}
