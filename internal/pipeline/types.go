package pipeline

// ImageMetadata records how and when an image was processed.
type ImageMetadata struct {
	ModelName         string  `json:"model_name" yaml:"model_name"`
	Timestamp         string  `json:"timestamp" yaml:"timestamp"`
	ProcessingTimeSec float64 `json:"processing_time_sec" yaml:"processing_time_sec"`
	ImageWidth        int     `json:"image_width" yaml:"image_width"`
	ImageHeight       int     `json:"image_height" yaml:"image_height"`
	OriginalPath      string  `json:"original_path" yaml:"original_path"`
}

// ImageResult is the complete record produced for one image. It is the unit
// persisted in progress files and returned by the single-image API.
type ImageResult struct {
	ImageName     string            `json:"image_name" yaml:"image_name"`
	ExtractedText string            `json:"extracted_text" yaml:"extracted_text"`
	OCRTier       string            `json:"ocr_tier" yaml:"ocr_tier"`
	Translations  map[string]string `json:"translations" yaml:"translations"`
	Description   string            `json:"description" yaml:"description"`
	Scene         string            `json:"scene,omitempty" yaml:"scene,omitempty"`
	Context       string            `json:"context,omitempty" yaml:"context,omitempty"`
	VisibleText   string            `json:"visible_text,omitempty" yaml:"visible_text,omitempty"`
	Metadata      ImageMetadata     `json:"metadata" yaml:"metadata"`
}
