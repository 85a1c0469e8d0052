package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/MeKo-Tech/deepsight/internal/config"
)

const defaultDescriptionPrompt = `Describe this image. Respond with a JSON object containing exactly these keys:
"description" (a detailed description of the image),
"scene" (the overall scene or setting),
"context" (likely context or purpose of the image),
"text" (any visible text, or an empty string).
Respond with only the JSON object.`

// Client talks to an Ollama-compatible API for image description and text
// translation. All failures are reported as errors; callers decide how soft
// to fail.
type Client struct {
	baseURL           string
	model             string
	temperature       float64
	maxTokens         int
	describeTimeout   time.Duration
	translateTimeout  time.Duration
	descriptionPrompt string
	httpClient        *http.Client
}

// Description is the structured result of describing an image.
type Description struct {
	Description string `json:"description" yaml:"description"`
	Scene       string `json:"scene" yaml:"scene"`
	Context     string `json:"context" yaml:"context"`
	Text        string `json:"text" yaml:"text"`
	Model       string `json:"model" yaml:"model"`
}

// NewClient builds a client from configuration.
func NewClient(cfg config.LLMConfig) *Client {
	prompt := cfg.DescriptionPrompt
	if prompt == "" {
		prompt = defaultDescriptionPrompt
	}
	return &Client{
		baseURL:           cfg.BaseURL(),
		model:             cfg.Model,
		temperature:       cfg.Temperature,
		maxTokens:         cfg.MaxTokens,
		describeTimeout:   time.Duration(cfg.DescribeTimeoutSec) * time.Second,
		translateTimeout:  time.Duration(cfg.TranslateTimeoutSec) * time.Second,
		descriptionPrompt: prompt,
		httpClient:        &http.Client{},
	}
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Images  []string       `json:"images,omitempty"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// generate posts a single non-streaming generation request.
func (c *Client) generate(ctx context.Context, timeout time.Duration, req generateRequest) (*generateResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req.Options = map[string]any{
		"temperature": c.temperature,
		"num_predict": c.maxTokens,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("LLM request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("LLM returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode LLM response: %w", err)
	}
	return &out, nil
}

// Describe sends the image at path to the vision model and returns a
// structured description. When the model does not produce valid JSON, the
// raw text becomes the description and the structured fields stay empty.
func (c *Client) Describe(ctx context.Context, imagePath string) (*Description, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s: %w", imagePath, err)
	}

	resp, err := c.generate(ctx, c.describeTimeout, generateRequest{
		Model:  c.model,
		Prompt: c.descriptionPrompt,
		Images: []string{base64.StdEncoding.EncodeToString(data)},
	})
	if err != nil {
		return nil, err
	}

	desc := parseDescription(resp.Response)
	desc.Model = resp.Model
	if desc.Model == "" {
		desc.Model = c.model
	}
	return desc, nil
}

// parseDescription attempts to read the model output as the structured JSON
// the prompt asks for, tolerating markdown code fences. Anything else is
// treated as plain prose.
func parseDescription(raw string) *Description {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var desc Description
	if strings.HasPrefix(cleaned, "{") && json.Unmarshal([]byte(cleaned), &desc) == nil && desc.Description != "" {
		return &desc
	}
	return &Description{Description: strings.TrimSpace(raw)}
}

// Translate translates text into the target language. Empty or
// whitespace-only input returns "" immediately without a network call.
func (c *Client) Translate(ctx context.Context, text, language string) (string, error) {
	return c.TranslateWithContext(ctx, text, language, "")
}

// TranslateWithContext translates text into the target language, optionally
// giving the model scene or context material to disambiguate wording. The
// empty-input short-circuit applies here too.
func (c *Client) TranslateWithContext(ctx context.Context, text, language, contextHint string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	prompt := fmt.Sprintf(
		"Translate the following text to %s. Respond with only the translation, no explanations.\n\n%s",
		language, text)
	if strings.TrimSpace(contextHint) != "" {
		prompt = fmt.Sprintf(
			"Translate the following text to %s. The text was extracted from an image; context: %s. Respond with only the translation, no explanations.\n\n%s",
			language, strings.TrimSpace(contextHint), text)
	}

	resp, err := c.generate(ctx, c.translateTimeout, generateRequest{
		Model:  c.model,
		Prompt: prompt,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Response), nil
}

// CheckConnection reports whether the LLM service answers its model listing
// endpoint.
func (c *Client) CheckConnection(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Debug("LLM connection check failed", "error", err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode == http.StatusOK
}
