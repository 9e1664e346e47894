// Package ai wraps the generative-model HTTP API used for OCR,
// classification and record extraction.
package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Request is a single generation call. ImageData, when set, is attached
// inline alongside the prompt.
type Request struct {
	Model     string
	Prompt    string
	ImageData []byte
	ImageMIME string
	// JSONOutput asks the model for an application/json response.
	JSONOutput bool
	// Purpose labels the call for instrumentation. Never sent upstream.
	Purpose string
}

// Client is the interface the pipeline depends on.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// APIError carries the upstream HTTP status so callers can decide whether a
// failure is transient.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("model api status %d: %s", e.Status, e.Body)
}

// GeminiClient talks to the generativelanguage REST API.
type GeminiClient struct {
	apiKey       string
	baseURL      string
	defaultModel string
	httpClient   *http.Client
	log          *slog.Logger
}

func NewGeminiClient(apiKey, baseURL, defaultModel string, timeout time.Duration, log *slog.Logger) *GeminiClient {
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &GeminiClient{
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		defaultModel: defaultModel,
		httpClient:   &http.Client{Timeout: timeout},
		log:          log,
	}
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (c *GeminiClient) Generate(ctx context.Context, req Request) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("model api key is not configured")
	}
	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	parts := []geminiPart{{Text: req.Prompt}}
	if len(req.ImageData) > 0 {
		mime := req.ImageMIME
		if mime == "" {
			mime = "image/jpeg"
		}
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{
			MimeType: mime,
			Data:     base64.StdEncoding.EncodeToString(req.ImageData),
		}})
	}
	body := geminiRequest{Contents: []geminiContent{{Parts: parts}}}
	if req.JSONOutput {
		body.GenerationConfig = &geminiGenerationConfig{ResponseMimeType: "application/json"}
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("model http error: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Warn("model response body close error", "error", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.log.Error("model call failed",
			"model", model, "status", resp.StatusCode,
			"elapsed_ms", time.Since(start).Milliseconds())
		return "", &APIError{Status: resp.StatusCode, Body: string(raw)}
	}

	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode model response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("model returned no content")
	}
	var b strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	c.log.Debug("model call ok",
		"model", model, "prompt_len", len(req.Prompt),
		"has_image", len(req.ImageData) > 0,
		"elapsed_ms", time.Since(start).Milliseconds())
	return b.String(), nil
}
