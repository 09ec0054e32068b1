// Package gemini calls the hosted Gemini generateContent endpoint to turn
// user photos and notes into a single self-contained HTML document.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

const model = "gemini-3-pro-preview"

const generationTemperature = 0.5

// Placeholder returned when the model answers with no usable text.
const emptyDocument = "<!-- no document generated -->"

const systemInstruction = `You are Chrono Canvas, an expert web designer and storyteller.
You turn user photos and notes into one finished web page.
Rules:
1. Respond with exactly one complete, self-contained HTML document.
2. Inline every style in a <style> tag; never reference external scripts, stylesheets, fonts, or images by URL.
3. Build the narrative around the supplied photos and notes; do not invent unrelated facts.
4. Output raw HTML only, without markdown code fences or commentary.`

type Options struct {
	APIKey     string
	BaseURL    string
	APIVersion string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

type Client struct {
	apiKey     string
	baseURL    string
	apiVersion string
	httpClient *http.Client
	logger     *slog.Logger
}

func New(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	apiVersion := strings.TrimSpace(opts.APIVersion)
	if apiVersion == "" {
		apiVersion = "v1beta"
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		apiKey:     opts.APIKey,
		baseURL:    baseURL,
		apiVersion: apiVersion,
		httpClient: opts.HTTPClient,
		logger:     logger,
	}
}

// Generate sends the attachments and the prompt to the model and returns the
// produced HTML document. Attachments go first, in their original order,
// followed by exactly one text part. Errors are logged and returned to the
// caller untouched; there are no retries.
func (c *Client) Generate(ctx context.Context, prompt string, attachments []Attachment) (string, error) {
	parts := make([]part, 0, len(attachments)+1)
	for _, att := range attachments {
		parts = append(parts, part{
			InlineData: &blob{
				Data:     att.DataBase64,
				MimeType: att.MimeType,
			},
		})
	}
	parts = append(parts, part{Text: prompt})

	req := generateContentRequest{
		Contents:          []content{{Role: "user", Parts: parts}},
		SystemInstruction: &content{Role: "user", Parts: []part{{Text: systemInstruction}}},
		GenerationConfig:  generationConfig{Temperature: generationTemperature},
	}

	c.logger.Debug("generating document", "model", model, "attachments", len(attachments), "prompt_len", len(prompt))

	text, err := c.generateContent(ctx, req)
	if err != nil {
		c.logger.Error("document generation failed", "model", model, "error", err)
		return "", err
	}

	text = stripCodeFences(text)
	if strings.TrimSpace(text) == "" {
		text = emptyDocument
	}
	return text, nil
}

func (c *Client) generateContent(ctx context.Context, payload generateContentRequest) (string, error) {
	if c.httpClient == nil {
		return "", errors.New("http client is nil")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/models/%s:generateContent", c.baseURL, c.apiVersion, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request: %w", err)
	}
	defer httpResp.Body.Close()

	rawBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode >= 400 {
		return "", fmt.Errorf("gemini API %s: %s", httpResp.Status, strings.TrimSpace(string(rawBody)))
	}

	var decoded generateContentResponse
	if err := json.Unmarshal(rawBody, &decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return extractText(decoded), nil
}

func extractText(resp generateContentResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}

	var textBuilder strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.Text != "" {
			textBuilder.WriteString(p.Text)
		}
	}
	return textBuilder.String()
}

// stripCodeFences removes a leading "```html" or "```" fence and a trailing
// "```" fence when present. Applying it to already-clean output changes
// nothing.
func stripCodeFences(s string) string {
	out := s

	leading := strings.TrimLeft(out, " \t\r\n")
	if strings.HasPrefix(leading, "```") {
		leading = strings.TrimPrefix(leading, "```")
		leading = strings.TrimPrefix(leading, "html")
		leading = strings.TrimPrefix(leading, "\n")
		out = leading
	}

	trailing := strings.TrimRight(out, " \t\r\n")
	if strings.HasSuffix(trailing, "```") {
		out = strings.TrimSuffix(trailing, "```")
	}

	return out
}

type generateContentRequest struct {
	Contents          []content        `json:"contents"`
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string `json:"text,omitempty"`
	InlineData *blob  `json:"inlineData,omitempty"`
}

type blob struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

type generateContentResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content content `json:"content"`
}
