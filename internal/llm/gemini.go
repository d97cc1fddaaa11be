package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// geminiCompleter talks to the Gemini generateContent REST endpoint.
type geminiCompleter struct {
	http        *http.Client
	baseURL     string
	model       string
	apiKey      string
	maxTokens   int
	temperature float32
	timeout     time.Duration
}

func newGemini(cfg Config) *geminiCompleter {
	timeout := time.Duration(cfg.Timeout) * time.Second
	base := cfg.BaseURL
	if base == "" {
		base = DefaultGeminiURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}
	return &geminiCompleter{
		http:        newHTTPClient(timeout),
		baseURL:     base,
		model:       model,
		apiKey:      cfg.APIKey,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     timeout,
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		Temperature     float32 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *geminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body geminiRequest
	body.Contents = []geminiContent{{Parts: []geminiPart{{Text: prompt}}}}
	body.GenerationConfig.Temperature = c.temperature
	body.GenerationConfig.MaxOutputTokens = c.maxTokens
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("llm: gemini encode: %w", err)
	}

	endpoint := c.baseURL + "/" + c.model + ":generateContent?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("llm: gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	slog.Debug("llm: gemini request", slog.String("model", c.model), slog.Int("prompt_len", len(prompt)))

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: gemini: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("llm: gemini read: %w", err)
	}

	var result geminiResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return "", fmt.Errorf("llm: gemini status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
		}
		return "", fmt.Errorf("llm: gemini decode: %w", err)
	}
	if result.Error != nil {
		return "", fmt.Errorf("llm: gemini error %d: %s", result.Error.Code, result.Error.Message)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("llm: gemini status %d", resp.StatusCode)
	}

	var b strings.Builder
	for _, cand := range result.Candidates {
		for _, p := range cand.Content.Parts {
			b.WriteString(p.Text)
		}
		if b.Len() > 0 {
			break
		}
	}
	if b.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return b.String(), nil
}
