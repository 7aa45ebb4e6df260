package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"jobscout-engine/internal/domain"
)

// OpenAIClient talks to any OpenAI-compatible chat-completions endpoint.
type OpenAIClient struct {
	baseURL      string
	apiKey       string
	model        string
	systemPrompt string
	hc           *http.Client
}

// NewOpenAIClient builds a client bound to one instruction template (see
// FitSystemPrompt / TailoredCVSystemPrompt); Enrich is then a pure function
// of (posting, profile).
func NewOpenAIClient(baseURL, apiKey, model, systemPrompt string) *OpenAIClient {
	return &OpenAIClient{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		apiKey:       apiKey,
		model:        model,
		systemPrompt: systemPrompt,
		hc:           &http.Client{Timeout: 60 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *OpenAIClient) Enrich(ctx context.Context, p domain.Posting, profile *Profile) (Result, Usage, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: c.systemPrompt},
			{Role: "user", Content: UserPrompt(p, profile)},
		},
		Temperature: 0,
		ResponseFormat: &struct {
			Type string `json:"type"`
		}{Type: "json_object"},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return Result{}, Usage{}, fmt.Errorf("%w: marshal request: %v", ErrEnrichment, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Result{}, Usage{}, fmt.Errorf("%w: build request: %v", ErrEnrichment, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		return Result{}, Usage{}, fmt.Errorf("%w: %v", ErrEnrichment, err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, Usage{}, fmt.Errorf("%w: read response: %v", ErrEnrichment, err)
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, Usage{}, fmt.Errorf("%w: status %d: %s", ErrEnrichment, resp.StatusCode, truncate(string(respBytes), 200))
	}

	var cr chatResponse
	if err := json.Unmarshal(respBytes, &cr); err != nil {
		return Result{}, Usage{}, fmt.Errorf("%w: decode response: %v", ErrEnrichment, err)
	}
	usage := Usage{PromptTokens: cr.Usage.PromptTokens, CompletionTokens: cr.Usage.CompletionTokens}
	if cr.Error != nil {
		return Result{}, usage, fmt.Errorf("%w: api error: %s", ErrEnrichment, cr.Error.Message)
	}
	if len(cr.Choices) == 0 {
		return Result{}, usage, fmt.Errorf("%w: no choices returned", ErrEnrichment)
	}

	return DecodeResult(cr.Choices[0].Message.Content), usage, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
