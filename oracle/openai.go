// Package oracle implements the semantic-comparison boundary: a single
// blocking chat-completion call against an Azure OpenAI or OpenAI-compatible
// endpoint. No retries live here; a transport failure aborts the caller's
// whole run.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gaurav-prasanna/clausecheck/core"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultMaxTokens = 400

	// Error bodies are truncated before ending up in logs or wrapped errors.
	maxErrorBodyChars = 500
)

// Config holds the connection settings for the chat endpoint.
type Config struct {
	// Endpoint is the service base URL, e.g. https://myresource.openai.azure.com
	// or https://api.openai.com/v1.
	Endpoint string
	APIKey   string
	// Model is the Azure deployment name or the OpenAI model id.
	Model string
	// APIVersion selects the Azure request shape (deployment path plus
	// api-key header). Leave empty for plain OpenAI-compatible endpoints.
	APIVersion  string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	// ForceJSON asks the endpoint for a json_object response. Only set this
	// when the system prompt instructs the model to emit JSON.
	ForceJSON bool
}

// Client is an Oracle backed by a chat-completions endpoint.
type Client struct {
	cfg Config
	url string
	hc  *http.Client
}

var _ core.Oracle = (*Client)(nil)

// New validates the configuration and builds a Client.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" || cfg.APIKey == "" || cfg.Model == "" {
		return nil, errors.New("oracle: endpoint, api key and model are all required")
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	base := strings.TrimRight(cfg.Endpoint, "/")
	var endpoint string
	if cfg.APIVersion != "" {
		endpoint = fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
			base, url.PathEscape(cfg.Model), url.QueryEscape(cfg.APIVersion))
	} else {
		endpoint = base + "/chat/completions"
	}

	return &Client{
		cfg: cfg,
		url: endpoint,
		hc:  &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string              `json:"model,omitempty"`
	Messages       []chatMessage       `json:"messages"`
	Temperature    float64             `json:"temperature"`
	MaxTokens      int                 `json:"max_tokens"`
	ResponseFormat *chatResponseFormat `json:"response_format,omitempty"`
}

type chatResponseFormat struct {
	Type string `json:"type"`
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
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Complete sends one system+user exchange and returns the first choice's
// content with token usage.
func (c *Client) Complete(ctx context.Context, system, user string) (*core.OracleResult, error) {
	reqBody := chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}
	// Azure routes by deployment path; the body carries the model only for
	// plain OpenAI-compatible endpoints.
	if c.cfg.APIVersion == "" {
		reqBody.Model = c.cfg.Model
	}
	if c.cfg.ForceJSON {
		reqBody.ResponseFormat = &chatResponseFormat{Type: "json_object"}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("oracle: marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("oracle: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIVersion != "" {
		req.Header.Set("api-key", c.cfg.APIKey)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oracle: calling chat endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyChars))
		return nil, fmt.Errorf("oracle: chat endpoint returned %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("oracle: decoding response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.New("oracle: response contained no choices")
	}

	return &core.OracleResult{
		Content: parsed.Choices[0].Message.Content,
		Usage: core.TokenUsage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
			TotalTokens:      parsed.Usage.TotalTokens,
		},
	}, nil
}
