package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var ErrNotConfigured = errors.New("assistant not configured")

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options tune a single completion.
type Options struct {
	MaxTokens   int
	Temperature float64
	JSON        bool
}

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	BaseURL string
	APIKey  string
	Model   string
	client  *http.Client
}

func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) Configured() bool { return c != nil && c.APIKey != "" }

type completionRequest struct {
	Model          string            `json:"model"`
	Messages       []Message         `json:"messages"`
	MaxTokens      int               `json:"max_tokens,omitempty"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete returns the first choice's content.
func (c *Client) Complete(ctx context.Context, messages []Message, opts Options) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	body := completionRequest{
		Model:       c.Model,
		Messages:    messages,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}
	if opts.JSON {
		body.ResponseFormat = map[string]string{"type": "json_object"}
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat completion: status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	var out completionResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("chat completion: decode: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("chat completion: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", errors.New("chat completion: empty response")
	}
	return out.Choices[0].Message.Content, nil
}
