// Package extraction calls a language-model backend to pull structured
// contest announcements out of free-text blog posts. The call is
// schema-constrained: the model must answer through a function call whose
// arguments match the declared bucket schema.
package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const systemPrompt = "You read full blog posts and extract every contest announcement worldwide, grouped into platform, college, and company buckets."

// Config holds extraction backend configuration.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client talks to a chat-completions style extraction backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	logger     *slog.Logger
}

// NewClient creates a new extraction client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		logger:  logger.With("component", "extraction"),
	}
}

// ExtractContests asks the backend for every contest announced in the
// given page text, grouped by organizer kind.
func (c *Client) ExtractContests(ctx context.Context, pageURL, text string) (Buckets, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf("URL: %s\n\n%s", pageURL, text)},
		},
		Functions:    []functionDef{extractionFunction()},
		FunctionCall: map[string]string{"name": functionName},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return Buckets{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return Buckets{}, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Buckets{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Buckets{}, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return Buckets{}, fmt.Errorf("decode response: %w", err)
	}

	if len(chat.Choices) == 0 || chat.Choices[0].Message.FunctionCall == nil {
		return Buckets{}, fmt.Errorf("response carries no function call")
	}

	var buckets Buckets
	if err := json.Unmarshal([]byte(chat.Choices[0].Message.FunctionCall.Arguments), &buckets); err != nil {
		return Buckets{}, fmt.Errorf("parse function arguments: %w", err)
	}

	c.logger.Debug("extracted candidates",
		"url", pageURL,
		"platform", len(buckets.PlatformContests),
		"college", len(buckets.CollegeContests),
		"company", len(buckets.CompanyContests),
	)

	return buckets, nil
}
