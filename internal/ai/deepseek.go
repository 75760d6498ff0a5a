// Package ai proxies free-form questions to the DeepSeek chat API.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const DefaultBaseURL = "https://api.deepseek.com/v1/"

const systemPrompt = "You are a helpful assistant inside a Telegram bot. Answer user questions concisely."

var (
	ErrNoAPIKey      = errors.New("deepseek api key not configured")
	ErrUnauthorized  = errors.New("deepseek api key rejected")
	ErrQuotaExceeded = errors.New("deepseek account has no credit")
	ErrRateLimited   = errors.New("deepseek rate limit exceeded")
)

// Client is a minimal DeepSeek chat-completions client.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// Enabled reports whether an API key is configured at all.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Ask sends one prompt and returns the assistant's reply.
func (c *Client) Ask(ctx context.Context, prompt string) (string, error) {
	if !c.Enabled() {
		return "", ErrNoAPIKey
	}

	payload, err := json.Marshal(chatRequest{
		Model: "deepseek-chat",
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
		MaxTokens:   2000,
	})
	if err != nil {
		return "", errors.Wrap(err, "could not encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", errors.Wrap(err, "could not build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "deepseek request failed")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return "", ErrUnauthorized
	case http.StatusPaymentRequired:
		return "", ErrQuotaExceeded
	case http.StatusTooManyRequests:
		return "", ErrRateLimited
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Errorf("deepseek error %d: %s", resp.StatusCode, body)
		return "", errors.Errorf("deepseek returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", errors.Wrap(err, "could not decode response")
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("empty response from deepseek")
	}
	return parsed.Choices[0].Message.Content, nil
}
