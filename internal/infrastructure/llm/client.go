// Package llm adapts OpenAI-compatible chat endpoints to the Generator
// port. Both supported backends (OpenAI, DeepSeek) speak the same wire
// protocol and differ only in endpoint, model and relevance-score scale.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"TubeScribe/internal/config"
	"TubeScribe/internal/ports"
)

// refusalMarkers are the strings the backends emit when declining a task.
// Classification happens here so callers get a typed outcome instead of
// sniffing response content themselves.
var refusalMarkers = []string{"抱歉", "不能生成"}

// Client implements ports.Generator against one chat-completions endpoint.
type Client struct {
	endpoint   string
	model      string
	apiKey     string
	scoreScale float64
	httpClient *http.Client
}

var _ ports.Generator = (*Client)(nil)

// NewClient builds a generator from backend configuration.
func NewClient(cfg config.BackendConfig) *Client {
	return &Client{
		endpoint:   cfg.Endpoint,
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		scoreScale: cfg.ScoreScale,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

// ScoreScale reports the top of this backend's native relevance scale.
func (c *Client) ScoreScale() float64 {
	if c.scoreScale <= 0 {
		return 5
	}
	return c.scoreScale
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends a system+user prompt pair and classifies the reply.
func (c *Client) Complete(ctx context.Context, system, prompt string) ports.Outcome {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return errorOutcome(fmt.Errorf("llm client misconfigured"))
	}

	messages := make([]chatMessage, 0, 2)
	if strings.TrimSpace(system) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.7,
	})
	if err != nil {
		return errorOutcome(fmt.Errorf("marshal chat payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return errorOutcome(fmt.Errorf("new request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errorOutcome(fmt.Errorf("chat request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return errorOutcome(fmt.Errorf("chat error %s: %s", resp.Status, strings.TrimSpace(string(payload))))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return errorOutcome(fmt.Errorf("decode chat response: %w", err))
	}
	if len(parsed.Choices) == 0 {
		return ports.Outcome{Kind: ports.OutcomeEmpty}
	}

	return Classify(parsed.Choices[0].Message.Content)
}

// Classify maps raw response text onto the structured outcome taxonomy.
func Classify(text string) ports.Outcome {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ports.Outcome{Kind: ports.OutcomeEmpty}
	}

	for _, marker := range refusalMarkers {
		if strings.Contains(trimmed, marker) {
			return ports.Outcome{Kind: ports.OutcomeRefusal, Text: trimmed}
		}
	}

	return ports.Outcome{Kind: ports.OutcomeSuccess, Text: trimmed}
}

func errorOutcome(err error) ports.Outcome {
	return ports.Outcome{Kind: ports.OutcomeError, Err: err}
}
