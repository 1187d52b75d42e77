// Package transcribe talks to a Whisper-style speech-to-text endpoint.
package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"TubeScribe/internal/config"
	"TubeScribe/internal/ports"
)

// Client uploads audio files and returns the plain-text transcript.
type Client struct {
	endpoint string
	model    string
	apiKey   string
	http     *http.Client
}

var _ ports.Transcriber = (*Client)(nil)

// NewClient creates a reusable transcription client. The HTTP timeout is
// generous because transcription of long audio is slow; the orchestrator
// applies its own stage ceiling on top.
func NewClient(cfg config.TranscribeConfig) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: 10 * time.Minute},
	}
}

// Transcribe uploads the audio file as multipart form data and returns
// the transcript text.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if c.endpoint == "" || c.model == "" {
		return "", fmt.Errorf("transcriber misconfigured")
	}

	file, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("open audio: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("copy audio: %w", err)
	}
	if err := writer.WriteField("model", c.model); err != nil {
		return "", fmt.Errorf("write model field: %w", err)
	}
	if err := writer.WriteField("response_format", "text"); err != nil {
		return "", fmt.Errorf("write format field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("transcription error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	transcript, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read transcript: %w", err)
	}

	text := strings.TrimSpace(string(transcript))
	if text == "" {
		return "", fmt.Errorf("transcription returned empty text")
	}
	return text, nil
}
