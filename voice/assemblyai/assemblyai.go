// Package assemblyai provides the speech-to-text transcriber backed by the
// AssemblyAI REST API: upload the audio, create a transcript job, poll
// until it reaches a terminal status.
package assemblyai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/voicefin/voicefin/voice"
)

const defaultBaseURL = "https://api.assemblyai.com"

var _ voice.Transcriber = (*Client)(nil)

// Client talks to the AssemblyAI API.
type Client struct {
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	pollInterval time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithPollInterval overrides the transcript status poll interval.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Client) {
		c.pollInterval = interval
	}
}

// NewClient creates a transcriber with the given API key.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:       apiKey,
		baseURL:      defaultBaseURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		pollInterval: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type uploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type transcriptResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Text   string `json:"text"`
	Error  string `json:"error"`
}

// Transcribe implements voice.Transcriber.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (string, error) {
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return "", fmt.Errorf("read audio %s: %w", audioPath, err)
	}

	var uploaded uploadResponse
	if err := c.post(ctx, "/v2/upload", audio, "application/octet-stream", &uploaded); err != nil {
		return "", fmt.Errorf("upload audio: %w", err)
	}

	payload, err := json.Marshal(map[string]string{
		"audio_url":     uploaded.UploadURL,
		"language_code": "en_us",
	})
	if err != nil {
		return "", fmt.Errorf("marshal transcript request: %w", err)
	}
	var created transcriptResponse
	if err := c.post(ctx, "/v2/transcript", payload, "application/json", &created); err != nil {
		return "", fmt.Errorf("create transcript: %w", err)
	}

	for {
		var status transcriptResponse
		if err := c.get(ctx, "/v2/transcript/"+created.ID, &status); err != nil {
			return "", fmt.Errorf("poll transcript: %w", err)
		}
		switch status.Status {
		case "completed":
			return status.Text, nil
		case "error":
			return "", fmt.Errorf("transcription failed: %s", status.Error)
		}
		select {
		case <-time.After(c.pollInterval):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func (c *Client) post(ctx context.Context, path string, body []byte, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("authorization", c.apiKey)
	req.Header.Set("content-type", contentType)
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("authorization", c.apiKey)
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
